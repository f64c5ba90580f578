package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slack-go/slack"
)

// handlerTimeout bounds one event handling pass.
const handlerTimeout = 30 * time.Second

// Bot wires the Slack API to the reaction state machine. All mutable state
// lives in store; the rest is fixed after Identify.
type Bot struct {
	api       SlackAPI
	store     *Store
	clock     Clock
	reactions *ReactionTable
	config    Config

	botUserID string
	botID     string

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func NewBot(api SlackAPI, store *Store, clock Clock, reactions *ReactionTable, config Config) *Bot {
	return &Bot{
		api:       api,
		store:     store,
		clock:     clock,
		reactions: reactions,
		config:    config,
	}
}

// Identify resolves the bot's own user and bot IDs. Must be called before
// any event is handled.
func (b *Bot) Identify(ctx context.Context) error {
	resp, err := b.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("auth.test failed: %w", err)
	}
	b.botUserID = resp.UserID
	b.botID = resp.BotID
	Info("Authenticated as %s (user %s, bot %s) in team %s", resp.User, resp.UserID, resp.BotID, resp.Team)
	return nil
}

func (b *Bot) isOwnMessage(msg slack.Message) bool {
	if b.botUserID != "" && msg.User == b.botUserID {
		return true
	}
	return b.botID != "" && msg.BotID == b.botID
}

// dispatch runs fn on a tracked goroutine with its own deadline.
func (b *Bot) dispatch(fn func(ctx context.Context)) {
	if !b.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		fn(ctx)
	}) {
		Debug("Dropping handler: shutting down")
	}
}

// spawn runs fn on a tracked goroutine. After Shutdown it drops fn.
func (b *Bot) spawn(fn func()) bool {
	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		return false
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		fn()
	}()
	return true
}

// Wait blocks until every dispatched handler has returned.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// Shutdown stops accepting new work, including deletions whose timers fire
// later, and waits for running handlers.
func (b *Bot) Shutdown() {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()
	b.wg.Wait()
}

// fetchMessage returns the channel message at key, or nil if it does not
// exist (deleted, or a thread reply rather than a top-level message).
func (b *Bot) fetchMessage(ctx context.Context, key messageKey) (*slack.Message, error) {
	resp, err := b.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: key.Channel,
		Latest:    key.Timestamp,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", key, err)
	}
	for i := range resp.Messages {
		if resp.Messages[i].Timestamp == key.Timestamp {
			return &resp.Messages[i], nil
		}
	}
	return nil, nil
}

func (b *Bot) fetchReplies(ctx context.Context, key messageKey) ([]slack.Message, error) {
	replies, _, _, err := b.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: key.Channel,
		Timestamp: key.Timestamp,
		Limit:     b.config.RepliesLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch replies for %s: %w", key, err)
	}
	return replies, nil
}

func (b *Bot) postThreadReply(ctx context.Context, key messageKey, text string) (string, error) {
	_, ts, err := b.api.PostMessageContext(ctx, key.Channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(key.Timestamp),
	)
	if err != nil {
		return "", fmt.Errorf("failed to post reply to %s: %w", key, err)
	}
	return ts, nil
}

func (b *Bot) postEphemeral(ctx context.Context, channelID, userID, text string) {
	if _, err := b.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		Error("Error posting ephemeral message to %s in %s: %v", userID, channelID, err)
	}
}

// deleteMessage is best-effort: failures are logged and reported as false.
func (b *Bot) deleteMessage(ctx context.Context, channelID, ts, what string) bool {
	if ts == "" {
		return false
	}
	if _, _, err := b.api.DeleteMessageContext(ctx, channelID, ts); err != nil {
		Error("Error deleting %s %s in %s: %v", what, ts, channelID, err)
		return false
	}
	Debug("Deleted %s %s in %s", what, ts, channelID)
	return true
}
