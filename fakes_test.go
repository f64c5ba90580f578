package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
)

// fakeClock is a deterministic Clock. Time advances only when Advance is
// called, and AfterFunc callbacks run synchronously inside Advance in
// deadline order.
type fakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	callback func()
	stopped  bool
	fired    bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	waiter := &fakeWaiter{deadline: c.current.Add(d), callback: f}
	c.waiters = append(c.waiters, waiter)

	return &Timer{stopFunc: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if waiter.stopped || waiter.fired {
			return false
		}
		waiter.stopped = true
		return true
	}}
}

// Advance moves the clock forward and fires every due callback.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	var due []*fakeWaiter
	var remaining []*fakeWaiter
	for _, w := range c.waiters {
		switch {
		case w.stopped:
		case !w.deadline.After(c.current):
			w.fired = true
			due = append(due, w)
		default:
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, w := range due {
		w.callback()
	}
}

// PendingCount returns the number of timers that have neither fired nor
// been stopped.
func (c *fakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.stopped {
			n++
		}
	}
	return n
}

const (
	testBotUserID = "UBOT"
	testBotID     = "BBOT"
)

var errFakeSlack = errors.New("fake slack failure")

type ephemeralMessage struct {
	Channel string
	User    string
	Text    string
}

// fakeSlack is an in-memory SlackAPI. Top-level messages and thread replies
// live in one per-channel list, in post order.
type fakeSlack struct {
	mu        sync.Mutex
	seq       int
	messages  map[string][]slack.Message
	reactions map[messageKey][]string
	topics    map[string]string
	deleted   []string
	ephemeral []ephemeralMessage

	failPost      bool
	failReplies   bool
	failReactions bool
	failDelete    map[string]bool

	// historyHook runs before each history fetch, outside the lock.
	historyHook func()
	// postGate, when set, holds every chat.postMessage until it is closed.
	postGate chan struct{}
}

func newFakeSlack() *fakeSlack {
	return &fakeSlack{
		messages:   make(map[string][]slack.Message),
		reactions:  make(map[messageKey][]string),
		topics:     make(map[string]string),
		failDelete: make(map[string]bool),
	}
}

func (f *fakeSlack) nextTS() string {
	f.seq++
	return fmt.Sprintf("1700000000.%06d", f.seq)
}

func (f *fakeSlack) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{User: "prbot", UserID: testBotUserID, BotID: testBotID, Team: "T1"}, nil
}

func (f *fakeSlack) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", "", err
	}
	if f.postGate != nil {
		select {
		case <-f.postGate:
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPost {
		return "", "", errFakeSlack
	}
	msg := slack.Message{}
	msg.User = testBotUserID
	msg.BotID = testBotID
	msg.Text = values.Get("text")
	msg.ThreadTimestamp = values.Get("thread_ts")
	msg.Timestamp = f.nextTS()
	f.messages[channelID] = append(f.messages[channelID], msg)
	return channelID, msg.Timestamp, nil
}

func (f *fakeSlack) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemeral = append(f.ephemeral, ephemeralMessage{Channel: channelID, User: userID, Text: values.Get("text")})
	return f.nextTS(), nil
}

func (f *fakeSlack) DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[messageTimestamp] {
		return "", "", errFakeSlack
	}
	msgs := f.messages[channel]
	for i, msg := range msgs {
		if msg.Timestamp == messageTimestamp {
			f.messages[channel] = append(msgs[:i:i], msgs[i+1:]...)
			f.deleted = append(f.deleted, messageTimestamp)
			return channel, messageTimestamp, nil
		}
	}
	return "", "", errors.New("message_not_found")
}

func (f *fakeSlack) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	f.mu.Lock()
	hook := f.historyHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &slack.GetConversationHistoryResponse{}
	msgs := f.messages[params.ChannelID]
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.ThreadTimestamp != "" && msg.ThreadTimestamp != msg.Timestamp {
			continue
		}
		if params.Latest != "" && (msg.Timestamp > params.Latest || (!params.Inclusive && msg.Timestamp == params.Latest)) {
			continue
		}
		resp.Messages = append(resp.Messages, msg)
		if params.Limit > 0 && len(resp.Messages) >= params.Limit {
			break
		}
	}
	return resp, nil
}

func (f *fakeSlack) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReplies {
		return nil, false, "", errFakeSlack
	}

	var thread []slack.Message
	found := false
	for _, msg := range f.messages[params.ChannelID] {
		switch {
		case msg.Timestamp == params.Timestamp:
			found = true
			thread = append(thread, msg)
		case msg.ThreadTimestamp == params.Timestamp:
			thread = append(thread, msg)
		}
	}
	if !found {
		return nil, false, "", errors.New("thread_not_found")
	}
	if params.Limit > 0 && len(thread) > params.Limit {
		return thread[:params.Limit], true, "next", nil
	}
	return thread, false, "", nil
}

func (f *fakeSlack) GetReactionsContext(ctx context.Context, item slack.ItemRef, params slack.GetReactionsParameters) (slack.ReactedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReactions {
		return slack.ReactedItem{}, errFakeSlack
	}
	var out []slack.ItemReaction
	for _, name := range f.reactions[messageKey{Channel: item.Channel, Timestamp: item.Timestamp}] {
		out = append(out, slack.ItemReaction{Name: name, Count: 1})
	}
	reacted := slack.ReactedItem{Reactions: out}
	reacted.Type = "message"
	reacted.Channel = item.Channel
	return reacted, nil
}

func (f *fakeSlack) SetTopicOfConversationContext(ctx context.Context, channelID, topic string) (*slack.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics[channelID] = topic
	return &slack.Channel{}, nil
}

// postAs adds a message written by a human user. threadTS may be empty.
func (f *fakeSlack) postAs(channel, user, text, threadTS string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := slack.Message{}
	msg.User = user
	msg.Text = text
	msg.ThreadTimestamp = threadTS
	msg.Timestamp = f.nextTS()
	f.messages[channel] = append(f.messages[channel], msg)
	return msg.Timestamp
}

func (f *fakeSlack) setReactions(key messageKey, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[key] = names
}

func (f *fakeSlack) setHistoryHook(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyHook = hook
}

func (f *fakeSlack) exists(channel, ts string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.messages[channel] {
		if msg.Timestamp == ts {
			return true
		}
	}
	return false
}

// threadReplies returns the replies under ts, excluding the parent.
func (f *fakeSlack) threadReplies(channel, ts string) []slack.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []slack.Message
	for _, msg := range f.messages[channel] {
		if msg.ThreadTimestamp == ts && msg.Timestamp != ts {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeSlack) messagesIn(channel string) []slack.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]slack.Message(nil), f.messages[channel]...)
}

func (f *fakeSlack) topic(channel string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topics[channel]
}

func (f *fakeSlack) ephemeralMessages() []ephemeralMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ephemeralMessage(nil), f.ephemeral...)
}

func testConfig() Config {
	return Config{
		SlackBotToken:      "xoxb-test",
		SlackSigningSecret: "secret",
		Port:               "3000",
		CommandName:        "/pr",
		DeletionDelay:      30 * time.Second,
		HistoryLimit:       100,
		RepliesLimit:       200,
		TopicUpdates:       false,
	}
}

type testHarness struct {
	api   *fakeSlack
	clock *fakeClock
	store *Store
	bot   *Bot
}

func newTestHarness(t *testing.T, config Config) *testHarness {
	t.Helper()
	h := &testHarness{
		api:   newFakeSlack(),
		clock: newFakeClock(),
		store: NewStore(),
	}
	h.bot = NewBot(h.api, h.store, h.clock, defaultReactionTable(), config)
	if err := h.bot.Identify(context.Background()); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	t.Cleanup(h.bot.Wait)
	return h
}

// announce posts an announcement for author through the command handler and
// returns its key.
func (h *testHarness) announce(t *testing.T, channel, author, args string) messageKey {
	t.Helper()
	reply := h.bot.HandleCommand(context.Background(), slack.SlashCommand{
		Command:   "/pr",
		Text:      args,
		UserID:    author,
		ChannelID: channel,
	})
	if reply != "" {
		t.Fatalf("HandleCommand replied %q", reply)
	}
	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	msgs := h.api.messages[channel]
	return messageKey{Channel: channel, Timestamp: msgs[len(msgs)-1].Timestamp}
}

func reactionOn(key messageKey, user, name string) reaction {
	return reaction{User: user, Name: name, ItemType: "message", Channel: key.Channel, Ts: key.Timestamp}
}
