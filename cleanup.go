package main

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"
)

const cleanupTimeout = 2 * time.Minute

// runCleanup is the timer callback of a deletion task. It deletes the bot's
// thread replies and the announcement, unless the merge reaction has been
// removed in the meantime. The registry entry is removed on every path.
func (b *Bot) runCleanup(task *deletionTask) {
	if !task.fire() {
		return
	}
	defer b.store.Remove(task)

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	key := task.key
	warningTS := task.WarningTS()
	Info("Running deletion %s of %s", task.id, key)

	present, err := b.mergeReactionPresent(ctx, key)
	if err != nil {
		Error("Aborting deletion %s: %v", task.id, err)
		b.deleteMessage(ctx, key.Channel, warningTS, "deletion warning")
		return
	}
	if !present {
		Info("Merge reaction is gone from %s, skipping deletion %s", key, task.id)
		b.deleteMessage(ctx, key.Channel, warningTS, "deletion warning")
		return
	}

	replies, err := b.fetchReplies(ctx, key)
	if err != nil {
		Error("Aborting deletion %s: %v", task.id, err)
		b.deleteMessage(ctx, key.Channel, warningTS, "deletion warning")
		return
	}

	warningDeleted := false
	deleted := 0
	for _, reply := range replies {
		if reply.Timestamp == key.Timestamp || !b.isOwnMessage(reply) {
			continue
		}
		if !b.deleteMessage(ctx, key.Channel, reply.Timestamp, "thread reply") {
			continue
		}
		deleted++
		if reply.Timestamp == warningTS {
			warningDeleted = true
		}
	}

	if b.deleteMessage(ctx, key.Channel, key.Timestamp, "announcement") {
		Info("Deleted announcement %s and %d thread replies", key, deleted)
		b.refreshTopic(key.Channel)
	}

	if !warningDeleted {
		b.deleteMessage(ctx, key.Channel, warningTS, "deletion warning")
	}
}

func (b *Bot) mergeReactionPresent(ctx context.Context, key messageKey) (bool, error) {
	item, err := b.api.GetReactionsContext(ctx,
		slack.NewRefToMessage(key.Channel, key.Timestamp),
		slack.NewGetReactionsParameters(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to fetch reactions on %s: %w", key, err)
	}

	names := make([]string, 0, len(item.Reactions))
	for _, r := range item.Reactions {
		names = append(names, r.Name)
	}
	return b.reactions.hasMergeReaction(names), nil
}
