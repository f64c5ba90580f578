package main

import (
	"context"
	"errors"
	"time"
)

// HandleReactionAdded runs one handling pass for a reaction on an
// announcement. The key is held in the in-flight guard for the whole pass.
func (b *Bot) HandleReactionAdded(ctx context.Context, r reaction) {
	if r.ItemType != "message" {
		return
	}
	action := b.reactions.Classify(r.Name)
	if action == ActionUnrecognized {
		return
	}

	key := r.key()
	lease := b.store.Acquire(key)
	defer lease.Release()

	msg, err := b.fetchMessage(ctx, key)
	if err != nil {
		Error("Error handling :%s: on %s: %v", r.Name, key, err)
		return
	}
	if msg == nil || !b.isOwnMessage(*msg) {
		Debug("Ignoring :%s: on %s: not one of our announcements", r.Name, key)
		return
	}

	authorID, _ := parseAuthor(msg.Text)
	Debug("Handling %s reaction :%s: from %s on %s", action, r.Name, r.User, key)

	switch action {
	case ActionComment:
		if _, err := b.postThreadReply(ctx, key, formatCommentNotice(authorID, r.User)); err != nil {
			Error("Error posting comment notice: %v", err)
		}
	case ActionApproval:
		if _, err := b.postThreadReply(ctx, key, formatApprovalNotice(authorID, r.User)); err != nil {
			Error("Error posting approval notice: %v", err)
		}
	case ActionUpdateRequest:
		b.notifyReviewers(ctx, key, authorID)
	case ActionMergeCleanup:
		b.scheduleDeletion(ctx, lease, authorID)
	}
}

// notifyReviewers mentions everyone who left comment notifications in the
// announcement's thread.
func (b *Bot) notifyReviewers(ctx context.Context, key messageKey, authorID string) {
	replies, err := b.fetchReplies(ctx, key)
	if err != nil {
		Error("Error collecting reviewers: %v", err)
		return
	}

	var notices []string
	for _, reply := range replies {
		if reply.Timestamp == key.Timestamp || !b.isOwnMessage(reply) {
			continue
		}
		notices = append(notices, reply.Text)
	}

	var reviewers []string
	for _, id := range parseReviewers(notices) {
		if id != authorID {
			reviewers = append(reviewers, id)
		}
	}

	if _, err := b.postThreadReply(ctx, key, formatUpdateNotice(authorID, reviewers)); err != nil {
		Error("Error posting update notice: %v", err)
		return
	}
	Info("Notified %d reviewers of updates on %s", len(reviewers), key)
}

// scheduleDeletion reserves the key, posts the warning and arms the timer.
func (b *Bot) scheduleDeletion(ctx context.Context, lease *guardLease, authorID string) {
	key := lease.key

	task, err := b.store.Reserve(lease)
	switch {
	case errors.Is(err, errGuardRevoked):
		Info("Merge reaction on %s was removed before deletion was scheduled", key)
		return
	case errors.Is(err, errDeletionPending):
		Debug("Deletion of %s is already pending", key)
		return
	case err != nil:
		Error("Error reserving deletion of %s: %v", key, err)
		return
	}

	warning := formatDeletionWarning(authorID, b.config.DeletionDelay, b.reactions.MergeReaction())
	warningTS, err := b.postThreadReply(ctx, key, warning)
	if err != nil {
		Error("Error posting deletion warning, not scheduling: %v", err)
		task.cancel()
		b.store.Remove(task)
		return
	}

	fire := func() {
		if !b.spawn(func() { b.runCleanup(task) }) {
			Warn("Shutting down, abandoning deletion %s of %s", task.id, key)
		}
	}
	if !task.arm(b.clock, b.config.DeletionDelay, warningTS, fire) {
		Info("Deletion of %s was cancelled while the warning was posted", key)
		b.deleteMessage(ctx, key.Channel, warningTS, "deletion warning")
		return
	}
	Info("Scheduled deletion %s of %s at %s", task.id, key, b.clock.Now().Add(b.config.DeletionDelay).Format(time.RFC3339))
}

// HandleReactionRemoved cancels a merge cleanup, either before it was
// scheduled (by revoking the guard) or while its timer is armed.
func (b *Bot) HandleReactionRemoved(ctx context.Context, r reaction) {
	if r.ItemType != "message" || b.reactions.Classify(r.Name) != ActionMergeCleanup {
		return
	}

	key := r.key()
	if b.store.Revoke(key) {
		Info("Revoked in-flight handling of %s", key)
	}

	task, ok := b.store.Pending(key)
	if !ok {
		return
	}
	warningTS, ok := task.cancel()
	if !ok {
		// Already firing; the cleanup re-checks the reaction itself.
		return
	}
	b.store.Remove(task)
	Info("Cancelled deletion %s of %s", task.id, key)

	b.deleteMessage(ctx, key.Channel, warningTS, "deletion warning")
}
