package main

import (
	"context"

	"github.com/slack-go/slack"
)

// refreshTopic updates the channel topic in the background when enabled.
func (b *Bot) refreshTopic(channelID string) {
	if !b.config.TopicUpdates {
		return
	}
	b.dispatch(func(ctx context.Context) {
		b.updateTopic(ctx, channelID)
	})
}

// updateTopic counts the bot's announcements in recent history by complexity
// and writes the summary into the channel topic. Failures are only logged.
func (b *Bot) updateTopic(ctx context.Context, channelID string) {
	resp, err := b.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     b.config.HistoryLimit,
	})
	if err != nil {
		Error("Error fetching history for topic in %s: %v", channelID, err)
		return
	}

	counts := make(map[Complexity]int)
	for _, msg := range resp.Messages {
		if !b.isOwnMessage(msg) || !isAnnouncement(msg.Text) {
			continue
		}
		tier, _ := parseComplexity(msg.Text)
		counts[tier]++
	}

	topic := formatTopicSummary(counts)
	if _, err := b.api.SetTopicOfConversationContext(ctx, channelID, topic); err != nil {
		Error("Error setting topic in %s: %v", channelID, err)
		return
	}
	Debug("Updated topic in %s: %s", channelID, topic)
}
