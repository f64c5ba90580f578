package main

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackAPI is the subset of the Slack Web API the bot uses. *slack.Client
// satisfies it; tests substitute an in-memory fake.
type SlackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
	GetReactionsContext(ctx context.Context, item slack.ItemRef, params slack.GetReactionsParameters) (slack.ReactedItem, error)
	SetTopicOfConversationContext(ctx context.Context, channelID, topic string) (*slack.Channel, error)
}

var _ SlackAPI = (*slack.Client)(nil)

// createAnnouncementBlocks lays out the announcement. The plain text passed
// as the message text carries the same content for parsing and notifications.
func createAnnouncementBlocks(prURL, authorID string, complexity Complexity, legend string) []slack.Block {
	headline := "🚀 " + announcementHeadline(prURL) + " is ready for review"

	details := &slack.SectionBlock{
		Type: slack.MBTSection,
		Fields: []*slack.TextBlockObject{
			{
				Type: slack.MarkdownType,
				Text: authorPrefix + mention(authorID),
			},
			{
				Type: slack.MarkdownType,
				Text: complexityPrefix + complexity.Rendered(),
			},
		},
	}

	blocks := []slack.Block{
		&slack.SectionBlock{
			Type: slack.MBTSection,
			Text: &slack.TextBlockObject{
				Type: slack.MarkdownType,
				Text: headline,
			},
		},
		details,
		&slack.SectionBlock{
			Type: slack.MBTSection,
			Text: &slack.TextBlockObject{
				Type: slack.MarkdownType,
				Text: prURL,
			},
		},
	}

	if legend != "" {
		blocks = append(blocks, &slack.ContextBlock{
			Type: slack.MBTContext,
			ContextElements: slack.ContextElements{
				Elements: []slack.MixedElement{
					&slack.TextBlockObject{
						Type: slack.MarkdownType,
						Text: legend,
					},
				},
			},
		})
	}

	return blocks
}
