package main

import (
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// SlackCommand is the slash command payload published by the Slack relay.
type SlackCommand struct {
	Command     string `json:"command"`
	Text        string `json:"text"`
	ResponseURL string `json:"response_url"`
	TriggerID   string `json:"trigger_id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	ChannelID   string `json:"channel_id"`
}

func (c SlackCommand) slashCommand() slack.SlashCommand {
	return slack.SlashCommand{
		Command:     c.Command,
		Text:        c.Text,
		ResponseURL: c.ResponseURL,
		TriggerID:   c.TriggerID,
		UserID:      c.UserID,
		UserName:    c.UserName,
		ChannelID:   c.ChannelID,
	}
}

// ReactionEvent is the reaction_added / reaction_removed envelope published
// by the Slack relay. Both event types share this shape.
type ReactionEvent struct {
	Token   string `json:"token"`
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	Event   struct {
		Type     string `json:"type"`
		User     string `json:"user"`
		Reaction string `json:"reaction"`
		Item     struct {
			Type    string `json:"type"`
			Channel string `json:"channel"`
			Ts      string `json:"ts"`
		} `json:"item"`
		ItemUser string `json:"item_user"`
		EventTs  string `json:"event_ts"`
	} `json:"event"`
}

// reaction is the transport-neutral view of a reaction event.
type reaction struct {
	User     string
	Name     string
	ItemType string
	Channel  string
	Ts       string
}

func (r reaction) key() messageKey {
	return messageKey{Channel: r.Channel, Timestamp: r.Ts}
}

func reactionFromRelay(ev ReactionEvent) reaction {
	return reaction{
		User:     ev.Event.User,
		Name:     ev.Event.Reaction,
		ItemType: ev.Event.Item.Type,
		Channel:  ev.Event.Item.Channel,
		Ts:       ev.Event.Item.Ts,
	}
}

func reactionFromAdded(ev *slackevents.ReactionAddedEvent) reaction {
	return reaction{
		User:     ev.User,
		Name:     ev.Reaction,
		ItemType: ev.Item.Type,
		Channel:  ev.Item.Channel,
		Ts:       ev.Item.Timestamp,
	}
}

func reactionFromRemoved(ev *slackevents.ReactionRemovedEvent) reaction {
	return reaction{
		User:     ev.User,
		Name:     ev.Reaction,
		ItemType: ev.Item.Type,
		Channel:  ev.Item.Channel,
		Ts:       ev.Item.Timestamp,
	}
}

// messageKey identifies an announcement message.
type messageKey struct {
	Channel   string
	Timestamp string
}

func (k messageKey) String() string {
	return k.Channel + "/" + k.Timestamp
}

// ReactionAction is the meaning the bot assigns to a reaction name.
type ReactionAction int

const (
	ActionUnrecognized ReactionAction = iota
	ActionComment
	ActionApproval
	ActionUpdateRequest
	ActionMergeCleanup
)

func (a ReactionAction) String() string {
	switch a {
	case ActionComment:
		return "comment"
	case ActionApproval:
		return "approval"
	case ActionUpdateRequest:
		return "update_request"
	case ActionMergeCleanup:
		return "merge_cleanup"
	default:
		return "unrecognized"
	}
}
