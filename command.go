package main

import (
	"context"

	"github.com/slack-go/slack"
)

// HandleCommand posts a PR announcement for a slash command. It returns the
// private reply for the invoking user, or "" when nothing needs to be said.
func (b *Bot) HandleCommand(ctx context.Context, cmd slack.SlashCommand) string {
	if usage := b.commandUsage(cmd); usage != "" {
		return usage
	}

	prURL, label := parseCommandArgs(cmd.Text)

	complexity := normalizeComplexity(label)
	text := formatAnnouncement(prURL, cmd.UserID, complexity)
	blocks := createAnnouncementBlocks(prURL, cmd.UserID, complexity, b.reactions.Legend())

	_, ts, err := b.api.PostMessageContext(ctx, cmd.ChannelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		Error("Error posting announcement for %s in %s: %v", cmd.UserID, cmd.ChannelID, err)
		return genericCommandError
	}

	Info("Posted announcement %s in %s for user %s (%s)", ts, cmd.ChannelID, cmd.UserID, complexity)
	b.refreshTopic(cmd.ChannelID)
	return ""
}

// commandUsage returns the usage hint when cmd carries no PR URL.
func (b *Bot) commandUsage(cmd slack.SlashCommand) string {
	if prURL, _ := parseCommandArgs(cmd.Text); prURL != "" {
		return ""
	}
	command := cmd.Command
	if command == "" {
		command = b.config.CommandName
	}
	return formatUsage(command)
}

// RunCommand handles cmd in the background. Any reply reaches the invoking
// user as an ephemeral message.
func (b *Bot) RunCommand(cmd slack.SlashCommand) {
	b.dispatch(func(ctx context.Context) {
		if reply := b.HandleCommand(ctx, cmd); reply != "" {
			b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID, reply)
		}
	})
}
