package main

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// subscribe feeds every payload published on channel to handle until ctx is
// cancelled.
func subscribe(ctx context.Context, rdb *redis.Client, channel string, handle func(payload string)) {
	pubsub := rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	Info("Subscribed to Redis channel: %s", channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				Warn("Redis channel %s closed", channel)
				return
			}
			if msg == nil {
				continue
			}
			handle(msg.Payload)
		}
	}
}

// startRelaySubscribers consumes slash commands and reaction events that a
// separate Slack relay publishes to Redis.
func startRelaySubscribers(ctx context.Context, rdb *redis.Client, bot *Bot, config Config) {
	go subscribe(ctx, rdb, config.RedisChannel, func(payload string) {
		handleSlashCommand(bot, payload, config)
	})
	go subscribe(ctx, rdb, config.RedisReactionChannel, func(payload string) {
		handleRelayedReaction(bot, payload, false)
	})
	go subscribe(ctx, rdb, config.RedisReactionRemovedChannel, func(payload string) {
		handleRelayedReaction(bot, payload, true)
	})
}

func handleSlashCommand(bot *Bot, payload string, config Config) {
	var cmd SlackCommand
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		Error("Error unmarshaling slash command: %v", err)
		return
	}

	// Only handle our own command
	if cmd.Command != config.CommandName {
		return
	}

	Info("Received %s command from user %s", cmd.Command, cmd.UserName)

	bot.RunCommand(cmd.slashCommand())
}

func handleRelayedReaction(bot *Bot, payload string, removed bool) {
	var ev ReactionEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		Error("Error unmarshaling reaction event: %v", err)
		return
	}

	want := "reaction_added"
	if removed {
		want = "reaction_removed"
	}
	if ev.Event.Type != want {
		Debug("Ignoring relayed event of type %q", ev.Event.Type)
		return
	}

	r := reactionFromRelay(ev)
	bot.dispatch(func(ctx context.Context) {
		if removed {
			bot.HandleReactionRemoved(ctx, r)
		} else {
			bot.HandleReactionAdded(ctx, r)
		}
	})
}
