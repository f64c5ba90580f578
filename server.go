package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const rawBodyKey = "slackRawBody"

// newRouter serves the Slack Events API and slash command endpoints.
func newRouter(bot *Bot, config Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "ok",
			"pending_deletions": bot.store.PendingCount(),
		})
	})

	s := &slackHandler{bot: bot, config: config}
	group := router.Group("/slack", verifySlackSignature(config.SlackSigningSecret))
	group.POST("/events", s.handleEvent)
	group.POST("/commands", s.handleCommand)

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// verifySlackSignature rejects requests not signed with the app's signing
// secret. The body is restored so handlers can still read it.
func verifySlackSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sv, err := slack.NewSecretsVerifier(c.Request.Header, secret)
		if err != nil {
			Warn("Rejecting request to %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}
		if _, err := sv.Write(body); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify signature"})
			return
		}
		if err := sv.Ensure(); err != nil {
			Warn("Rejecting request to %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		c.Set(rawBodyKey, body)
		c.Next()
	}
}

type slackHandler struct {
	bot    *Bot
	config Config
}

// handleEvent acknowledges Events API deliveries immediately and handles
// reaction events in the background.
func (s *slackHandler) handleEvent(c *gin.Context) {
	body := c.MustGet(rawBodyKey).([]byte)

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event"})
		return
	}

	if eventsAPIEvent.Type == slackevents.URLVerification {
		var r *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse challenge"})
			return
		}
		c.String(http.StatusOK, r.Challenge)
		return
	}

	// Slack redelivers when an ack is slow. The first delivery was already
	// dispatched, so retries are acknowledged and dropped.
	if retry := c.GetHeader("X-Slack-Retry-Num"); retry != "" {
		Debug("Skipping Slack retry %s (%s)", retry, c.GetHeader("X-Slack-Retry-Reason"))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
		case *slackevents.ReactionAddedEvent:
			r := reactionFromAdded(ev)
			s.bot.dispatch(func(ctx context.Context) {
				s.bot.HandleReactionAdded(ctx, r)
			})
		case *slackevents.ReactionRemovedEvent:
			r := reactionFromRemoved(ev)
			s.bot.dispatch(func(ctx context.Context) {
				s.bot.HandleReactionRemoved(ctx, r)
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleCommand acknowledges within Slack's deadline and posts the
// announcement in the background. Errors and usage hints go back to the
// invoking user only.
func (s *slackHandler) handleCommand(c *gin.Context) {
	cmd, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse command"})
		return
	}

	if cmd.Command != s.config.CommandName {
		c.JSON(http.StatusOK, slack.Msg{
			ResponseType: slack.ResponseTypeEphemeral,
			Text:         "Unknown command " + cmd.Command,
		})
		return
	}

	Info("Received %s command from user %s", cmd.Command, cmd.UserName)

	if usage := s.bot.commandUsage(cmd); usage != "" {
		c.JSON(http.StatusOK, slack.Msg{
			ResponseType: slack.ResponseTypeEphemeral,
			Text:         usage,
		})
		return
	}

	s.bot.RunCommand(cmd)
	c.Status(http.StatusOK)
}
