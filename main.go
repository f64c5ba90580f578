package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
)

func main() {
	config := loadConfig()

	// Initialize logger with configured level
	SetLogLevel(config.LogLevel, config.LogFormat)
	defer syncLogger()

	if err := config.validate(); err != nil {
		Fatal("Invalid configuration: %v", err)
	}

	reactions := defaultReactionTable()
	if config.ReactionsFile != "" {
		table, err := loadReactionTable(config.ReactionsFile)
		if err != nil {
			Fatal("%v", err)
		}
		reactions = table
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup Slack client
	slackClient := slack.New(config.SlackBotToken)
	bot := NewBot(slackClient, NewStore(), realClock{}, reactions, config)
	if err := bot.Identify(ctx); err != nil {
		Fatal("Failed to identify bot: %v", err)
	}

	// The Redis relay is optional; Slack can also call us directly.
	if config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       0,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			Fatal("Failed to connect to Redis: %v", err)
		}
		Info("Connected to Redis")
		startRelaySubscribers(ctx, rdb, bot, config)
	}

	if !strings.EqualFold(config.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           newRouter(bot, config),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Fatal("listen: %v", err)
		}
	}()

	Info("SlashVibePR service started on port %s", config.Port)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Error("Server shutdown: %v", err)
	}
	bot.Shutdown()

	if n := bot.store.PendingCount(); n > 0 {
		Warn("Abandoning %d scheduled deletions", n)
	}
}
