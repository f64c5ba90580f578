package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SlackBotToken               string
	SlackSigningSecret          string
	Port                        string
	CommandName                 string
	DeletionDelay               time.Duration
	HistoryLimit                int
	RepliesLimit                int
	TopicUpdates                bool
	ReactionsFile               string
	RedisAddr                   string
	RedisPassword               string
	RedisChannel                string
	RedisReactionChannel        string
	RedisReactionRemovedChannel string
	LogLevel                    string
	LogFormat                   string
}

func loadConfig() Config {
	return Config{
		SlackBotToken:               getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret:          getEnv("SLACK_SIGNING_SECRET", ""),
		Port:                        getEnv("PORT", "3000"),
		CommandName:                 getEnv("COMMAND_NAME", "/pr"),
		DeletionDelay:               getEnvAsDuration("DELETION_DELAY", "30s"),
		HistoryLimit:                getEnvAsInt("HISTORY_LIMIT", "100"),
		RepliesLimit:                getEnvAsInt("REPLIES_LIMIT", "200"),
		TopicUpdates:                getEnvAsBool("TOPIC_UPDATES", "true"),
		ReactionsFile:               getEnv("REACTIONS_FILE", ""),
		RedisAddr:                   getEnv("REDIS_ADDR", ""),
		RedisPassword:               getEnv("REDIS_PASSWORD", ""),
		RedisChannel:                getEnv("REDIS_CHANNEL", "slack-commands"),
		RedisReactionChannel:        getEnv("REDIS_REACTION_CHANNEL", "slack-relay-reaction-added"),
		RedisReactionRemovedChannel: getEnv("REDIS_REACTION_REMOVED_CHANNEL", "slack-relay-reaction-removed"),
		LogLevel:                    getEnv("LOG_LEVEL", "INFO"),
		LogFormat:                   getEnv("LOG_FORMAT", "console"),
	}
}

// validate reports the first setting that prevents the service from starting.
func (c Config) validate() error {
	if c.SlackBotToken == "" {
		return errors.New("SLACK_BOT_TOKEN is required")
	}
	if c.SlackSigningSecret == "" {
		return errors.New("SLACK_SIGNING_SECRET is required")
	}
	if c.DeletionDelay <= 0 {
		return errors.New("DELETION_DELAY must be positive")
	}
	if c.HistoryLimit <= 0 || c.RepliesLimit <= 0 {
		return errors.New("HISTORY_LIMIT and REPLIES_LIMIT must be positive")
	}
	return nil
}

// getEnvAsDuration accepts either a bare number of seconds or a Go duration string.
func getEnvAsDuration(key, defaultValue string) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		val = defaultValue
	}
	if i, err := strconv.Atoi(val); err == nil {
		return time.Duration(i) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	Warn("Unable to parse %s=%q as seconds or duration; defaulting to 0", key, val)
	return 0
}

func getEnvAsInt(key, defaultValue string) int {
	val := os.Getenv(key)
	if val == "" {
		val = defaultValue
	}
	if i, err := strconv.Atoi(val); err == nil {
		return i
	}
	// If parsing fails, try to parse the default value
	if i, err := strconv.Atoi(defaultValue); err == nil {
		Warn("Unable to parse %s=%q as int; using default %d", key, val, i)
		return i
	}
	Warn("Unable to parse %s=%q as int; defaulting to 0", key, val)
	return 0
}

func getEnvAsBool(key, defaultValue string) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		val = defaultValue
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		Warn("Unable to parse %s=%q as bool; using default %s", key, val, defaultValue)
		b, _ = strconv.ParseBool(defaultValue)
	}
	return b
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
