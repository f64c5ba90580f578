package main

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sugar stays a no-op until SetLogLevel is called so tests run quietly.
var sugar = zap.NewNop().Sugar()

// SetLogLevel builds the process logger. format "json" selects zap's
// production encoder; anything else uses the human-readable development one.
func SetLogLevel(level string, format string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err.Error())
	}
	sugar = logger.Sugar()
}

func Debug(format string, args ...interface{}) {
	sugar.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	sugar.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	sugar.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	sugar.Errorf(format, args...)
}

// Fatal logs and exits the process.
func Fatal(format string, args ...interface{}) {
	sugar.Fatalf(format, args...)
}

// syncLogger flushes buffered entries; called on shutdown.
func syncLogger() {
	_ = sugar.Sync()
}
