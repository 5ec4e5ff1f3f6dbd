package utils

import (
	"log"

	"lockbox/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process logger. Subsystems take a named child from
// ServiceLogger so each line says whether booking, payment or a sweep wrote it.
var Logger *zap.Logger

// InitializeLogger builds the lockbox logger from ENV and LOG_LEVEL.
func InitializeLogger() {
	Logger = buildLogger(config.IsProduction(), config.AppConfig.LogLevel)
	zap.ReplaceGlobals(Logger)
}

func buildLogger(production bool, level string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if production {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if lvl, err := zapcore.ParseLevel(level); level != "" && err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build(zap.Fields(
		zap.String("app", "lockbox"),
		zap.String("env", config.GetEnv()),
	))
	if err != nil {
		log.Fatalf("lockbox: cannot build logger: %v", err)
	}
	return logger
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}

// ServiceLogger returns the logger for one subsystem: booking, payment,
// notification, lifecycle, chat or events.
func ServiceLogger(name string) *zap.Logger {
	return GetLogger().Named(name)
}
