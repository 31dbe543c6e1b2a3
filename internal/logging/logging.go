package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is a no-op until Init runs.
var Logger = zap.NewNop().Sugar()

// Init builds the process logger. level is one of debug, info, warn, error;
// an empty level means info. jsonOut switches from console to JSON encoding.
func Init(level string, jsonOut bool) error {
	logger, err := New(level, jsonOut)
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

// New builds a logger without touching the package-level one.
func New(level string, jsonOut bool) (*zap.SugaredLogger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	if jsonOut {
		cfg.Encoding = "json"
	}
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: valid levels are debug, info, warn, error", level)
	}
	return lvl, nil
}
