package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a sugared zap logger for the given environment
func New(env string) (*zap.SugaredLogger, error) {
	l, err := setLogger(env)
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Must is New for main packages; it falls back to a no-op logger
func Must(env string) *zap.SugaredLogger {
	l, err := New(env)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l
}

// ReplaceGlobals installs the logger behind zap.S() and zap.L()
func ReplaceGlobals(l *zap.SugaredLogger) func() {
	return zap.ReplaceGlobals(l.Desugar())
}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	case "local":
		return zap.NewExample(), nil
	}
	return nil, fmt.Errorf("unknown logging env %q", env)
}
