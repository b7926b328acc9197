// Package logging builds the shared zap logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates the root logger for the given environment. Local and test
// environments get the human-readable development encoder; everything else
// gets production JSON.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "local", "test":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}
