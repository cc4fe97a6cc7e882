package services

import (
	"context"

	"go.uber.org/zap"
)

// step is one stage of an operation. State is owned by a single call, so
// steps communicate only through it.
type step[S any] struct {
	name string
	run  func(ctx context.Context, state S) error
	// when, if set, gates the step on state produced by earlier steps.
	when func(state S) bool
}

// runSteps executes steps in order and stops at the first error.
func runSteps[S any](ctx context.Context, logger *zap.Logger, state S, steps []step[S]) error {
	for _, s := range steps {
		if s.when != nil && !s.when(state) {
			logger.Debug("Skipping step", zap.String("step", s.name))
			continue
		}
		logger.Debug("Running step", zap.String("step", s.name))
		if err := s.run(ctx, state); err != nil {
			return err
		}
	}
	return nil
}
