package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// defaultRollbackTimeout bounds how long compensations may run after a
// saga step fails.
const defaultRollbackTimeout = 15 * time.Second

// sagaStep is one forward action with an optional compensating action.
// The compensation runs only when a later step fails.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga executes steps in order. On the first failure it runs the
// compensations of every completed step in reverse order, then returns the
// original error. Compensations run on a context detached from the
// caller's cancellation: a client hanging up mid-saga must not leave
// half-registered external state behind.
type saga struct {
	logger          *zap.Logger
	rollbackTimeout time.Duration
	steps           []sagaStep
}

func newSaga(logger *zap.Logger, rollbackTimeout time.Duration) *saga {
	if rollbackTimeout <= 0 {
		rollbackTimeout = defaultRollbackTimeout
	}
	return &saga{logger: logger, rollbackTimeout: rollbackTimeout}
}

func (s *saga) add(name string, run, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, sagaStep{name: name, run: run, compensate: compensate})
}

func (s *saga) execute(ctx context.Context) error {
	var completed []sagaStep
	for _, step := range s.steps {
		if err := step.run(ctx); err != nil {
			s.logger.Warn("saga step failed, rolling back",
				zap.String("step", step.name),
				zap.Int("completed_steps", len(completed)),
				zap.Error(err),
			)
			s.rollback(ctx, completed)
			return err
		}
		completed = append(completed, step)
	}
	return nil
}

// rollback runs compensations newest-first. Failures are logged and never
// override the error that triggered the rollback.
func (s *saga) rollback(ctx context.Context, completed []sagaStep) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rollbackTimeout)
	defer cancel()

	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(cleanupCtx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("step", step.name),
				zap.Error(err),
			)
		}
	}
}
