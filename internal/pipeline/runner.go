package pipeline

import (
	"context"

	"github.com/rs/zerolog"
)

// Runner dispatches a created job for execution. The submission path
// depends on this interface only, so tests run jobs synchronously while
// production fires them off in the background.
type Runner interface {
	Dispatch(articleID string)
}

// GoRunner executes each job on its own goroutine, fire-and-forget: the
// HTTP submission path returns as soon as the record exists. Suitable
// for a single-node deployment; a separate worker process covers the
// multi-node case.
type GoRunner struct {
	pipeline *Pipeline
	logger   zerolog.Logger
}

func NewGoRunner(p *Pipeline, logger zerolog.Logger) *GoRunner {
	return &GoRunner{pipeline: p, logger: logger}
}

func (r *GoRunner) Dispatch(articleID string) {
	go func() {
		if err := r.pipeline.Run(context.Background(), articleID); err != nil {
			r.logger.Error().Err(err).Str("article_id", articleID).Msg("runner: job ended in failure")
		}
	}()
}

// NoopRunner leaves accepted jobs PENDING for a worker process to claim.
type NoopRunner struct{}

func (NoopRunner) Dispatch(string) {}

// SyncRunner runs the job inline. Used in tests.
type SyncRunner struct {
	Pipeline *Pipeline
}

func (r *SyncRunner) Dispatch(articleID string) {
	_ = r.Pipeline.Run(context.Background(), articleID)
}
