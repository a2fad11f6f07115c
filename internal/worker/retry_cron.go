package worker

// retry_cron.go
// Background goroutine that periodically re-enqueues closing reports whose
// PDF never rendered (crash between snapshot commit and render, or a job
// that exhausted its retries into the DLQ).

import (
	"context"
	"time"

	"shoptill/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 60 * time.Second
	retryBatchSize    = 10
)

// StartRetryCron launches a background goroutine that ticks every minute,
// queries closings without a PDF, and re-enqueues their render jobs.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, closingRepo repository.ClosingRepository, dispatcher *Dispatcher) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, closingRepo, dispatcher)
			}
		}
	}()
}

func processRetries(ctx context.Context, closingRepo repository.ClosingRepository, dispatcher *Dispatcher) {
	pending, err := closingRepo.ListPendingPDFs(ctx, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending closings")
		return
	}
	if len(pending) == 0 {
		return
	}

	// Skip very fresh snapshots — their first job is likely still in flight.
	cutoff := time.Now().Add(-2 * time.Minute)
	requeued := 0
	for i := range pending {
		c := &pending[i]
		if c.CreatedAt.After(cutoff) {
			continue
		}
		if err := dispatcher.EnqueueClosingReport(ctx, ClosingReportJob{ClosingID: c.ID.String()}); err != nil {
			log.Error().Err(err).Str("closing_id", c.ID.String()).Msg("retry_cron: failed to re-enqueue")
			continue
		}
		requeued++
	}
	if requeued > 0 {
		log.Info().Int("count", requeued).Msg("retry_cron: re-enqueued pending closing reports")
	}
}
