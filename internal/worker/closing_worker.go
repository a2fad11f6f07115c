package worker

// closing_worker.go
// Processes report-rendering jobs from QueueClosingReport.
// Renders the closing snapshot to PDF with exponential backoff (max 3
// attempts), records the path, then enqueues the email delivery job.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shoptill/internal/infra"
	"shoptill/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ClosingReportJob is the job envelope sent to QueueClosingReport.
type ClosingReportJob struct {
	ClosingID string `json:"closing_id"`
}

// ClosingReportWorker renders closing report PDFs and hands delivery to the
// email queue.
type ClosingReportWorker struct {
	closingRepo    repository.ClosingRepository
	dispatcher     *Dispatcher
	rdb            *redis.Client
	pdfStoragePath string
	reportEmail    string
}

func NewClosingReportWorker(
	closingRepo repository.ClosingRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	pdfStoragePath string,
	reportEmail string,
) *ClosingReportWorker {
	return &ClosingReportWorker{
		closingRepo:    closingRepo,
		dispatcher:     dispatcher,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
		reportEmail:    reportEmail,
	}
}

// Process handles a single closing report job:
//  1. Parse ClosingReportJob from the envelope
//  2. Load the closing snapshot with its method totals
//  3. Render the PDF with exponential backoff (max 3 attempts)
//  4. Record the PDF path on the snapshot
//  5. Enqueue the email delivery job for the back office
func (w *ClosingReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ClosingReportJob
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("closing_worker: invalid payload")
		return
	}

	closingID, err := uuid.Parse(payload.ClosingID)
	if err != nil {
		log.Error().Str("closing_id", payload.ClosingID).Msg("closing_worker: invalid closing_id")
		return
	}

	closing, err := w.closingRepo.FindByID(ctx, closingID)
	if err != nil {
		log.Error().Err(err).Str("closing_id", payload.ClosingID).Msg("closing_worker: closing not found")
		return
	}

	var pdfPath string
	renderErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateClosingPDF(closing, w.pdfStoragePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("closing_id", payload.ClosingID).
				Msg("closing_worker: render attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if renderErr != nil {
		log.Error().Err(renderErr).Str("closing_id", payload.ClosingID).Msg("closing_worker: render failed after all retries")
		deadLetter(ctx, w.rdb, QueueClosingReport, "closing_report", raw, renderErr, 3)
		return
	}

	if err := w.closingRepo.UpdatePDFPath(ctx, closingID, pdfPath); err != nil {
		log.Error().Err(err).Str("closing_id", payload.ClosingID).Msg("closing_worker: failed to record pdf path")
	}
	log.Info().Str("pdf", pdfPath).Str("closing_id", payload.ClosingID).Msg("closing_worker: report rendered")

	if w.reportEmail == "" {
		return
	}
	emailJob := EmailJobPayload{
		ToEmail: w.reportEmail,
		Subject: fmt.Sprintf("Shift closing — register %s, %s", closing.RegisterID, closing.ClosedAt.Format("02/01/2006")),
		Body: fmt.Sprintf(
			"Shift %s closed.\nSales: $%s\nReturns: $%s\nNet: $%s\nDrawer: $%s → $%s",
			closing.ShiftID,
			closing.TotalSales.StringFixed(2),
			closing.TotalReturns.StringFixed(2),
			closing.TotalNet.StringFixed(2),
			closing.InitialAmount.StringFixed(2),
			closing.FinalAmount.StringFixed(2),
		),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("closing_id", payload.ClosingID).Msg("closing_worker: failed to enqueue email")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
