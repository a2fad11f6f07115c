package worker

// email_worker.go
// Processes email jobs from QueueEmail. Delivery goes through the SMTP
// circuit breaker: when the relay is down jobs fast-fail into the DLQ
// instead of tying worker goroutines up in connection timeouts.

import (
	"context"
	"encoding/json"
	"errors"

	"shoptill/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// EmailWorker sends closing reports over SMTP.
type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, rdb: rdb}
}

// Process sends one email with the report PDF attached.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	err := w.cb.Execute(func() error {
		return w.mailer.SendReport(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().Str("to", payload.ToEmail).Msg("email_worker: circuit open, parking job")
		} else {
			log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		}
		deadLetter(ctx, w.rdb, QueueEmail, "email", raw, err, 1)
		return
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: report sent")
}
