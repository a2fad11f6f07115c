package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that exhaust their retries are parked on a per-queue Redis list so an
// operator can inspect and replay them. Nothing in the request path reads
// these lists; the health endpoint only reports their length.
const deadLetterPrefix = "dlq:"

type deadLetterRecord struct {
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type"`
	Payload  json.RawMessage `json:"payload"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

// deadLetter parks a job that is out of retries. A failure to park is logged
// and swallowed: the job is already lost to its queue, and the worker loop
// must keep draining.
func deadLetter(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, cause error, attempts int) {
	rec := deadLetterRecord{
		Queue:    queue,
		JobType:  jobType,
		Payload:  payload,
		Error:    cause.Error(),
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("could not encode dead-letter record")
		return
	}
	if err := rdb.LPush(ctx, deadLetterPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("could not park job on dead-letter list")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Int("attempts", attempts).
		Err(cause).
		Msg("job parked on dead-letter list")
}

// DeadLetterCount reports how many jobs are parked for a queue.
func DeadLetterCount(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, deadLetterPrefix+queue).Result()
}
