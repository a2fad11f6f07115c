package handler

import (
	"context"
	"net/http"
	"time"

	"shoptill/internal/infra"
	"shoptill/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the SMTP breaker state;
// never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		// Parked jobs don't fail the check; they flag work stuck past retries.
		var parked int64
		if redisStatus == "connected" {
			for _, q := range []string{worker.QueueClosingReport, worker.QueueEmail} {
				if n, err := worker.DeadLetterCount(ctx, rdb, q); err == nil {
					parked += n
				}
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":          status == http.StatusOK,
			"db":          dbStatus,
			"redis":       redisStatus,
			"smtp":        smtpCB.State().String(),
			"parked_jobs": parked,
		})
	}
}
