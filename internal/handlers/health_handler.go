package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spendwise/internal/logger"
	"spendwise/internal/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthStatus is the data of a health response.
type HealthStatus struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}

// Health returns a handler reporting liveness and database reachability.
// A nil db reports the database as skipped.
// @Summary     Health check
// @Tags        health
// @Produce     json
// @Success     200 {object} response.Envelope{data=HealthStatus}
// @Failure     503 {object} response.Envelope{data=HealthStatus}
// @Router      /health [get]
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := HealthStatus{Status: "ok", Database: "skipped"}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.Get().Warnw("health check failed", "error", err)
				status = HealthStatus{Status: "degraded", Database: "unreachable"}
				response.Success(c, http.StatusServiceUnavailable, status, "")
				return
			}
			status.Database = "ok"
		}
		response.Success(c, http.StatusOK, status, "")
	}
}
