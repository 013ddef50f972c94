package observability

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

const msgUnreachable = "unreachable"

// HealthChecker reports the state of the database and the optional revocation store.
type HealthChecker struct {
	db     *sql.DB
	cache  Pinger
	logger *logrus.Logger
}

// NewHealthChecker builds a checker. cache is nil for the in-memory revocation store.
func NewHealthChecker(db *sql.DB, cache Pinger, logger *logrus.Logger) *HealthChecker {
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthChecker{db: db, cache: cache, logger: logger}
}

type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

type DependencyStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Check pings every configured dependency. Authentication cannot work without the
// revocation store, so a failing cache is as unhealthy as a failing database.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Dependencies: make(map[string]DependencyStatus),
	}

	if h.db != nil {
		dep := h.checkDependency(ctx, "database", h.db.PingContext)
		status.Dependencies["database"] = dep
		if dep.Status == StatusUnhealthy {
			status.Status = StatusUnhealthy
		}
	}

	if h.cache != nil {
		dep := h.checkDependency(ctx, "revocation", h.cache.Ping)
		status.Dependencies["revocation"] = dep
		if dep.Status == StatusUnhealthy {
			status.Status = StatusUnhealthy
		}
	}

	return status
}

func (h *HealthChecker) checkDependency(ctx context.Context, name string, ping func(context.Context) error) DependencyStatus {
	start := time.Now()
	err := ping(ctx)
	dep := DependencyStatus{
		Status:    StatusHealthy,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		h.logger.WithError(err).WithField("dependency", name).Error("health check failed")
		dep.Status = StatusUnhealthy
		dep.Message = msgUnreachable
	}
	return dep
}

// Handler responds 503 when unhealthy and 200 otherwise.
func (h *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := h.Check(ctx)
		code := http.StatusOK
		if status.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
