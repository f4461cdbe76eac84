package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/sentiscope/internal/metrics"
)

const HEALTHCHECK_TIMER = 15

type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// CheckPredictorHealth runs one probe and publishes the result.
func CheckPredictorHealth(ctx context.Context, checker HealthChecker, healthy *atomic.Bool) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	isHealthy := checker.Healthy(probeCtx)
	if was := healthy.Swap(isHealthy); was != isHealthy {
		if isHealthy {
			slog.Info("[HealthCheck] Predictors are healthy")
		} else {
			slog.Warn("[HealthCheck] Predictors are unhealthy")
		}
	}
	metrics.SetReady(isHealthy)
	return isHealthy
}

// MonitorPredictorHealth probes checker immediately and then every interval
// until ctx is done.
func MonitorPredictorHealth(ctx context.Context, checker HealthChecker, healthy *atomic.Bool, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second * HEALTHCHECK_TIMER
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	CheckPredictorHealth(ctx, checker, healthy)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CheckPredictorHealth(ctx, checker, healthy)
		}
	}
}
