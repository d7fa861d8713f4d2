// AngelaMos | 2026
// worker.go

package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var runs = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nexusai_worker_runs_total",
	Help: "Periodic task executions by task and result.",
}, []string{"task", "result"})

// Task is a named unit of periodic maintenance.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Every runs task on its interval until ctx is done. A failed run is logged
// and retried on the next tick.
func Every(ctx context.Context, logger *slog.Logger, task Task) {
	if task.Interval <= 0 {
		logger.Warn("worker disabled, non-positive interval", "task", task.Name)
		return
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	logger.Info("worker started", "task", task.Name, "interval", task.Interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped", "task", task.Name)
			return
		case <-ticker.C:
			runOnce(ctx, logger, task)
		}
	}
}

func runOnce(ctx context.Context, logger *slog.Logger, task Task) {
	start := time.Now()
	if err := task.Run(ctx); err != nil {
		runs.WithLabelValues(task.Name, "error").Inc()
		logger.Error("worker run failed", "task", task.Name, "error", err)
		return
	}
	runs.WithLabelValues(task.Name, "ok").Inc()
	logger.Debug("worker run finished", "task", task.Name, "took", time.Since(start))
}
