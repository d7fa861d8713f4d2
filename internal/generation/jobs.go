// AngelaMos | 2026
// jobs.go

package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/nexusai/internal/core"
	"github.com/carterperez-dev/nexusai/internal/media"
	"github.com/carterperez-dev/nexusai/internal/metrics"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

// JobView is the client facing snapshot of a video job.
type JobView struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type job struct {
	view       JobView
	userID     string
	cancel     context.CancelFunc
	finishedAt time.Time
}

// VideoJobs tracks background polls. Each job owns a cancel func so a
// client leaving the tool can stop its poll.
type VideoJobs struct {
	mu        sync.Mutex
	jobs      map[string]*job
	poller    *Poller
	model     VideoModel
	store     media.Store
	retention time.Duration
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewVideoJobs(
	poller *Poller,
	model VideoModel,
	store media.Store,
	retention time.Duration,
	logger *slog.Logger,
) *VideoJobs {
	return &VideoJobs{
		jobs:      make(map[string]*job),
		poller:    poller,
		model:     model,
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

// Start tracks op for userID and polls it in the background.
func (j *VideoJobs) Start(userID string, op Operation) JobView {
	ctx, cancel := context.WithCancel(context.Background())

	jb := &job{
		view: JobView{
			ID:        uuid.New().String(),
			Status:    JobRunning,
			CreatedAt: time.Now(),
		},
		userID: userID,
		cancel: cancel,
	}

	j.mu.Lock()
	j.jobs[jb.view.ID] = jb
	view := jb.view
	j.mu.Unlock()

	metrics.VideoJobsActive.Inc()
	j.wg.Add(1)
	go j.run(ctx, view.ID, op)

	return view
}

func (j *VideoJobs) run(ctx context.Context, id string, op Operation) {
	defer j.wg.Done()
	defer metrics.VideoJobsActive.Dec()
	start := time.Now()

	url, err := j.complete(ctx, op)
	metrics.VideoPollDuration.Observe(time.Since(start).Seconds())

	j.mu.Lock()
	defer j.mu.Unlock()

	jb, ok := j.jobs[id]
	if !ok {
		return
	}
	jb.cancel()
	jb.finishedAt = time.Now()

	switch {
	case err == nil:
		jb.view.Status = JobSucceeded
		jb.view.URL = url
	case errors.Is(err, context.Canceled):
		jb.view.Status = JobCanceled
	default:
		jb.view.Status = JobFailed
		jb.view.Error = clientMessage(err)
		j.logger.Warn("video job failed", "job_id", id, "error", err)
	}
}

func (j *VideoJobs) complete(ctx context.Context, op Operation) (string, error) {
	done, err := j.poller.Wait(ctx, op)
	if err != nil {
		return "", err
	}

	data, contentType, err := j.model.Download(ctx, done.VideoURI)
	if err != nil {
		return "", err
	}

	url, err := j.store.Put(ctx, media.NewKey("videos", contentType), contentType, data)
	if err != nil {
		return "", fmt.Errorf("store video: %w", err)
	}
	return url, nil
}

func clientMessage(err error) string {
	switch {
	case errors.Is(err, ErrPollDeadline), errors.Is(err, ErrPollAttempts):
		return "video generation timed out"
	default:
		return "video generation failed"
	}
}

func (j *VideoJobs) lookup(id, userID string) (*job, error) {
	jb, ok := j.jobs[id]
	if !ok || jb.userID != userID {
		return nil, fmt.Errorf("video job %s: %w", id, core.ErrNotFound)
	}
	return jb, nil
}

func (j *VideoJobs) Get(id, userID string) (JobView, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	jb, err := j.lookup(id, userID)
	if err != nil {
		return JobView{}, err
	}
	return jb.view, nil
}

// Cancel aborts a running job. Finished jobs are left as they are.
func (j *VideoJobs) Cancel(id, userID string) (JobView, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	jb, err := j.lookup(id, userID)
	if err != nil {
		return JobView{}, err
	}
	if jb.view.Status == JobRunning {
		jb.cancel()
	}
	return jb.view, nil
}

// Prune drops finished jobs older than the retention window.
func (j *VideoJobs) Prune(now time.Time) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	removed := 0
	for id, jb := range j.jobs {
		if jb.view.Status != JobRunning && now.Sub(jb.finishedAt) > j.retention {
			delete(j.jobs, id)
			removed++
		}
	}
	return removed
}

// Run prunes on an interval until ctx is done.
func (j *VideoJobs) Run(ctx context.Context) {
	interval := j.retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := j.Prune(now); n > 0 {
				j.logger.Debug("pruned video jobs", "count", n)
			}
		}
	}
}

// Shutdown cancels every running job and waits for the goroutines or ctx.
func (j *VideoJobs) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	for _, jb := range j.jobs {
		jb.cancel()
	}
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
