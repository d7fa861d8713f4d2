// AngelaMos | 2026
// poller.go

package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/nexusai/internal/config"
)

var (
	ErrPollDeadline = errors.New("video generation deadline exceeded")
	ErrPollAttempts = errors.New("video generation poll attempts exhausted")
	ErrVideoFailed  = errors.New("video generation failed")
)

// Poller waits for a long-running video operation on a fixed interval,
// bounded by a deadline and an attempt count.
type Poller struct {
	model       VideoModel
	interval    time.Duration
	deadline    time.Duration
	maxAttempts int
}

func NewPoller(model VideoModel, cfg config.VideoConfig) *Poller {
	return &Poller{
		model:       model,
		interval:    cfg.PollInterval,
		deadline:    cfg.Deadline,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Wait returns the finished operation. Cancelling ctx stops the poll with
// ctx.Err().
func (p *Poller) Wait(ctx context.Context, op Operation) (Operation, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempts := 0; !op.Done; {
		if attempts >= p.maxAttempts {
			return op, fmt.Errorf("%s: %w", op.Name, ErrPollAttempts)
		}

		select {
		case <-pollCtx.Done():
			return op, p.stopErr(ctx, op)
		case <-timer.C:
		}

		attempts++
		next, err := p.model.CheckVideo(pollCtx, op.Name)
		if err != nil {
			if pollCtx.Err() != nil {
				return op, p.stopErr(ctx, op)
			}
			return op, err
		}
		op = next
		timer.Reset(p.interval)
	}

	if op.Error != "" {
		return op, fmt.Errorf("%w: %s", ErrVideoFailed, op.Error)
	}
	if op.VideoURI == "" {
		return op, fmt.Errorf("%w: no video in response", ErrVideoFailed)
	}
	return op, nil
}

func (p *Poller) stopErr(parent context.Context, op Operation) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op.Name, ErrPollDeadline)
}
