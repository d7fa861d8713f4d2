// AngelaMos | 2026
// worker_test.go

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestEveryRunsUntilCanceled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Every(ctx, quiet, Task{
			Name:     "count",
			Interval: time.Millisecond,
			Run: func(context.Context) error {
				if calls.Add(1) == 2 {
					return errors.New("transient")
				}
				return nil
			},
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestEveryDisabledInterval(t *testing.T) {
	called := false
	Every(context.Background(), quiet, Task{
		Name: "off",
		Run:  func(context.Context) error { called = true; return nil },
	})
	assert.False(t, called)
}
