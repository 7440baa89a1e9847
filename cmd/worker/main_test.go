package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"orderledger/pkg/logger"
)

func TestLedgerWorker_RunsJobsUntilCancelled(t *testing.T) {
	var fast, failing, disabled atomic.Int32

	w := NewLedgerWorker(logger.NewNop(), []Job{
		{Name: "fast", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) error {
			fast.Add(1)
			return nil
		}},
		{Name: "failing", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) error {
			failing.Add(1)
			return errors.New("boom")
		}},
		{Name: "disabled", Interval: 0, Run: func(ctx context.Context) error {
			disabled.Add(1)
			return nil
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return fast.Load() >= 3 && failing.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.Zero(t, disabled.Load())
}
