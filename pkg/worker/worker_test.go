package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vmkteam/embedlog"
)

func TestEnqueueRunsTasks(t *testing.T) {
	p := NewPool(2, 16, embedlog.NewLogger(true, false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		p.Enqueue("test", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	deadline := time.After(2 * time.Second)
	for ran.Load() != 5 {
		select {
		case <-deadline:
			t.Fatalf("ran %d tasks, want 5", ran.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestStopDrainsQueue(t *testing.T) {
	p := NewPool(1, 16, embedlog.NewLogger(true, false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	var ran atomic.Int32
	for i := 0; i < 8; i++ {
		p.Enqueue("slow", func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
			return nil
		})
	}

	cancel()
	<-done

	if got := ran.Load(); got != 8 {
		t.Errorf("ran %d tasks after stop, want 8 (queued work drains)", got)
	}

	// enqueue after stop must not block or panic
	p.Enqueue("late", func(ctx context.Context) error { return nil })
}

func TestFailingTaskIsSwallowed(t *testing.T) {
	p := NewPool(1, 4, embedlog.NewLogger(true, false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	ok := make(chan struct{})
	p.Enqueue("fails", func(ctx context.Context) error { return errors.New("boom") })
	p.Enqueue("after", func(ctx context.Context) error { close(ok); return nil })

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("task after a failing one did not run")
	}

	cancel()
	<-done
}
