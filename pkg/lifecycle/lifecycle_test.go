package lifecycle_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prismhq/prism/pkg/lifecycle"
)

func TestStartupHooks(t *testing.T) {
	lc := lifecycle.New()

	var ran atomic.Int32
	lc.OnStartup(func() { ran.Add(1) })
	lc.OnStartup(func() { ran.Add(1) })

	if lc.Ready() {
		t.Error("Ready() = true before WaitForStartup")
	}

	lc.WaitForStartup()

	if got := ran.Load(); got != 2 {
		t.Errorf("startup hooks ran %d times, want 2", got)
	}
	if !lc.Ready() {
		t.Error("Ready() = false after WaitForStartup")
	}
}

func TestShutdownRunsHooks(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not run")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-release
	})

	err := lc.Shutdown(50 * time.Millisecond)
	close(release)

	if err == nil {
		t.Error("Shutdown should time out when a hook hangs")
	}
}

func TestBackgroundWaitedOnShutdown(t *testing.T) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var finished atomic.Bool
	lc.Background("ticker", logger, func(ctx context.Context) error {
		<-ctx.Done()
		finished.Store(true)
		return ctx.Err()
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !finished.Load() {
		t.Error("background task was not waited on")
	}
}
