package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/informe-labs/informe/pkg/lifecycle"
)

func TestReadyAfterStartup(t *testing.T) {
	lc := lifecycle.New()

	var started atomic.Bool
	lc.OnStartup(func() {
		started.Store(true)
	})

	if lc.Ready() {
		t.Fatal("ready before startup completed")
	}

	lc.WaitForStartup()

	if !started.Load() {
		t.Error("startup hook did not run")
	}
	if !lc.Ready() {
		t.Error("not ready after startup")
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
		t.Fatalf("Shutdown: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not run")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	lc.OnShutdown(func() {
		<-release
	})

	if err := lc.Shutdown(10 * time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
	close(release)
}

func TestContextCancelledOnShutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.Shutdown(time.Second)

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context not cancelled after shutdown")
	}
}
