package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/filter"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

type memoryRecorder struct {
	mu        sync.Mutex
	summaries map[string]Summary
}

func (r *memoryRecorder) Record(_ context.Context, s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[s.Host] = s
}

type busyLocker struct {
	busy     map[string]bool
	released []string
	mu       sync.Mutex
}

func (l *busyLocker) Acquire(_ context.Context, host string) (func(context.Context) error, error) {
	if l.busy[host] {
		return nil, ErrHostBusy
	}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released = append(l.released, host)
		return nil
	}, nil
}

func TestFleetRunIsolatesHostFailures(t *testing.T) {
	env := newTestEnv(t)
	rec := &memoryRecorder{summaries: map[string]Summary{}}
	fleet := NewFleet(env.engine, nil, rec, 2, logger.New("error", false))

	env.discoverer.set("ok1", candidate("df", domain.NewItem("/"), "{}"))
	env.discoverer.set("ok2", candidate("cpu_loads", nil, "{}"))
	env.discoverer.errs["down"] = errors.New("timeout")

	corrupt := filepath.Join(env.dir, "autochecks", "broken.yaml")
	if err := os.MkdirAll(filepath.Dir(corrupt), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(corrupt, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	hosts := []string{"ok1", "down", "broken", "ok2"}
	outcomes, err := fleet.Run(context.Background(), hosts, ModeFixAll, RediscoveryParams{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outcomes) != len(hosts) {
		t.Fatalf("Run() returned %d outcomes, want %d", len(outcomes), len(hosts))
	}

	for i, o := range outcomes {
		if o.Host != hosts[i] {
			t.Errorf("outcomes[%d].Host = %s, want %s", i, o.Host, hosts[i])
		}
		failed := o.Host == "down" || o.Host == "broken"
		if failed != (o.Err != nil) {
			t.Errorf("%s: err = %v, want failure %v", o.Host, o.Err, failed)
		}
		if !failed && o.Result.Counts.SelfNew != 1 {
			t.Errorf("%s: counts = %+v", o.Host, o.Result.Counts)
		}
	}

	if !errors.Is(outcomes[2].Err, domain.ErrConfiguration) {
		t.Errorf("broken host error = %v, want ErrConfiguration", outcomes[2].Err)
	}
	if s := rec.summaries["down"]; s.Error == "" {
		t.Error("summary of failed host has no error")
	}
	if s := rec.summaries["ok1"]; s.RunID == "" || s.Mode != ModeFixAll {
		t.Errorf("summary of ok1 = %+v", s)
	}
}

func TestFleetRunFailsFastOnInvalidParams(t *testing.T) {
	env := newTestEnv(t)
	fleet := NewFleet(env.engine, nil, nil, 4, logger.New("error", false))

	tests := []struct {
		name   string
		params RediscoveryParams
	}{
		{name: "bad pattern", params: RediscoveryParams{Patterns: filter.Patterns{ServiceWhitelist: []string{"[a"}}}},
		{name: "bad mode", params: RediscoveryParams{Mode: "all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fleet.Run(context.Background(), []string{"h1", "h2"}, "", tt.params)
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("Run() error = %v, want ErrConfiguration", err)
			}
			if env.discoverer.calls != 0 {
				t.Errorf("discoverer called %d times", env.discoverer.calls)
			}
		})
	}
}

func TestFleetUsesConfiguredMode(t *testing.T) {
	env := newTestEnv(t)
	fleet := NewFleet(env.engine, nil, nil, 1, logger.New("error", false))
	env.discoverer.set("h1", candidate("df", domain.NewItem("/"), "{}"))

	res, err := fleet.RunHost(context.Background(), "h1", "", RediscoveryParams{Mode: ModeRemove})
	if err != nil {
		t.Fatalf("RunHost() error = %v", err)
	}
	if res.Mode != ModeRemove || len(res.Services) != 0 {
		t.Errorf("RunHost() mode = %s services = %d, want remove mode adding nothing", res.Mode, len(res.Services))
	}
}

func TestFleetHostBusy(t *testing.T) {
	env := newTestEnv(t)
	locker := &busyLocker{busy: map[string]bool{"locked": true}}
	fleet := NewFleet(env.engine, locker, nil, 1, logger.New("error", false))

	if _, err := fleet.RunHost(context.Background(), "locked", ModeNew, RediscoveryParams{}); !errors.Is(err, ErrHostBusy) {
		t.Errorf("RunHost() error = %v, want ErrHostBusy", err)
	}

	release, err := fleet.acquire(context.Background(), "h1")
	if err != nil {
		t.Fatalf("acquire() error = %v", err)
	}
	if _, err := fleet.RunHost(context.Background(), "h1", ModeNew, RediscoveryParams{}); !errors.Is(err, ErrHostBusy) {
		t.Errorf("RunHost() during a running discovery error = %v, want ErrHostBusy", err)
	}
	release()

	if _, err := fleet.RunHost(context.Background(), "h1", ModeNew, RediscoveryParams{}); err != nil {
		t.Errorf("RunHost() after release error = %v", err)
	}
	if len(locker.released) != 2 {
		t.Errorf("released %v, want h1 twice", locker.released)
	}
}

func TestFleetRunCancelled(t *testing.T) {
	env := newTestEnv(t)
	fleet := NewFleet(env.engine, nil, nil, 1, logger.New("error", false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := fleet.Run(ctx, []string{"h1", "h2"}, ModeNew, RediscoveryParams{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, o := range outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("%s: err = %v, want context.Canceled", o.Host, o.Err)
		}
	}
}
