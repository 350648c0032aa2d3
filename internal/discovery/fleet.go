package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// ErrHostBusy is returned when a run for the host is already in progress.
var ErrHostBusy = errors.New("discovery already running for host")

// Locker serializes runs for a host across processes. Acquire returns
// ErrHostBusy when another holder owns the lock.
type Locker interface {
	Acquire(ctx context.Context, host string) (release func(context.Context) error, err error)
}

// Recorder receives the summary of every finished run.
type Recorder interface {
	Record(ctx context.Context, s Summary)
}

// Recorders fans a summary out to several recorders.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, s Summary) {
	for _, r := range rs {
		if r != nil {
			r.Record(ctx, s)
		}
	}
}

// Summary is the last known outcome for a host.
type Summary struct {
	Host   string    `json:"host"`
	RunID  string    `json:"run_id,omitempty"`
	Mode   Mode      `json:"mode"`
	Counts Counts    `json:"counts"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}

// Outcome is the per-host result of a fleet run. Exactly one of Result and
// Err is set.
type Outcome struct {
	Host   string
	Result *Result
	Err    error
}

// Fleet runs the engine over many hosts. A failing host does not affect the
// others.
type Fleet struct {
	engine   *Engine
	locker   Locker
	recorder Recorder
	workers  int
	log      logger.Logger

	runningMu sync.Mutex
	running   map[string]bool
}

// NewFleet creates a fleet runner. locker and recorder may be nil.
func NewFleet(engine *Engine, locker Locker, recorder Recorder, workers int, log logger.Logger) *Fleet {
	if workers < 1 {
		workers = 1
	}
	return &Fleet{
		engine:   engine,
		locker:   locker,
		recorder: recorder,
		workers:  workers,
		log:      log,
		running:  make(map[string]bool),
	}
}

// Engine returns the engine used by the fleet.
func (f *Fleet) Engine() *Engine { return f.engine }

// Run reconciles hosts in parallel. Filters are compiled once up front; an
// invalid pattern fails the whole run before any host is touched. Outcomes
// are returned in the order of hosts.
func (f *Fleet) Run(ctx context.Context, hosts []string, mode Mode, params RediscoveryParams) ([]Outcome, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	filters, err := f.engine.Filters(params)
	if err != nil {
		return nil, err
	}
	mode = params.EffectiveMode(mode)

	start := time.Now()
	outcomes := make([]Outcome, len(hosts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, host := range hosts {
		g.Go(func() error {
			outcomes[i] = Outcome{Host: host}
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			res, err := f.runHost(gctx, host, func(ctx context.Context) (*Result, error) {
				return f.engine.ReconcileWithFilters(ctx, host, mode, filters)
			})
			outcomes[i].Result, outcomes[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	f.log.Info("fleet discovery finished",
		logger.String("mode", string(mode)),
		logger.Int("hosts", len(hosts)),
		logger.Int("failed", failed),
		logger.Duration("duration", time.Since(start)),
	)
	return outcomes, nil
}

// RunHost reconciles a single host with the same guards as Run.
func (f *Fleet) RunHost(ctx context.Context, host string, mode Mode, params RediscoveryParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	mode = params.EffectiveMode(mode)
	return f.runHost(ctx, host, func(ctx context.Context) (*Result, error) {
		return f.engine.Reconcile(ctx, host, mode, params)
	})
}

// RunCluster reconciles the nodes of a cluster with mode and the filters of
// params. Every node is guarded as if it was reconciled on its own.
func (f *Fleet) RunCluster(ctx context.Context, cluster string, nodes []string, mode Mode, params RediscoveryParams) ([]*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	filters, err := f.engine.Filters(params)
	if err != nil {
		return nil, err
	}
	mode = params.EffectiveMode(mode)

	var releases []func()
	defer func() {
		for _, release := range releases {
			release()
		}
	}()

	for _, node := range nodes {
		release, err := f.acquire(ctx, node)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}

	results, err := f.engine.ReconcileCluster(ctx, cluster, nodes, mode, filters)
	for _, res := range results {
		f.record(ctx, res.Host, res, nil)
	}
	if err != nil {
		for _, node := range nodes {
			f.record(ctx, node, nil, err)
		}
	}
	return results, err
}

// Exclusive runs fn while holding the guard of host, so fn never overlaps a
// reconciliation of that host.
func (f *Fleet) Exclusive(ctx context.Context, host string, fn func() error) error {
	release, err := f.acquire(ctx, host)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (f *Fleet) runHost(ctx context.Context, host string, run func(context.Context) (*Result, error)) (*Result, error) {
	release, err := f.acquire(ctx, host)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := run(ctx)
	if err != nil {
		f.log.Error("discovery failed", logger.String("host", host), logger.Error(err))
	}
	f.record(ctx, host, res, err)
	return res, err
}

// acquire marks host as running in this process and, when a locker is
// configured, takes the shared lock.
func (f *Fleet) acquire(ctx context.Context, host string) (func(), error) {
	f.runningMu.Lock()
	if f.running[host] {
		f.runningMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrHostBusy, host)
	}
	f.running[host] = true
	f.runningMu.Unlock()

	unmark := func() {
		f.runningMu.Lock()
		delete(f.running, host)
		f.runningMu.Unlock()
	}

	if f.locker == nil {
		return unmark, nil
	}

	unlock, err := f.locker.Acquire(ctx, host)
	if err != nil {
		unmark()
		return nil, err
	}
	return func() {
		// the run context may already be cancelled
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			f.log.Warn("failed to release host lock", logger.String("host", host), logger.Error(err))
		}
		unmark()
	}, nil
}

func (f *Fleet) record(ctx context.Context, host string, res *Result, err error) {
	if f.recorder == nil {
		return
	}
	s := Summary{Host: host, At: time.Now()}
	if res != nil {
		s.RunID = res.RunID
		s.Mode = res.Mode
		s.Counts = res.Counts
	}
	if err != nil {
		s.Error = err.Error()
	}
	f.recorder.Record(ctx, s)
}
