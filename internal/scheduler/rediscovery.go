package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
	"github.com/Checkmk/checkmk-sub072/internal/rules"
)

// Report summarizes one fleet rediscovery.
type Report struct {
	Outcomes []discovery.Outcome
	Hosts    int
	Failed   int
	Clusters int
	Duration time.Duration
}

// Rediscoverer periodically rediscovers every known host. Cluster nodes are
// reconciled per cluster, all other hosts through the fleet runner.
type Rediscoverer struct {
	fleet         *discovery.Fleet
	rules         *rules.Provider
	hosts         []HostLister
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	// mu serializes fleet runs started by the ticker, the trigger and Run
	mu sync.Mutex
}

// NewRediscoverer creates a rediscoverer. An interval <= 0 disables the
// periodic run; manual triggers still work.
func NewRediscoverer(
	fleet *discovery.Fleet,
	provider *rules.Provider,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
	hosts ...HostLister,
) *Rediscoverer {
	return &Rediscoverer{
		fleet:         fleet,
		rules:         provider,
		hosts:         hosts,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic rediscovery. Rules are loaded first; a broken
// rules file fails the start.
func (r *Rediscoverer) Start(ctx context.Context) error {
	if err := r.rules.Reload(); err != nil {
		return fmt.Errorf("initial rules load failed: %w", err)
	}

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		tick = ticker.C
		go func() {
			<-r.stopCh
			ticker.Stop()
		}()
	}

	go func() {
		for {
			select {
			case <-tick:
				r.runLogged(ctx)
			case <-r.manualTrigger:
				r.logger.Info("manual rediscovery triggered")
				if err := r.rules.Reload(); err != nil {
					r.logger.Error("keeping previous rules", logger.Error(err))
				}
				r.runLogged(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the rediscoverer
func (r *Rediscoverer) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

func (r *Rediscoverer) runLogged(ctx context.Context) {
	if _, err := r.Run(ctx); err != nil {
		r.logger.Error("fleet rediscovery failed", logger.Error(err))
	}
}

// Run rediscovers all known hosts once with the configured rediscovery
// parameters. Per-host failures are reported in the outcomes, not returned.
func (r *Rediscoverer) Run(ctx context.Context) (Report, error) {
	hosts, err := knownHosts(r.hosts...)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list hosts: %w", err)
	}
	return r.RunHosts(ctx, hosts, "")
}

// RunHosts rediscovers the given hosts. A cluster node pulls in the other
// nodes of its cluster. An empty mode selects the configured one.
func (r *Rediscoverer) RunHosts(ctx context.Context, hosts []string, mode discovery.Mode) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	current := r.rules.Rules()

	var standalone []string
	clusters := map[string]bool{}
	for _, h := range hosts {
		if cluster, ok := current.ClusterOf(h); ok {
			clusters[cluster] = true
			continue
		}
		standalone = append(standalone, h)
	}

	outcomes, err := r.fleet.Run(ctx, standalone, mode, current.Rediscovery())
	if err != nil {
		return Report{}, err
	}
	report := Report{Outcomes: outcomes}

	for _, cluster := range current.ClusterNames() {
		if !clusters[cluster] {
			continue
		}
		nodes, _ := current.Nodes(cluster)
		report.Clusters++
		results, err := r.fleet.RunCluster(ctx, cluster, nodes, mode, current.Rediscovery())
		if err != nil {
			r.logger.Error("cluster rediscovery failed",
				logger.String("cluster", cluster),
				logger.Error(err))
			for _, node := range nodes {
				report.Outcomes = append(report.Outcomes, discovery.Outcome{Host: node, Err: err})
			}
			continue
		}
		for _, res := range results {
			report.Outcomes = append(report.Outcomes, discovery.Outcome{Host: res.Host, Result: res})
		}
	}

	for _, o := range report.Outcomes {
		if o.Err != nil {
			report.Failed++
		}
	}
	report.Hosts = len(report.Outcomes)
	report.Duration = time.Since(start)

	r.logger.Info("rediscovery completed",
		logger.Int("hosts", report.Hosts),
		logger.Int("clusters", report.Clusters),
		logger.Int("failed", report.Failed),
		logger.Duration("duration", report.Duration))
	return report, nil
}
