// Package discovery reconciles freshly discovered services and host labels
// with the ones persisted by earlier runs.
package discovery

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/filter"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// Candidate is one service found by a check plugin's discovery function,
// together with the host labels the plugin produced.
type Candidate struct {
	CheckPluginName string
	Item            *string
	Description     string
	Parameters      domain.Parameters
	HostLabels      *domain.HostLabels
	ServiceLabels   *domain.ServiceLabels
}

// Discoverer runs discovery for a host.
type Discoverer interface {
	Discover(ctx context.Context, host string) ([]Candidate, error)
}

// AutocheckStore loads and saves the persisted services of a host.
type AutocheckStore interface {
	Load(host string) ([]domain.Service, error)
	Save(host string, services []domain.Service) error
}

// HostLabelStore loads and saves the persisted host labels of a host.
type HostLabelStore interface {
	Load(host string) (*domain.HostLabels, error)
	Save(host string, labels *domain.HostLabels) error
}

// Counts summarizes the changes of one run. Services of cluster nodes are not
// counted here.
type Counts struct {
	SelfNew             int `json:"self_new"`
	SelfKept            int `json:"self_kept"`
	SelfRemoved         int `json:"self_removed"`
	SelfNewHostLabels   int `json:"self_new_host_labels"`
	SelfTotalHostLabels int `json:"self_total_host_labels"`
}

// Result is the outcome of reconciling one host.
type Result struct {
	RunID      string
	Host       string
	Mode       Mode
	Services   []domain.Service
	HostLabels *domain.HostLabels
	Counts     Counts
}

// Engine reconciles one host at a time. It holds no per-host state and does
// no locking; runs for the same host must be serialized by the caller.
type Engine struct {
	discoverer Discoverer
	renderer   domain.DescriptionRenderer
	resolver   domain.ParameterResolver
	autochecks AutocheckStore
	hostLabels HostLabelStore
	log        logger.Logger
}

// NewEngine creates an engine. hostLabels may be nil to skip host label
// persistence.
func NewEngine(
	discoverer Discoverer,
	renderer domain.DescriptionRenderer,
	resolver domain.ParameterResolver,
	autochecks AutocheckStore,
	hostLabels HostLabelStore,
	log logger.Logger,
) *Engine {
	return &Engine{
		discoverer: discoverer,
		renderer:   renderer,
		resolver:   resolver,
		autochecks: autochecks,
		hostLabels: hostLabels,
		log:        log,
	}
}

// Filters compiles the service filters of params.
func (e *Engine) Filters(params RediscoveryParams) (filter.Set, error) {
	return filter.CompileSet(e.renderer, params.Patterns)
}

// Reconcile discovers host and rewrites its autochecks according to mode.
// Invalid patterns in params fail before anything is read.
func (e *Engine) Reconcile(ctx context.Context, host string, mode Mode, params RediscoveryParams) (*Result, error) {
	filters, err := e.Filters(params)
	if err != nil {
		return nil, err
	}
	return e.ReconcileWithFilters(ctx, host, mode, filters)
}

// ReconcileWithFilters is Reconcile with precompiled filters.
func (e *Engine) ReconcileWithFilters(ctx context.Context, host string, mode Mode, filters filter.Set) (*Result, error) {
	if mode == "" {
		mode = ModeRefresh
	}
	runID := uuid.NewString()

	persisted, err := e.autochecks.Load(host)
	if err != nil {
		return nil, err
	}

	discovered, discoveredLabels, err := e.discover(ctx, host)
	if err != nil {
		return nil, err
	}

	if len(discovered) == 0 && len(persisted) > 0 {
		e.log.Warn("discovery returned no services for a host with autochecks",
			logger.String("host", host),
			logger.String("run_id", runID),
			logger.String("mode", string(mode)),
			logger.Int("persisted", len(persisted)),
		)
	}

	table := BuildTable(discovered, persisted)
	services, counts := apply(host, table, mode, filters)

	result := &Result{
		RunID:    runID,
		Host:     host,
		Mode:     mode,
		Services: services,
		Counts:   counts,
	}

	if e.hostLabels != nil {
		labels, newLabels, err := e.reconcileHostLabels(host, mode, discoveredLabels)
		if err != nil {
			return nil, err
		}
		result.HostLabels = labels
		result.Counts.SelfNewHostLabels = newLabels
		result.Counts.SelfTotalHostLabels = labels.Len()
	}

	if err := e.save(result); err != nil {
		return nil, err
	}

	e.log.Info("discovery reconciled",
		logger.String("host", host),
		logger.String("run_id", runID),
		logger.String("mode", string(mode)),
		logger.Int("new", counts.SelfNew),
		logger.Int("kept", counts.SelfKept),
		logger.Int("removed", counts.SelfRemoved),
		logger.Int("new_host_labels", result.Counts.SelfNewHostLabels),
	)
	return result, nil
}

// save writes the host labels of res before its autochecks. A failed
// autochecks write leaves the new labels in place; rerunning the same
// discovery rewrites them unchanged.
func (e *Engine) save(res *Result) error {
	if e.hostLabels != nil {
		if err := e.hostLabels.Save(res.Host, res.HostLabels); err != nil {
			return fmt.Errorf("failed to save host labels of %s: %w", res.Host, err)
		}
	}
	if err := e.autochecks.Save(res.Host, res.Services); err != nil {
		return fmt.Errorf("failed to save autochecks of %s: %w", res.Host, err)
	}
	return nil
}

// apply selects the services to persist. New services are admitted and
// vanished ones dropped only when mode allows it and the respective filter
// matches the rendered description.
func apply(host string, table ServiceTable, mode Mode, filters filter.Set) ([]domain.Service, Counts) {
	var (
		counts   Counts
		services []domain.Service
	)

	for _, row := range table.Rows() {
		s := row.Service
		switch row.Status {
		case StatusNew:
			if mode.addsNew() && filters.New.Match(host, s.CheckPluginName, s.Item) {
				services = append(services, s)
				counts.SelfNew++
			}
		case StatusVanished:
			if mode.removesVanished() && filters.Vanished.Match(host, s.CheckPluginName, s.Item) {
				counts.SelfRemoved++
				continue
			}
			services = append(services, s)
			counts.SelfKept++
		default:
			services = append(services, s)
			counts.SelfKept++
		}
	}
	return services, counts
}

// discover runs the discoverer and converts its candidates. Duplicate keys
// collapse into the last candidate. Host labels without a plugin name get the
// name of the plugin that produced them.
func (e *Engine) discover(ctx context.Context, host string) ([]domain.Service, *domain.HostLabels, error) {
	candidates, err := e.discoverer.Discover(ctx, host)
	if err != nil {
		return nil, nil, fmt.Errorf("discovery of %s failed: %w", host, err)
	}

	labels := domain.NewHostLabels()
	byKey := make(map[domain.ServiceKey]int, len(candidates))
	var services []domain.Service

	for _, c := range candidates {
		if c.HostLabels != nil {
			for _, l := range c.HostLabels.ToList() {
				if l.PluginName() == "" {
					l.SetPluginName(c.CheckPluginName)
				}
				labels.Add(l)
			}
		}
		if c.CheckPluginName == "" {
			// host label only
			continue
		}

		description := c.Description
		if description == "" {
			description = e.renderer.Describe(host, c.CheckPluginName, c.Item)
		}
		s := domain.NewService(c.CheckPluginName, c.Item, description, c.Parameters, c.ServiceLabels)
		if i, ok := byKey[s.Key()]; ok {
			services[i] = s
			continue
		}
		byKey[s.Key()] = len(services)
		services = append(services, s)
	}
	return services, labels, nil
}

// reconcileHostLabels merges discovered host labels into the persisted ones
// and returns the labels to persist plus the number of added labels.
func (e *Engine) reconcileHostLabels(host string, mode Mode, discovered *domain.HostLabels) (*domain.HostLabels, int, error) {
	persisted, err := e.hostLabels.Load(host)
	if err != nil {
		return nil, 0, err
	}

	result := domain.NewHostLabels()
	added := 0

	switch mode {
	case ModeFixAll:
		for _, l := range discovered.ToList() {
			if _, ok := persisted.Get(l.Name()); !ok {
				added++
			}
			result.Add(l)
		}
	case ModeRemove:
		for _, l := range persisted.ToList() {
			if _, ok := discovered.Get(l.Name()); ok {
				result.Add(l)
			}
		}
	default:
		result = persisted.Clone()
		for _, l := range discovered.ToList() {
			if _, ok := persisted.Get(l.Name()); ok {
				continue
			}
			result.Add(l)
			added++
		}
	}
	return result, added, nil
}

// PreviewRow is a ServiceTable row with resolved check parameters.
type PreviewRow struct {
	Status             Status
	Service            domain.Service
	ResolvedParameters domain.Parameters
}

// Preview is the outcome of a discovery without persisting anything.
type Preview struct {
	Host       string
	Rows       []PreviewRow
	HostLabels *domain.HostLabels
}

// Preview discovers host and returns its service table without writing.
func (e *Engine) Preview(ctx context.Context, host string) (*Preview, error) {
	persisted, err := e.autochecks.Load(host)
	if err != nil {
		return nil, err
	}
	discovered, labels, err := e.discover(ctx, host)
	if err != nil {
		return nil, err
	}

	rows := BuildTable(discovered, persisted).Rows()
	preview := &Preview{Host: host, Rows: make([]PreviewRow, 0, len(rows)), HostLabels: labels}
	for _, r := range rows {
		preview.Rows = append(preview.Rows, PreviewRow{
			Status:             r.Status,
			Service:            r.Service,
			ResolvedParameters: e.Resolve(host, r.Service),
		})
	}
	return preview, nil
}

// Resolve computes the effective parameters of a service.
func (e *Engine) Resolve(host string, s domain.Service) domain.Parameters {
	if e.resolver == nil {
		return s.Parameters
	}
	return e.resolver.Compute(host, s.CheckPluginName, s.Item, s.Parameters)
}

// Autochecks returns the persisted services of host.
func (e *Engine) Autochecks(host string) ([]domain.Service, error) {
	return e.autochecks.Load(host)
}
