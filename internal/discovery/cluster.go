package discovery

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Checkmk/checkmk-sub072/internal/autochecks"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/filter"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// ReconcileCluster discovers every node of a cluster and reconciles the
// autochecks and host labels of each node according to mode and filters.
//
// The target set of a node is its cluster consolidation: services found on
// the node, with persisted parameters if they had any, plus persisted
// services that no node reports any more. The target is diffed against the
// persisted autochecks and the mode decides which changes are applied.
//
// A discovery or load error on any node aborts the run before anything is
// saved.
func (e *Engine) ReconcileCluster(ctx context.Context, cluster string, nodes []string, mode Mode, filters filter.Set) ([]*Result, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: cluster %s has no nodes", domain.ErrConfiguration, cluster)
	}
	if mode == "" {
		mode = ModeRefresh
	}
	runID := uuid.NewString()

	byKey := make(map[domain.ServiceKey]*autochecks.ServiceWithNodes)
	var order []domain.ServiceKey
	discoveredLabels := make(map[string]*domain.HostLabels, len(nodes))

	for _, node := range nodes {
		services, labels, err := e.discover(ctx, node)
		if err != nil {
			return nil, err
		}
		discoveredLabels[node] = labels
		for _, s := range services {
			key := s.Key()
			if entry, ok := byKey[key]; ok {
				entry.Nodes = append(entry.Nodes, node)
				continue
			}
			byKey[key] = &autochecks.ServiceWithNodes{Service: s, Nodes: []string{node}}
			order = append(order, key)
		}
	}

	withNodes := make([]autochecks.ServiceWithNodes, 0, len(order))
	for _, key := range order {
		withNodes = append(withNodes, *byKey[key])
	}

	results := make([]*Result, 0, len(nodes))
	for _, node := range nodes {
		existing, err := e.autochecks.Load(node)
		if err != nil {
			return nil, err
		}
		target := autochecks.ConsolidateClustered(node, withNodes, existing)
		services, counts := apply(node, BuildTable(target, existing), mode, filters)

		res := &Result{
			RunID:    runID,
			Host:     node,
			Mode:     mode,
			Services: services,
			Counts:   counts,
		}
		if e.hostLabels != nil {
			labels, added, err := e.reconcileHostLabels(node, mode, discoveredLabels[node])
			if err != nil {
				return nil, err
			}
			res.HostLabels = labels
			res.Counts.SelfNewHostLabels = added
			res.Counts.SelfTotalHostLabels = labels.Len()
		}
		results = append(results, res)
	}

	for _, res := range results {
		if err := e.save(res); err != nil {
			return nil, err
		}
		e.log.Info("cluster node reconciled",
			logger.String("cluster", cluster),
			logger.String("host", res.Host),
			logger.String("run_id", runID),
			logger.String("mode", string(mode)),
			logger.Int("new", res.Counts.SelfNew),
			logger.Int("kept", res.Counts.SelfKept),
			logger.Int("removed", res.Counts.SelfRemoved),
			logger.Int("new_host_labels", res.Counts.SelfNewHostLabels),
		)
	}
	return results, nil
}
