package autochecks

import "github.com/Checkmk/checkmk-sub072/internal/domain"

// ServiceWithNodes is a service discovered on a cluster together with the
// nodes it was found on.
type ServiceWithNodes struct {
	Service domain.Service
	Nodes   []string
}

func (s ServiceWithNodes) foundOn(node string) bool {
	for _, n := range s.Nodes {
		if n == node {
			return true
		}
	}
	return false
}

// ConsolidateClustered computes the autochecks of node after a cluster
// discovery. A service is kept when it was discovered on node, or when it was
// already persisted for node and was not discovered on any node at all. The
// latter tolerates discovery failures on other cluster members.
//
// For services discovered on node that were persisted before, the persisted
// parameters are kept and the discovered ones are dropped.
// TODO: decide whether freshly discovered parameters should replace persisted
// ones on clusters; keeping the old ones can hide rule changes.
func ConsolidateClustered(node string, discovered []ServiceWithNodes, existing []domain.Service) []domain.Service {
	existingByKey := make(map[domain.ServiceKey]domain.Service, len(existing))
	for _, s := range existing {
		existingByKey[s.Key()] = s
	}

	discoveredAnywhere := make(map[domain.ServiceKey]struct{}, len(discovered))
	consolidated := make(map[domain.ServiceKey]domain.Service, len(discovered)+len(existing))

	for _, d := range discovered {
		key := d.Service.Key()
		discoveredAnywhere[key] = struct{}{}
		if !d.foundOn(node) {
			continue
		}
		s := d.Service
		if old, ok := existingByKey[key]; ok {
			s.Parameters = old.Parameters
		}
		consolidated[key] = s
	}

	for key, s := range existingByKey {
		if _, ok := discoveredAnywhere[key]; ok {
			continue
		}
		consolidated[key] = s
	}

	out := make([]domain.Service, 0, len(consolidated))
	for _, s := range consolidated {
		out = append(out, s)
	}
	domain.SortServices(out)
	return out
}
