package snapshot

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

var validate = validator.New()

// Mapper converts snapshot files to discovery candidates
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapCandidates converts a snapshot to candidates. Invalid labels or missing
// plugin names make the whole snapshot invalid.
func (m *Mapper) MapCandidates(f File) ([]discovery.Candidate, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: invalid snapshot: %v", domain.ErrConfiguration, err)
	}

	candidates := make([]discovery.Candidate, 0, len(f.Services)+len(f.HostLabels))

	for _, s := range f.Services {
		serviceLabels, err := domain.ServiceLabelsFromStrings(s.ServiceLabels)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", s.CheckPluginName, err)
		}
		hostLabels, err := hostLabelsOf(s.CheckPluginName, s.HostLabels)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, discovery.Candidate{
			CheckPluginName: s.CheckPluginName,
			Item:            s.Item,
			Description:     s.Description,
			Parameters:      s.Parameters,
			HostLabels:      hostLabels,
			ServiceLabels:   serviceLabels,
		})
	}

	for _, src := range f.HostLabels {
		hostLabels, err := hostLabelsOf(src.Plugin, src.Labels)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, discovery.Candidate{HostLabels: hostLabels})
	}

	return candidates, nil
}

// hostLabelsOf builds host labels produced by plugin.
func hostLabelsOf(plugin string, raw map[string]string) (*domain.HostLabels, error) {
	labels := domain.NewHostLabels()
	for name, value := range raw {
		l, err := domain.NewHostLabel(name, value, plugin)
		if err != nil {
			return nil, fmt.Errorf("host label of %s: %w", plugin, err)
		}
		labels.Add(l)
	}
	return labels, nil
}
