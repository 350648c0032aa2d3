package autochecks

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

var validate = validator.New()

// Mapper converts between persisted entries and domain services.
type Mapper struct {
	renderer domain.DescriptionRenderer
}

// NewMapper creates a mapper that renders descriptions with renderer.
func NewMapper(renderer domain.DescriptionRenderer) *Mapper {
	return &Mapper{renderer: renderer}
}

// ToEntries converts services to entries sorted by (check plugin, item).
// Services with the same key collapse into the last one.
func (m *Mapper) ToEntries(services []domain.Service) []Entry {
	byKey := make(map[domain.ServiceKey]domain.Service, len(services))
	for _, s := range services {
		byKey[s.Key()] = s
	}

	unique := make([]domain.Service, 0, len(byKey))
	for _, s := range byKey {
		unique = append(unique, s)
	}
	domain.SortServices(unique)

	entries := make([]Entry, 0, len(unique))
	for _, s := range unique {
		entries = append(entries, Entry{
			CheckPluginName: s.CheckPluginName,
			Item:            s.Item,
			Parameters:      s.Parameters,
			ServiceLabels:   domain.ServiceLabelStrings(s.ServiceLabels),
		})
	}
	return entries
}

// ToServices converts entries of host to services, rendering descriptions.
func (m *Mapper) ToServices(host string, entries []Entry) ([]domain.Service, error) {
	services := make([]domain.Service, 0, len(entries))
	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		labels, err := domain.ServiceLabelsFromStrings(e.ServiceLabels)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.CheckPluginName, err)
		}

		description := m.renderer.Describe(host, e.CheckPluginName, e.Item)
		services = append(services, domain.NewService(e.CheckPluginName, e.Item, description, e.Parameters, labels))
	}
	return services, nil
}
