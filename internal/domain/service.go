package domain

import (
	"sort"
	"strings"
)

// Service is a service produced by a check plugin's discovery function.
//
// Reconciliation identifies services by Key (plugin name and item). Equality
// additionally includes the description but ignores parameters and labels:
// a service whose parameters changed is still the same service.
type Service struct {
	CheckPluginName string
	Item            *string // nil for plugins without items
	Description     string
	Parameters      Parameters
	ServiceLabels   *ServiceLabels
}

// ServiceKey is the (plugin, item) pair used to match services across runs.
type ServiceKey struct {
	CheckPluginName string
	Item            string
	HasItem         bool
}

// ServiceIdentity is the comparable form of a service used for equality and
// as a map key.
type ServiceIdentity struct {
	ServiceKey
	Description string
}

// NewItem returns a pointer to item, for building services inline.
func NewItem(item string) *string { return &item }

// NewService builds a service record. nil labels become an empty collection.
func NewService(plugin string, item *string, description string, params Parameters, labels *ServiceLabels) Service {
	if labels == nil {
		labels = NewServiceLabels()
	}
	return Service{
		CheckPluginName: plugin,
		Item:            item,
		Description:     description,
		Parameters:      params,
		ServiceLabels:   labels,
	}
}

func (s Service) Key() ServiceKey {
	k := ServiceKey{CheckPluginName: s.CheckPluginName}
	if s.Item != nil {
		k.Item = *s.Item
		k.HasItem = true
	}
	return k
}

func (s Service) Identity() ServiceIdentity {
	return ServiceIdentity{ServiceKey: s.Key(), Description: s.Description}
}

// Equal reports whether plugin name, item and description match.
func (s Service) Equal(other Service) bool {
	return s.Identity() == other.Identity()
}

// ItemString returns the item or "" for item-less services.
func (s Service) ItemString() string {
	if s.Item == nil {
		return ""
	}
	return *s.Item
}

// Less orders keys by plugin name, then item. Item-less services sort first.
func (k ServiceKey) Less(other ServiceKey) bool {
	if k.CheckPluginName != other.CheckPluginName {
		return k.CheckPluginName < other.CheckPluginName
	}
	if k.HasItem != other.HasItem {
		return !k.HasItem
	}
	return k.Item < other.Item
}

func (k ServiceKey) ItemPtr() *string {
	if !k.HasItem {
		return nil
	}
	return NewItem(k.Item)
}

func (k ServiceKey) String() string {
	var b strings.Builder
	b.WriteString(k.CheckPluginName)
	b.WriteByte('/')
	if k.HasItem {
		b.WriteString(k.Item)
	} else {
		b.WriteString("None")
	}
	return b.String()
}

// SortServices orders services by key in place.
func SortServices(services []Service) {
	sort.SliceStable(services, func(i, j int) bool {
		return services[i].Key().Less(services[j].Key())
	})
}
