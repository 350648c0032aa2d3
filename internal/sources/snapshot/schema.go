package snapshot

import "github.com/Checkmk/checkmk-sub072/internal/domain"

// File is the discovery snapshot of one host, as written by the data
// collection for that host.
type File struct {
	Services   []ServiceProps    `yaml:"services" validate:"dive"`
	HostLabels []HostLabelSource `yaml:"host_labels" validate:"dive"`
}

// ServiceProps is one discovered service.
type ServiceProps struct {
	CheckPluginName string            `yaml:"check_plugin_name" validate:"required"`
	Item            *string           `yaml:"item,omitempty"`
	Description     string            `yaml:"description,omitempty"`
	Parameters      domain.Parameters `yaml:"parameters,omitempty"`
	ServiceLabels   map[string]string `yaml:"service_labels,omitempty"`
	HostLabels      map[string]string `yaml:"host_labels,omitempty"`
}

// HostLabelSource holds host labels produced by a plugin that discovers no
// services.
type HostLabelSource struct {
	Plugin string            `yaml:"plugin" validate:"required"`
	Labels map[string]string `yaml:"labels"`
}
