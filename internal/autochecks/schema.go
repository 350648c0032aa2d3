package autochecks

import "github.com/Checkmk/checkmk-sub072/internal/domain"

// Entry is the persisted form of one discovered service. Descriptions are not
// stored: they are rendered again whenever the file is loaded.
type Entry struct {
	CheckPluginName string            `yaml:"check_plugin_name" validate:"required"`
	Item            *string           `yaml:"item"`
	Parameters      domain.Parameters `yaml:"parameters"`
	ServiceLabels   map[string]string `yaml:"service_labels"`
}
