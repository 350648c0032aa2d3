package filter

import "github.com/Checkmk/checkmk-sub072/internal/domain"

// Patterns are the pattern lists of a rediscovery configuration.
type Patterns struct {
	ServiceWhitelist []string `yaml:"service_whitelist" json:"service_whitelist,omitempty"`
	ServiceBlacklist []string `yaml:"service_blacklist" json:"service_blacklist,omitempty"`

	// Vanished lists apply to vanished services only. When both are empty,
	// vanished services use the service lists.
	VanishedServiceWhitelist []string `yaml:"vanished_service_whitelist" json:"vanished_service_whitelist,omitempty"`
	VanishedServiceBlacklist []string `yaml:"vanished_service_blacklist" json:"vanished_service_blacklist,omitempty"`
}

func (p Patterns) combined() bool {
	return len(p.VanishedServiceWhitelist) == 0 && len(p.VanishedServiceBlacklist) == 0
}

// Set holds the filters for new and for vanished services.
type Set struct {
	New      *Filter
	Vanished *Filter
}

// AcceptAllSet admits every new and vanished service.
var AcceptAllSet = Set{New: AcceptAll, Vanished: AcceptAll}

// CompileSet compiles the filters of p.
func CompileSet(renderer domain.DescriptionRenderer, p Patterns) (Set, error) {
	newFilter, err := Compile(renderer, p.ServiceWhitelist, p.ServiceBlacklist)
	if err != nil {
		return Set{}, err
	}
	if p.combined() {
		return Set{New: newFilter, Vanished: newFilter}, nil
	}

	vanished, err := Compile(renderer, p.VanishedServiceWhitelist, p.VanishedServiceBlacklist)
	if err != nil {
		return Set{}, err
	}
	return Set{New: newFilter, Vanished: vanished}, nil
}
