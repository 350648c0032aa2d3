package rules

import (
	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

// File is the on-disk layout of the rules file.
type File struct {
	// ServiceDescriptions maps check plugins to description templates. "%s"
	// is replaced by the item.
	ServiceDescriptions map[string]string            `yaml:"service_descriptions" validate:"dive,keys,required,endkeys,required"`
	CheckDefaults       map[string]domain.Parameters `yaml:"check_defaults"`
	CheckParameters     []ParameterRule              `yaml:"check_parameters" validate:"dive"`
	Rediscovery         discovery.RediscoveryParams  `yaml:"rediscovery"`
	Clusters            map[string][]string          `yaml:"clusters" validate:"dive,keys,required,endkeys,min=1,dive,required"`
}

// ParameterRule sets check parameters for the services it matches. Empty
// host or item lists match everything.
type ParameterRule struct {
	Plugin string            `yaml:"plugin" validate:"required"`
	Hosts  []string          `yaml:"hosts"`
	Items  []string          `yaml:"items"`
	Value  domain.Parameters `yaml:"value"`
}
