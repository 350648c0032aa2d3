package rules

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// Provider serves the current rules and swaps them on Reload. It implements
// domain.DescriptionRenderer and domain.ParameterResolver.
type Provider struct {
	path    string
	log     logger.Logger
	current atomic.Pointer[Rules]
}

// NewProvider creates a provider for the rules file at path. It starts with
// empty rules until Reload succeeds.
func NewProvider(path string, log logger.Logger) *Provider {
	p := &Provider{path: path, log: log}
	p.current.Store(Empty())
	return p
}

// Reload reads the rules file again. A missing file yields empty rules. On
// any other error the previous rules stay active.
func (p *Provider) Reload() error {
	r, err := Load(p.path)
	if errors.Is(err, os.ErrNotExist) {
		p.log.Warn("rules file not found, using empty rules", logger.String("path", p.path))
		r, err = Empty(), nil
	}
	if err != nil {
		p.log.Error("failed to load rules", logger.String("path", p.path), logger.Error(err))
		return err
	}

	p.current.Store(r)
	p.log.Info("rules loaded",
		logger.String("path", p.path),
		logger.Int("parameter_rules", len(r.parameters)),
		logger.Int("clusters", len(r.clusters)),
	)
	return nil
}

// Rules returns the active rules.
func (p *Provider) Rules() *Rules { return p.current.Load() }

func (p *Provider) Describe(host, checkPluginName string, item *string) string {
	return p.Rules().Describe(host, checkPluginName, item)
}

func (p *Provider) Compute(host, checkPluginName string, item *string, unresolved domain.Parameters) domain.Parameters {
	return p.Rules().Compute(host, checkPluginName, item, unresolved)
}

func (p *Provider) Rediscovery() discovery.RediscoveryParams { return p.Rules().Rediscovery() }
