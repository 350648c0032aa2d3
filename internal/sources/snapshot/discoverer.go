// Package snapshot discovers services from per-host discovery snapshots
// written by the data collection.
package snapshot

import (
	"context"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// Discoverer implements discovery.Discoverer on top of snapshot files.
type Discoverer struct {
	loader *Loader
	mapper *Mapper
	log    logger.Logger
}

func NewDiscoverer(dir string, log logger.Logger) *Discoverer {
	return &Discoverer{loader: NewLoader(dir), mapper: NewMapper(), log: log}
}

// Discover returns the candidates recorded in the snapshot of host.
func (d *Discoverer) Discover(ctx context.Context, host string) ([]discovery.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := d.loader.Load(host)
	if err != nil {
		return nil, err
	}
	candidates, err := d.mapper.MapCandidates(f)
	if err != nil {
		return nil, err
	}

	d.log.Debug("snapshot loaded",
		logger.String("host", host),
		logger.Int("services", len(f.Services)),
		logger.Int("host_label_sources", len(f.HostLabels)),
	)
	return candidates, nil
}

// Hosts lists the hosts with a snapshot.
func (d *Discoverer) Hosts() ([]string, error) {
	return d.loader.Hosts()
}
