package autochecks

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// HostLabelStore persists discovered host labels in <dir>/<host>.yaml as
// {name: {value, plugin_name}}, sorted by name.
type HostLabelStore struct {
	dir string
	log logger.Logger
}

func NewHostLabelStore(dir string, log logger.Logger) *HostLabelStore {
	return &HostLabelStore{dir: dir, log: log}
}

// Load returns the persisted host labels of host; empty when nothing was saved.
func (s *HostLabelStore) Load(host string) (*domain.HostLabels, error) {
	path, err := hostFile(s.dir, host)
	if err != nil {
		return nil, err
	}

	data, err := readHostFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.NewHostLabels(), nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Host: host, Path: path, Err: err}
	}
	labels, err := domain.HostLabelsFromDict(raw)
	if err != nil {
		return nil, &ParseError{Host: host, Path: path, Err: err}
	}
	return labels, nil
}

// Save replaces the persisted host labels of host.
func (s *HostLabelStore) Save(host string, labels *domain.HostLabels) error {
	path, err := hostFile(s.dir, host)
	if err != nil {
		return err
	}

	dict := map[string]any{}
	if labels != nil {
		dict = labels.ToDict()
	}
	data, err := encodeYAML(dict)
	if err != nil {
		return fmt.Errorf("failed to encode host labels of %s: %w", host, err)
	}

	changed, err := writeAtomic(path, data)
	if err != nil {
		return err
	}
	if changed {
		s.log.Debug("host labels written",
			logger.String("host", host),
			logger.Int("labels", labels.Len()),
		)
	}
	return nil
}

func (s *HostLabelStore) Remove(host string) error {
	path, err := hostFile(s.dir, host)
	if err != nil {
		return err
	}
	return removeHostFile(path)
}
