package autochecks

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// FileStore persists the autochecks of every host in <dir>/<host>.yaml.
//
// The store does no locking: callers serialize writes per host.
type FileStore struct {
	dir    string
	mapper *Mapper
	log    logger.Logger
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, renderer domain.DescriptionRenderer, log logger.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		mapper: NewMapper(renderer),
		log:    log,
	}
}

// Dir returns the directory holding the autochecks files.
func (s *FileStore) Dir() string { return s.dir }

// Load returns the persisted services of host. A missing or empty file yields
// no services; undecodable content yields a *ParseError.
func (s *FileStore) Load(host string) ([]domain.Service, error) {
	path, err := hostFile(s.dir, host)
	if err != nil {
		return nil, err
	}

	data, err := readHostFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []Entry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Host: host, Path: path, Err: err}
	}

	services, err := s.mapper.ToServices(host, entries)
	if err != nil {
		return nil, &ParseError{Host: host, Path: path, Err: err}
	}
	return services, nil
}

// Save replaces the persisted services of host. Entries are written sorted
// so that equal sets produce identical files; an unchanged file is left alone.
func (s *FileStore) Save(host string, services []domain.Service) error {
	path, err := hostFile(s.dir, host)
	if err != nil {
		return err
	}

	data, err := encodeYAML(s.mapper.ToEntries(services))
	if err != nil {
		return fmt.Errorf("failed to encode autochecks of %s: %w", host, err)
	}

	changed, err := writeAtomic(path, data)
	if err != nil {
		return err
	}
	if changed {
		s.log.Debug("autochecks written",
			logger.String("host", host),
			logger.Int("services", len(services)),
		)
	}
	return nil
}

// HasData reports whether a file exists for host, even one without entries.
func (s *FileStore) HasData(host string) bool {
	path, err := hostFile(s.dir, host)
	if err != nil {
		return false
	}
	return fileExists(path)
}

// Remove deletes the file of host. Removing a missing file is not an error.
func (s *FileStore) Remove(host string) error {
	path, err := hostFile(s.dir, host)
	if err != nil {
		return err
	}
	if err := removeHostFile(path); err != nil {
		return err
	}
	s.log.Info("autochecks removed", logger.String("host", host))
	return nil
}

// Hosts lists the hosts with an autochecks file.
func (s *FileStore) Hosts() ([]string, error) {
	return listHosts(s.dir)
}
