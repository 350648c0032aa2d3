package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

const fileExt = ".yaml"

// ErrNoSnapshot is returned for hosts without a snapshot file.
var ErrNoSnapshot = errors.New("no discovery snapshot")

// Loader reads snapshot files from a directory.
type Loader struct {
	dir string
}

// NewLoader creates a loader for <dir>/<host>.yaml files.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads and parses the snapshot of host.
func (l *Loader) Load(host string) (File, error) {
	if host == "" || strings.ContainsAny(host, `/\`) || host == "." || host == ".." {
		return File{}, fmt.Errorf("%w: invalid host name %q", domain.ErrConfiguration, host)
	}

	path := filepath.Join(l.dir, host+fileExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return File{}, fmt.Errorf("%w for host %s", ErrNoSnapshot, host)
	}
	if err != nil {
		return File{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("%w: failed to parse snapshot %s: %v", domain.ErrConfiguration, path, err)
	}
	return f, nil
}

// Hosts lists the hosts that have a snapshot, sorted.
func (l *Loader) Hosts() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var hosts []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		hosts = append(hosts, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(hosts)
	return hosts, nil
}
