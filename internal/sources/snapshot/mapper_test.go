package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

func TestDiscovererDiscover(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "h1.yaml"), []byte(snapshotContent), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDiscoverer(tmpDir, logger.New("error", false))
	candidates, err := d.Discover(context.Background(), "h1")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Discover() returned %d candidates, want 3", len(candidates))
	}

	df := candidates[0]
	if df.CheckPluginName != "df" {
		t.Errorf("candidates[0] = %s, want df", df.CheckPluginName)
	}
	if l, ok := df.HostLabels.Get("cmk/os_family"); !ok || l.PluginName() != "df" {
		t.Errorf("host label = %v, want cmk/os_family from df", l)
	}
	if l, ok := df.ServiceLabels.Get("fs"); !ok || l.Value() != "ext4" {
		t.Errorf("service label fs = %v", l)
	}

	labelsOnly := candidates[2]
	if labelsOnly.CheckPluginName != "" {
		t.Errorf("host label source produced service %q", labelsOnly.CheckPluginName)
	}
	if l, ok := labelsOnly.HostLabels.Get("cmk/distro"); !ok || l.PluginName() != "lnx_distro" {
		t.Errorf("host label = %v, want cmk/distro from lnx_distro", l)
	}
}

func TestMapCandidatesErrors(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{name: "missing plugin", file: File{Services: []ServiceProps{{Description: "x"}}}},
		{name: "empty service label", file: File{Services: []ServiceProps{{CheckPluginName: "df", ServiceLabels: map[string]string{"fs": ""}}}}},
		{name: "empty host label", file: File{HostLabels: []HostLabelSource{{Plugin: "p", Labels: map[string]string{"": "x"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapper().MapCandidates(tt.file)
			if err == nil {
				t.Fatal("MapCandidates() error = nil")
			}
			if tt.name != "missing plugin" && !errors.Is(err, domain.ErrInvalidLabel) {
				t.Errorf("MapCandidates() error = %v, want ErrInvalidLabel", err)
			}
		})
	}
}

func TestDiscovererCancelled(t *testing.T) {
	d := NewDiscoverer(t.TempDir(), logger.New("error", false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Discover(ctx, "h1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Discover() error = %v, want context.Canceled", err)
	}
}
