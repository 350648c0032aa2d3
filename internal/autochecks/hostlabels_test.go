package autochecks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

func TestHostLabelStoreRoundTrip(t *testing.T) {
	store := NewHostLabelStore(t.TempDir(), logger.New("error", false))

	empty, err := store.Load("h1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !empty.IsEmpty() {
		t.Errorf("Load() of missing file returned %d labels", empty.Len())
	}

	osFamily, err := domain.NewHostLabel("cmk/os_family", "linux", "check_mk")
	if err != nil {
		t.Fatal(err)
	}
	dev, err := domain.NewHostLabel("cmk/device_type", "vm", "")
	if err != nil {
		t.Fatal(err)
	}
	labels := domain.LabelsFrom(osFamily, dev)

	if err := store.Save("h1", labels); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := store.Load("h1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.Equal(labels) {
		t.Errorf("Load() = %v, want %v", loaded.ToDict(), labels.ToDict())
	}
}

func TestHostLabelStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewHostLabelStore(dir, logger.New("error", false))

	if err := os.WriteFile(filepath.Join(dir, "h1.yaml"), []byte("os: linux\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load("h1")
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("Load() error = %v, want ErrConfiguration", err)
	}
}
