package autochecks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

type describer struct{}

func (describer) Describe(_ string, plugin string, item *string) string {
	if item == nil {
		return plugin
	}
	return plugin + " " + *item
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), describer{}, logger.New("error", false))
}

func mustParams(t *testing.T, text string) domain.Parameters {
	t.Helper()
	p, err := domain.ParseParameters(text)
	if err != nil {
		t.Fatalf("ParseParameters(%q) error = %v", text, err)
	}
	return p
}

func TestFileStoreEmptyRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if store.HasData("h1") {
		t.Fatal("HasData() = true before any save")
	}

	if err := store.Save("h1", nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.HasData("h1") {
		t.Error("HasData() = false after saving an empty set")
	}

	services, err := store.Load("h1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(services) != 0 {
		t.Errorf("Load() returned %d services, want 0", len(services))
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	services, err := store.Load("unknown")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if services != nil {
		t.Errorf("Load() = %v, want nil", services)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	labels, err := domain.ServiceLabelsFromStrings(map[string]string{"fs": "ext4"})
	if err != nil {
		t.Fatalf("ServiceLabelsFromStrings() error = %v", err)
	}
	saved := []domain.Service{
		domain.NewService("df", domain.NewItem("/"), "", mustParams(t, `{levels: [80.0, 90.0]}`), labels),
		domain.NewService("cpu_loads", nil, "", domain.Parameters{}, nil),
	}

	if err := store.Save("h1", saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load("h1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Load() returned %d services, want 2", len(loaded))
	}

	// sorted by plugin name on disk
	if loaded[0].CheckPluginName != "cpu_loads" || loaded[0].Item != nil {
		t.Errorf("loaded[0] = %s, want cpu_loads/None", loaded[0].Key())
	}
	if loaded[0].Description != "cpu_loads" {
		t.Errorf("loaded[0].Description = %q, want rendered description", loaded[0].Description)
	}

	df := loaded[1]
	if df.ItemString() != "/" || df.Description != "df /" {
		t.Errorf("loaded[1] = %s %q", df.Key(), df.Description)
	}
	if !df.Parameters.Equal(saved[0].Parameters) {
		t.Errorf("parameters = %s, want %s", df.Parameters, saved[0].Parameters)
	}
	if !df.ServiceLabels.Equal(labels) {
		t.Errorf("service labels = %v, want %v", df.ServiceLabels.ToDict(), labels.ToDict())
	}
}

func TestFileStoreSaveIsDeterministic(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Dir(), "h1.yaml")

	a := []domain.Service{
		domain.NewService("df", domain.NewItem("/var"), "", mustParams(t, `{b: 1, a: 2}`), nil),
		domain.NewService("df", domain.NewItem("/"), "", domain.Parameters{}, nil),
		domain.NewService("cpu_loads", nil, "", domain.Parameters{}, nil),
	}
	b := []domain.Service{a[2], a[0], a[1]}

	if err := store.Save("h1", a); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	infoBefore, _ := os.Stat(path)

	if err := store.Save("h1", b); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	infoAfter, _ := os.Stat(path)

	if string(first) != string(second) {
		t.Errorf("Save() output differs:\n%s\n---\n%s", first, second)
	}
	if !os.SameFile(infoBefore, infoAfter) {
		t.Error("unchanged content should not replace the file")
	}
}

func TestFileStoreLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "empty file", content: "", wantErr: false},
		{name: "comment only", content: "# nothing\n", wantErr: false},
		{name: "empty list", content: "[]\n", wantErr: false},
		{name: "broken syntax", content: "- check_plugin_name: [df\n", wantErr: true},
		{name: "not a list", content: "check_plugin_name: df\n", wantErr: true},
		{name: "unknown field", content: "- check_plugin_name: df\n  colour: red\n", wantErr: true},
		{name: "missing plugin name", content: "- item: /\n", wantErr: true},
		{name: "invalid service label", content: "- check_plugin_name: df\n  service_labels: {fs: \"\"}\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			path := filepath.Join(store.Dir(), "h1.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			_, err := store.Load("h1")
			if !tt.wantErr {
				if err != nil {
					t.Errorf("Load() error = %v", err)
				}
				return
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Load() error = %v, want *ParseError", err)
			}
			if perr.Path != path {
				t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
			}
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Error("ParseError should match ErrConfiguration")
			}
		})
	}
}

func TestFileStoreRejectsBadHostNames(t *testing.T) {
	store := newTestStore(t)

	for _, host := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := store.Save(host, nil); !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("Save(%q) error = %v, want ErrConfiguration", host, err)
		}
	}
}

func TestFileStoreRemoveAndHosts(t *testing.T) {
	store := newTestStore(t)

	for _, host := range []string{"web1", "db1"} {
		if err := store.Save(host, nil); err != nil {
			t.Fatalf("Save(%s) error = %v", host, err)
		}
	}

	hosts, err := store.Hosts()
	if err != nil {
		t.Fatalf("Hosts() error = %v", err)
	}
	if len(hosts) != 2 || hosts[0] != "db1" || hosts[1] != "web1" {
		t.Errorf("Hosts() = %v, want [db1 web1]", hosts)
	}

	if err := store.Remove("db1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if store.HasData("db1") {
		t.Error("HasData() = true after Remove()")
	}
	if err := store.Remove("db1"); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}
