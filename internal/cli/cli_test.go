package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	snapDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		t.Fatal(err)
	}
	snap := "services:\n  - check_plugin_name: df\n    item: /\n    parameters: {levels: [80, 90]}\nhost_labels:\n  - plugin: lnx_distro\n    labels: {cmk/os_family: linux}\n"
	if err := os.WriteFile(filepath.Join(snapDir, "web01.yaml"), []byte(snap), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CMK_SNAPSHOT_DIR", snapDir)
	t.Setenv("CMK_AUTOCHECKS_DIR", filepath.Join(root, "autochecks"))
	t.Setenv("CMK_HOST_LABELS_DIR", filepath.Join(root, "host_labels"))
	t.Setenv("CMK_RULES_FILE", filepath.Join(root, "rules.yaml"))
	t.Setenv("CMK_PRETTY_LOG", "false")
	t.Setenv("CMK_REDIS_ADDR", "")
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDiscoverAndShow(t *testing.T) {
	root := setupEnv(t)

	out, err := run(t, "discover", "web01", "--mode", "fixall")
	if err != nil {
		t.Fatalf("discover error = %v, output %s", err, out)
	}
	if !strings.Contains(out, "web01") || !strings.Contains(out, "fixall") {
		t.Errorf("discover output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "autochecks", "web01.yaml")); err != nil {
		t.Errorf("autochecks file not written: %v", err)
	}

	out, err = run(t, "show", "web01", "--json")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	var view struct {
		Services []struct {
			CheckPluginName string  `json:"check_plugin_name"`
			Item            *string `json:"item"`
		} `json:"services"`
		HostLabels map[string]string `json:"host_labels"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, out)
	}
	if len(view.Services) != 1 || view.Services[0].CheckPluginName != "df" {
		t.Errorf("services = %+v, want df", view.Services)
	}
	if view.HostLabels["cmk/os_family"] != "linux" {
		t.Errorf("host labels = %v", view.HostLabels)
	}
}

func TestPreview(t *testing.T) {
	root := setupEnv(t)

	out, err := run(t, "preview", "web01")
	if err != nil {
		t.Fatalf("preview error = %v", err)
	}
	if !strings.Contains(out, "new") || !strings.Contains(out, "cmk/os_family") {
		t.Errorf("preview output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "autochecks", "web01.yaml")); !os.IsNotExist(err) {
		t.Errorf("preview wrote autochecks: %v", err)
	}
}

func TestDiscoverArgs(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no hosts", args: []string{"discover"}, want: "either name hosts or use --all"},
		{name: "hosts and all", args: []string{"discover", "web01", "--all"}, want: "either name hosts or use --all"},
		{name: "bad mode", args: []string{"discover", "web01", "--mode", "sometimes"}, want: "unknown discovery mode"},
		{name: "unknown host", args: []string{"discover", "ghost"}, want: "1 of 1 hosts failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}
