package digest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeRunner returns canned output keyed by the command's leading args.
type fakeRunner struct {
	gitOutput map[string]string // repo dir -> git log output
	services  map[string]string // unit -> state
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) (string, error) {
	switch name {
	case "git":
		// args: -C <dir> log ...
		if len(args) >= 2 && args[0] == "-C" {
			if out, ok := f.gitOutput[args[1]]; ok {
				return out, nil
			}
		}

		return "", nil
	case "systemctl":
		unit := args[len(args)-1]
		if state, ok := f.services[unit]; ok {
			return state + "\n", nil
		}

		return "", fmt.Errorf("unit not found")
	}

	return "", fmt.Errorf("unexpected command %s", name)
}

func mkRepo(t *testing.T, root, name string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o700); err != nil {
		t.Fatal(err)
	}

	return dir
}

func TestCollectRepos(t *testing.T) {
	root := t.TempDir()
	active := mkRepo(t, root, "active")
	mkRepo(t, root, "quiet")

	// A plain directory without .git must be skipped.
	if err := os.MkdirAll(filepath.Join(root, "notes"), 0o700); err != nil {
		t.Fatal(err)
	}

	extra := mkRepo(t, t.TempDir(), "sidecar")

	runner := &fakeRunner{gitOutput: map[string]string{
		active: "Fix poller debounce\nAdd digest watchlist\n",
		extra:  "Bump deps\n",
	}}

	c := NewCollector(Options{ReposDir: root, ExtraRepos: []string{extra}})
	c.run = runner.run

	repos := c.collectRepos(context.Background())

	if len(repos) != 2 {
		t.Fatalf("collectRepos() len = %d, want 2: %#v", len(repos), repos)
	}
	if repos[0].Name != "active" || len(repos[0].Commits) != 2 {
		t.Errorf("repos[0] = %#v", repos[0])
	}
	if repos[0].Commits[0] != "Fix poller debounce" {
		t.Errorf("first subject = %q", repos[0].Commits[0])
	}
	if repos[1].Name != "sidecar" {
		t.Errorf("repos[1] = %#v", repos[1])
	}
}

func TestCollectServices(t *testing.T) {
	runner := &fakeRunner{services: map[string]string{
		"nanobridge.service": "active",
		"argus.service":      "inactive",
	}}

	c := NewCollector(Options{Services: []string{"nanobridge.service", "argus.service", "ghost.service"}})
	c.run = runner.run

	statuses := c.collectServices(context.Background())

	want := []ServiceStatus{
		{Name: "nanobridge.service", State: "active"},
		{Name: "argus.service", State: "inactive"},
		{Name: "ghost.service", State: "unknown"},
	}

	if len(statuses) != len(want) {
		t.Fatalf("collectServices() len = %d, want %d", len(statuses), len(want))
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %#v, want %#v", i, statuses[i], want[i])
		}
	}
}

func TestParseUptime(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    time.Duration
		wantErr bool
	}{
		{name: "typical", content: "3600.50 7100.20\n", want: 3600*time.Second + 500*time.Millisecond},
		{name: "integer", content: "90061 0", want: 90061 * time.Second},
		{name: "empty", content: "", wantErr: true},
		{name: "garbage", content: "abc def", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUptime(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseUptime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseUptime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectUptimeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uptime")
	if err := os.WriteFile(path, []byte("120.00 200.00\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCollector(Options{})
	c.uptimeFile = path

	if got := c.collectUptime(); got != 2*time.Minute {
		t.Errorf("collectUptime() = %v, want 2m", got)
	}
}

func TestCollectDisk(t *testing.T) {
	c := NewCollector(Options{})
	c.statfsPath = t.TempDir()

	usage := c.collectDisk()
	if usage == nil {
		t.Fatal("collectDisk() = nil")
	}
	if usage.TotalBytes == 0 {
		t.Error("TotalBytes = 0")
	}
	if usage.UsedPercent < 0 || usage.UsedPercent > 100 {
		t.Errorf("UsedPercent = %v", usage.UsedPercent)
	}
}

func TestRender(t *testing.T) {
	d := &Digest{
		Date: "2026-08-30",
		Repos: []RepoActivity{
			{Name: "nanobridge", Commits: []string{"Fix poller debounce"}},
		},
		Disk:   &DiskUsage{Path: "/", TotalBytes: 100 * 1024 * 1024 * 1024, FreeBytes: 40 * 1024 * 1024 * 1024, UsedPercent: 60},
		Uptime: 26*time.Hour + 5*time.Minute,
		Services: []ServiceStatus{
			{Name: "argus.service", State: "active"},
		},
	}

	out := d.Render()

	for _, want := range []string{
		"Daily digest for 2026-08-30",
		"nanobridge",
		"- Fix poller debounce",
		"60.0% used",
		"40.0 GiB free of 100.0 GiB",
		"Uptime: 1d 2h 5m",
		"argus.service: active",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in:\n%s", want, out)
		}
	}
}

func TestRender_Empty(t *testing.T) {
	d := &Digest{Date: "2026-08-30"}

	out := d.Render()
	if !strings.Contains(out, "No repository activity.") {
		t.Errorf("Render() = %q, want no-activity line", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
