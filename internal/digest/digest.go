// Package digest assembles the daily status summary the bridge forwards to
// the monitoring peer: recent git activity across watched repositories,
// disk usage, host uptime and the state of watched systemd user services.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// DefaultSince is the git log window for one daily digest.
	DefaultSince = "24 hours ago"
	// maxCommitsPerRepo caps the subjects shown per repository.
	maxCommitsPerRepo = 3
)

// RepoActivity is the recent commit activity of one repository.
type RepoActivity struct {
	Name    string   `json:"name"`
	Commits []string `json:"commits"`
}

// DiskUsage describes the filesystem holding the given path.
type DiskUsage struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"totalBytes"`
	FreeBytes   uint64  `json:"freeBytes"`
	UsedPercent float64 `json:"usedPercent"`
}

// ServiceStatus is the systemd state of one watched user service.
type ServiceStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Digest is one day's summary.
type Digest struct {
	Date     string          `json:"date"`
	Repos    []RepoActivity  `json:"repos"`
	Disk     *DiskUsage      `json:"disk,omitempty"`
	Uptime   time.Duration   `json:"uptime"`
	Services []ServiceStatus `json:"services"`
}

// Options configures collection.
type Options struct {
	ReposDir string
	// ExtraRepos are explicit checkout paths outside ReposDir,
	// typically from the watchlist.
	ExtraRepos []string
	Services   []string
	Since      string
	Logger     *slog.Logger
}

// Collector gathers digest sections. Each section is best effort: a repo
// that fails to read or a service that fails to query becomes a logged
// warning, never a failed digest.
type Collector struct {
	reposDir   string
	extraRepos []string
	services   []string
	since      string
	log        *slog.Logger

	// run executes an external command and returns its stdout.
	run func(ctx context.Context, name string, args ...string) (string, error)
	// uptimeFile is the procfs uptime source.
	uptimeFile string
	// statfsPath is the filesystem probed for disk usage.
	statfsPath string
}

// NewCollector builds a collector from options.
func NewCollector(opts Options) *Collector {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	since := opts.Since
	if since == "" {
		since = DefaultSince
	}

	return &Collector{
		reposDir:   opts.ReposDir,
		extraRepos: opts.ExtraRepos,
		services:   opts.Services,
		since:      since,
		log:        log,
		run:        runCommand,
		uptimeFile: "/proc/uptime",
		statfsPath: "/",
	}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// Collect gathers all sections.
func (c *Collector) Collect(ctx context.Context) *Digest {
	d := &Digest{
		Date: time.Now().Format("2006-01-02"),
	}

	d.Repos = c.collectRepos(ctx)
	d.Disk = c.collectDisk()
	d.Uptime = c.collectUptime()
	d.Services = c.collectServices(ctx)

	return d
}

// collectRepos scans the repos directory for git checkouts and reports
// commit subjects newer than the since window.
func (c *Collector) collectRepos(ctx context.Context) []RepoActivity {
	var dirs []string

	if c.reposDir != "" {
		entries, err := os.ReadDir(c.reposDir)
		if err != nil {
			c.log.Warn("read repos directory", "dir", c.reposDir, "error", err)
		} else {
			for _, ent := range entries {
				if ent.IsDir() {
					dirs = append(dirs, filepath.Join(c.reposDir, ent.Name()))
				}
			}
		}
	}

	dirs = append(dirs, c.extraRepos...)

	var repos []RepoActivity

	for _, dir := range dirs {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			continue
		}

		name := filepath.Base(dir)

		out, err := c.run(ctx, "git", "-C", dir,
			"log", "--since="+c.since, "--pretty=format:%s", "-n", strconv.Itoa(maxCommitsPerRepo))
		if err != nil {
			c.log.Warn("read git activity", "repo", name, "error", err)
			continue
		}

		var commits []string
		for _, line := range strings.Split(out, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				commits = append(commits, line)
			}
		}

		if len(commits) > 0 {
			repos = append(repos, RepoActivity{Name: name, Commits: commits})
		}
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })

	return repos
}

func (c *Collector) collectDisk() *DiskUsage {
	var st unix.Statfs_t
	if err := unix.Statfs(c.statfsPath, &st); err != nil {
		c.log.Warn("read disk usage", "path", c.statfsPath, "error", err)
		return nil
	}

	total := st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)

	usage := &DiskUsage{
		Path:       c.statfsPath,
		TotalBytes: total,
		FreeBytes:  free,
	}

	if total > 0 {
		usage.UsedPercent = float64(total-free) / float64(total) * 100
	}

	return usage
}

func (c *Collector) collectUptime() time.Duration {
	data, err := os.ReadFile(c.uptimeFile)
	if err != nil {
		c.log.Warn("read uptime", "error", err)
		return 0
	}

	uptime, err := parseUptime(string(data))
	if err != nil {
		c.log.Warn("parse uptime", "error", err)
		return 0
	}

	return uptime
}

// parseUptime reads the first field of /proc/uptime, seconds as a float.
func parseUptime(content string) (time.Duration, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty uptime file")
	}

	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse uptime %q: %w", fields[0], err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

func (c *Collector) collectServices(ctx context.Context) []ServiceStatus {
	var statuses []ServiceStatus

	for _, svc := range c.services {
		out, err := c.run(ctx, "systemctl", "--user", "is-active", svc)
		state := strings.TrimSpace(out)
		if state == "" {
			// is-active exits non-zero for inactive units but still
			// prints the state; a truly empty answer means the query failed.
			if err != nil {
				c.log.Warn("query service", "service", svc, "error", err)
			}

			state = "unknown"
		}

		statuses = append(statuses, ServiceStatus{Name: svc, State: state})
	}

	return statuses
}

// Render formats the digest as the plain-text message sent to the peer.
func (d *Digest) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Daily digest for %s\n", d.Date)

	if len(d.Repos) == 0 {
		b.WriteString("\nNo repository activity.\n")
	} else {
		b.WriteString("\nRepository activity:\n")
		for _, repo := range d.Repos {
			fmt.Fprintf(&b, "  %s\n", repo.Name)
			for _, subject := range repo.Commits {
				fmt.Fprintf(&b, "    - %s\n", subject)
			}
		}
	}

	if d.Disk != nil {
		fmt.Fprintf(&b, "\nDisk (%s): %.1f%% used, %s free of %s\n",
			d.Disk.Path, d.Disk.UsedPercent,
			formatBytes(d.Disk.FreeBytes), formatBytes(d.Disk.TotalBytes))
	}

	if d.Uptime > 0 {
		fmt.Fprintf(&b, "\nUptime: %s\n", formatUptime(d.Uptime))
	}

	if len(d.Services) > 0 {
		b.WriteString("\nServices:\n")
		for _, svc := range d.Services {
			fmt.Fprintf(&b, "  %s: %s\n", svc.Name, svc.State)
		}
	}

	return b.String()
}

func formatBytes(n uint64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}

	return fmt.Sprintf("%dh %dm", hours, minutes)
}
