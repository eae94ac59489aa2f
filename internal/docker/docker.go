// Package docker queries the container runtime CLI for the state of the
// monitored containers: start time for uptime display, recent logs, and
// resource usage. Every command is retried once with sudo when the daemon
// socket reports a permission error.
package docker

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/runner"
)

// commandTimeout bounds individual docker CLI calls.
const commandTimeout = 10 * time.Second

// statsTimeout bounds the batch stats call, which is slower than inspect.
const statsTimeout = 15 * time.Second

// ContainerStats holds one container's resource usage as reported by the
// batch stats query.
type ContainerStats struct {
	CPU     string
	Memory  string
	Network string
}

// Client wraps the docker CLI.
type Client struct {
	run runner.Runner
	log logger.Logger

	// readFile reads proc files for the memory fallback; replaceable in tests.
	readFile func(path string) ([]byte, error)

	// now is replaceable in tests for deterministic uptime formatting.
	now func() time.Time
}

// NewClient creates a docker client using the given command runner.
func NewClient(run runner.Runner, log logger.Logger) *Client {
	if log == nil {
		log = logger.Noop()
	}
	return &Client{
		run:      run,
		log:      log,
		readFile: os.ReadFile,
		now:      time.Now,
	}
}

// Uptime returns how long the container has been running, formatted as
// "<d>d <h>h <m>m" with leading zero components dropped. Any failure maps
// to "Unknown"; uptime is cosmetic and must never fail a health check.
func (c *Client) Uptime(ctx context.Context, container string) string {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	res, err := runner.RunWithSudoRetry(ctx, c.run,
		"docker", "inspect", container, "--format", "{{.State.StartedAt}}")
	if err != nil || res.ExitCode != 0 {
		return "Unknown"
	}

	started, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(res.Stdout)))
	if err != nil {
		return "Unknown"
	}

	return formatDuration(c.now().Sub(started))
}

// Logs returns the last n log lines for the container, merging stdout and
// stderr streams. Failures yield placeholder lines rather than errors so
// the dashboard always has something to render.
func (c *Client) Logs(ctx context.Context, container string, n int) []string {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	res, err := runner.RunWithSudoRetry(ctx, c.run,
		"docker", "logs", "--tail", strconv.Itoa(n), container)
	if err != nil {
		return []string{"No logs available"}
	}
	if res.ExitCode != 0 {
		return []string{fmt.Sprintf("Error getting logs (code %d): %s",
			res.ExitCode, strings.TrimSpace(string(res.Stderr)))}
	}

	var lines []string
	for _, raw := range strings.Split(string(res.Stdout), "\n") {
		if s := strings.TrimSpace(raw); s != "" {
			lines = append(lines, s)
		}
	}
	// Container log drivers often write to stderr even on success.
	for _, raw := range strings.Split(string(res.Stderr), "\n") {
		if s := strings.TrimSpace(raw); s != "" {
			lines = append(lines, s)
		}
	}

	if len(lines) == 0 {
		return []string{fmt.Sprintf("Container '%s' has no recent logs", container)}
	}
	return lines
}

// Stats performs the batch resource query and returns usage for the
// requested containers. Containers missing from the output are absent from
// the map. A memory figure of zero for a running container triggers the
// per-container fallback lookup.
func (c *Client) Stats(ctx context.Context, containers []string) map[string]ContainerStats {
	stats := make(map[string]ContainerStats)

	wanted := make(map[string]bool, len(containers))
	for _, name := range containers {
		wanted[name] = true
	}

	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	res, err := runner.RunWithSudoRetry(ctx, c.run,
		"docker", "stats", "--no-stream", "--format",
		"table {{.Name}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.NetIO}}")
	if err != nil || res.ExitCode != 0 {
		return stats
	}

	lines := strings.Split(strings.TrimSpace(string(res.Stdout)), "\n")
	if len(lines) <= 1 {
		return stats
	}

	for _, line := range lines[1:] { // skip header
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		if !wanted[name] {
			continue
		}

		mem := strings.TrimSpace(strings.SplitN(strings.TrimSpace(parts[2]), " / ", 2)[0])
		if mem == "0B" {
			// Docker on some kernels reports 0B for cgroup v2 containers.
			mem = c.memoryUsage(ctx, name)
		}

		cs := ContainerStats{
			CPU:     strings.TrimSpace(parts[1]),
			Memory:  mem,
			Network: "N/A",
		}
		if len(parts) > 3 {
			cs.Network = strings.TrimSpace(parts[3])
		}
		stats[name] = cs
	}

	return stats
}

// memoryUsage reads the container's resident memory from the process table
// when the batch stats report a degenerate zero. Fallback order: PID from
// inspect, /proc/<pid>/status VmRSS, /proc/<pid>/statm resident pages,
// configured memory limit from inspect.
func (c *Client) memoryUsage(ctx context.Context, container string) string {
	res, err := runner.RunWithSudoRetry(ctx, c.run,
		"docker", "inspect", container, "--format", "{{.State.Pid}}")
	if err != nil || res.ExitCode != 0 {
		return "N/A"
	}

	pid := strings.TrimSpace(string(res.Stdout))
	if _, convErr := strconv.Atoi(pid); convErr != nil || pid == "0" {
		return "N/A"
	}

	if data, err := c.readFile("/proc/" + pid + "/status"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if !strings.HasPrefix(line, "VmRSS:") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if kb, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
					return FormatBytes(kb * 1024)
				}
			}
		}
	}

	if data, err := c.readFile("/proc/" + pid + "/statm"); err == nil {
		fields := strings.Fields(string(data))
		if len(fields) >= 2 {
			if pages, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				const pageSize = 4096
				return FormatBytes(pages * pageSize)
			}
		}
	}

	res, err = runner.RunWithSudoRetry(ctx, c.run,
		"docker", "inspect", container, "--format", "{{.HostConfig.Memory}}")
	if err == nil && res.ExitCode == 0 {
		if limit, convErr := strconv.ParseInt(strings.TrimSpace(string(res.Stdout)), 10, 64); convErr == nil && limit > 0 {
			return FormatBytes(limit)
		}
	}

	return "N/A"
}

// FormatBytes renders a byte count with binary-prefix rules:
// ≥1 GiB → "X.YGB", ≥1 MiB → "X.YMB", ≥1 KiB → "X.YKB", else "<N>B".
func FormatBytes(n int64) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case n >= gib:
		return fmt.Sprintf("%.1fGB", float64(n)/float64(gib))
	case n >= mib:
		return fmt.Sprintf("%.1fMB", float64(n)/float64(mib))
	case n >= kib:
		return fmt.Sprintf("%.1fKB", float64(n)/float64(kib))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// formatDuration renders an elapsed time as "<d>d <h>h <m>m", dropping
// leading zero components so fresh containers show "5m", not "0d 0h 5m".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
