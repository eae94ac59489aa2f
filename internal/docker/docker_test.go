package docker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/runner"
)

func newTestClient(f *runner.FakeRunner) *Client {
	return NewClient(f, logger.Noop())
}

func TestUptime(t *testing.T) {
	f := runner.NewFakeRunner()
	f.ScriptOutput("docker inspect video-worker --format {{.State.StartedAt}}",
		"2024-06-01T10:00:00.000000000Z\n")

	c := newTestClient(f)
	c.now = func() time.Time {
		return time.Date(2024, 6, 3, 13, 45, 0, 0, time.UTC)
	}

	got := c.Uptime(context.Background(), "video-worker")
	assert.Equal(t, "2d 3h 45m", got)
}

func TestUptime_SudoRetry(t *testing.T) {
	f := runner.NewFakeRunner()
	f.Script("docker inspect video-worker --format {{.State.StartedAt}}", runner.Result{
		ExitCode: 1,
		Stderr:   []byte("permission denied while trying to connect to the Docker daemon"),
	}, nil)
	f.ScriptOutput("sudo docker inspect video-worker --format {{.State.StartedAt}}",
		"2024-06-01T10:00:00Z")

	c := newTestClient(f)
	c.now = func() time.Time {
		return time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	}

	got := c.Uptime(context.Background(), "video-worker")
	assert.Equal(t, "30m", got)
	assert.Equal(t, 2, f.CallCount())
}

func TestUptime_FailuresMapToUnknown(t *testing.T) {
	tests := []struct {
		name   string
		script func(f *runner.FakeRunner)
	}{
		{"docker missing", func(f *runner.FakeRunner) {}},
		{"non-zero exit", func(f *runner.FakeRunner) {
			f.Script("docker inspect web --format {{.State.StartedAt}}", runner.Result{
				ExitCode: 1,
				Stderr:   []byte("Error: No such object: web"),
			}, nil)
		}},
		{"unparseable timestamp", func(f *runner.FakeRunner) {
			f.ScriptOutput("docker inspect web --format {{.State.StartedAt}}", "yesterday")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := runner.NewFakeRunner()
			tt.script(f)

			got := newTestClient(f).Uptime(context.Background(), "web")
			assert.Equal(t, "Unknown", got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{3*24*time.Hour + 2*time.Hour + 5*time.Minute, "3d 2h 5m"},
		{5*time.Hour + 59*time.Minute, "5h 59m"},
		{42 * time.Minute, "42m"},
		{30 * time.Second, "0m"},
		{-time.Minute, "0m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

func TestLogs(t *testing.T) {
	f := runner.NewFakeRunner()
	f.Script("docker logs --tail 5 video-worker", runner.Result{
		Stdout: []byte("transcode started\ntranscode finished\n"),
		Stderr: []byte("ffmpeg warning: deprecated option\n"),
	}, nil)

	lines := newTestClient(f).Logs(context.Background(), "video-worker", 5)
	require.Len(t, lines, 3)
	assert.Equal(t, "transcode started", lines[0])
	assert.Equal(t, "ffmpeg warning: deprecated option", lines[2])
}

func TestLogs_EmptyAndFailing(t *testing.T) {
	f := runner.NewFakeRunner()
	f.ScriptOutput("docker logs --tail 5 quiet", "")
	lines := newTestClient(f).Logs(context.Background(), "quiet", 5)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "no recent logs")

	f2 := runner.NewFakeRunner()
	f2.Script("docker logs --tail 5 gone", runner.Result{
		ExitCode: 1,
		Stderr:   []byte("Error: No such container: gone"),
	}, nil)
	lines = newTestClient(f2).Logs(context.Background(), "gone", 5)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Error getting logs")
}

const statsTable = "NAME\tCPU %\tMEM USAGE / LIMIT\tNET I/O\n" +
	"video-worker\t12.5%\t256MiB / 2GiB\t1.2MB / 800kB\n" +
	"ytipfs-worker\t0.3%\t0B / 0B\t15kB / 3kB\n" +
	"unrelated\t99.0%\t1GiB / 2GiB\t0B / 0B\n"

func TestStats_FiltersAndParses(t *testing.T) {
	f := runner.NewFakeRunner()
	f.ScriptOutput("docker stats --no-stream --format table {{.Name}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.NetIO}}", statsTable)
	// Fallback path for the 0B container
	f.ScriptOutput("docker inspect ytipfs-worker --format {{.State.Pid}}", "4242")

	c := newTestClient(f)
	c.readFile = func(path string) ([]byte, error) {
		if path == "/proc/4242/status" {
			return []byte("Name:\tnode\nVmRSS:\t  204800 kB\n"), nil
		}
		return nil, errors.New("not found")
	}

	stats := c.Stats(context.Background(), []string{"video-worker", "ytipfs-worker"})
	require.Len(t, stats, 2)

	assert.Equal(t, "12.5%", stats["video-worker"].CPU)
	assert.Equal(t, "256MiB", stats["video-worker"].Memory)
	assert.Equal(t, "1.2MB / 800kB", stats["video-worker"].Network)

	// 0B / 0B memory should have been replaced via the VmRSS fallback
	assert.Equal(t, "200.0MB", stats["ytipfs-worker"].Memory)

	_, ok := stats["unrelated"]
	assert.False(t, ok, "containers outside the filter must be dropped")
}

func TestStats_SmallReadingKeepsReportedValue(t *testing.T) {
	f := runner.NewFakeRunner()
	f.ScriptOutput("docker stats --no-stream --format table {{.Name}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.NetIO}}",
		"NAME\tCPU %\tMEM USAGE / LIMIT\tNET I/O\nytipfs-worker\t0.1%\t560B / 1GiB\t15kB / 3kB\n")

	c := newTestClient(f)
	c.readFile = func(path string) ([]byte, error) {
		t.Fatalf("fallback must not run for a non-zero reading, read %s", path)
		return nil, nil
	}

	stats := c.Stats(context.Background(), []string{"ytipfs-worker"})
	require.Len(t, stats, 1)
	assert.Equal(t, "560B", stats["ytipfs-worker"].Memory)
	assert.Equal(t, 1, f.CallCount(), "no inspect calls for the fallback")
}

func TestStats_FallbackToStatm(t *testing.T) {
	f := runner.NewFakeRunner()
	f.ScriptOutput("docker stats --no-stream --format table {{.Name}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.NetIO}}",
		"NAME\tCPU %\tMEM USAGE / LIMIT\tNET I/O\nytipfs-worker\t0.3%\t0B / 0B\t0B / 0B\n")
	f.ScriptOutput("docker inspect ytipfs-worker --format {{.State.Pid}}", "4242")

	c := newTestClient(f)
	c.readFile = func(path string) ([]byte, error) {
		if path == "/proc/4242/statm" {
			// 25600 resident pages * 4096 = 100 MiB
			return []byte("40000 25600 1000 100 0 500 0"), nil
		}
		return nil, errors.New("not found")
	}

	stats := c.Stats(context.Background(), []string{"ytipfs-worker"})
	assert.Equal(t, "100.0MB", stats["ytipfs-worker"].Memory)
}

func TestStats_FallbackToMemoryLimit(t *testing.T) {
	f := runner.NewFakeRunner()
	f.ScriptOutput("docker stats --no-stream --format table {{.Name}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.NetIO}}",
		"NAME\tCPU %\tMEM USAGE / LIMIT\tNET I/O\nytipfs-worker\t0.3%\t0B / 0B\t0B / 0B\n")
	f.ScriptOutput("docker inspect ytipfs-worker --format {{.State.Pid}}", "4242")
	f.ScriptOutput("docker inspect ytipfs-worker --format {{.HostConfig.Memory}}", "536870912")

	c := newTestClient(f)
	c.readFile = func(path string) ([]byte, error) {
		return nil, errors.New("not found")
	}

	stats := c.Stats(context.Background(), []string{"ytipfs-worker"})
	assert.Equal(t, "512.0MB", stats["ytipfs-worker"].Memory)
}

func TestStats_AllFallbacksExhausted(t *testing.T) {
	f := runner.NewFakeRunner()
	f.ScriptOutput("docker stats --no-stream --format table {{.Name}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.NetIO}}",
		"NAME\tCPU %\tMEM USAGE / LIMIT\tNET I/O\nytipfs-worker\t0.3%\t0B / 0B\t0B / 0B\n")

	c := newTestClient(f)
	c.readFile = func(path string) ([]byte, error) {
		return nil, errors.New("not found")
	}

	stats := c.Stats(context.Background(), []string{"ytipfs-worker"})
	assert.Equal(t, "N/A", stats["ytipfs-worker"].Memory)
}

func TestStats_DockerUnavailable(t *testing.T) {
	f := runner.NewFakeRunner()

	stats := newTestClient(f).Stats(context.Background(), []string{"video-worker"})
	assert.Empty(t, stats)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512B"},
		{2048, "2.0KB"},
		{5 * 1024 * 1024, "5.0MB"},
		{3 * 1024 * 1024 * 1024, "3.0GB"},
		{1536 * 1024 * 1024, "1.5GB"},
		{0, "0B"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.n))
	}
}
