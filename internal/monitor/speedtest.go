package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/runner"
)

// speedTestTimeout is the hard wall clock per candidate command; the
// process is killed when it elapses.
const speedTestTimeout = 120 * time.Second

// speedCandidates are tried in order. Different distros install
// different binaries (Ookla CLI vs the Python speedtest-cli), and some
// hosts only have them outside PATH.
var speedCandidates = []struct {
	name string
	args []string
}{
	{"speedtest", []string{"--format=json"}},
	{"speedtest", []string{"--json"}},
	{"speedtest-cli", []string{"--json"}},
	{"/usr/bin/speedtest", []string{"--format=json"}},
	{"/usr/local/bin/speedtest", []string{"--format=json"}},
}

// measurement is a normalized benchmark reading: megabits per second
// for throughput, milliseconds for ping.
type measurement struct {
	downloadMbps float64
	uploadMbps   float64
	pingMs       float64
}

// runSpeedTest tries each candidate until one produces a parseable
// result. A missing binary falls through silently; any other failure
// falls through recording its error, and the most specific error seen
// is returned when every candidate fails.
func runSpeedTest(ctx context.Context, run runner.Runner, log logger.Logger) (measurement, error) {
	lastErr := ""
	found := false
	for _, cand := range speedCandidates {
		cctx, cancel := context.WithTimeout(ctx, speedTestTimeout)
		res, err := run.Run(cctx, cand.name, cand.args...)
		timedOut := cctx.Err() == context.DeadlineExceeded
		cancel()

		if err != nil {
			if runner.IsNotFound(err) {
				continue
			}
			if timedOut {
				lastErr = "Test timeout (>2min)"
			} else if lastErr == "" {
				lastErr = err.Error()
			}
			found = true
			continue
		}
		found = true
		if timedOut || res.ExitCode != 0 {
			if timedOut {
				lastErr = "Test timeout (>2min)"
			} else {
				lastErr = speedErrorFromStderr(string(res.Stderr))
			}
			continue
		}
		m, perr := parseSpeedOutput(string(res.Stdout))
		if perr != nil {
			lastErr = perr.Error()
			continue
		}
		log.Debug("speed test via %s: %.1f/%.1f Mbps, %.1f ms",
			cand.name, m.downloadMbps, m.uploadMbps, m.pingMs)
		return m, nil
	}
	if !found {
		return measurement{}, errors.New("speedtest command not found")
	}
	if lastErr == "" {
		lastErr = "command failed"
	}
	return measurement{}, errors.New(lastErr)
}

// speedErrorFromStderr extracts the most specific error available from
// a failed run: an explicit "Error:" line beats a timeout hint beats the
// raw stderr beats a generic fallback.
func speedErrorFromStderr(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Error:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	if strings.Contains(strings.ToLower(stderr), "timeout") {
		return "Connection timeout"
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return truncate(s, 80)
	}
	return "command failed"
}

// parseSpeedOutput accepts the three known output shapes: Ookla JSON
// (bandwidth in bytes/s nested under download/upload, ping under
// ping.latency), speedtest-cli flat JSON (bits/s), and a textual
// capitalized-key format.
func parseSpeedOutput(out string) (measurement, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return parseTextSpeedOutput(out)
	}

	if dl, ok := payload["download"].(map[string]any); ok {
		bw, _ := dl["bandwidth"].(float64)
		m := measurement{downloadMbps: bw * 8 / 1e6}
		if ul, ok := payload["upload"].(map[string]any); ok {
			bw, _ := ul["bandwidth"].(float64)
			m.uploadMbps = bw * 8 / 1e6
		}
		if ping, ok := payload["ping"].(map[string]any); ok {
			m.pingMs, _ = ping["latency"].(float64)
		}
		return m, nil
	}

	if dl, ok := payload["download"].(float64); ok {
		m := measurement{downloadMbps: dl / 1e6}
		if ul, ok := payload["upload"].(float64); ok {
			m.uploadMbps = ul / 1e6
		}
		if ping, ok := payload["ping"].(float64); ok {
			m.pingMs = ping
		}
		return m, nil
	}

	return measurement{}, errors.New("unrecognized speedtest output shape")
}

// parseTextSpeedOutput handles the human-readable variant, e.g.
// "Download: 93.81 Mbit/s" lines. The first numeric token after the
// label is taken at face value.
func parseTextSpeedOutput(out string) (measurement, error) {
	var m measurement
	matched := false
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		for _, label := range []string{"Download:", "Upload:", "Ping:"} {
			rest, ok := strings.CutPrefix(line, label)
			if !ok {
				continue
			}
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				continue
			}
			val, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				continue
			}
			matched = true
			switch label {
			case "Download:":
				m.downloadMbps = val
			case "Upload:":
				m.uploadMbps = val
			case "Ping:":
				m.pingMs = val
			}
		}
	}
	if !matched {
		return measurement{}, errors.New("unrecognized speedtest output shape")
	}
	return m, nil
}
