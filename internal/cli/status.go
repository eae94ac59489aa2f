package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sktbrd/skatehive-ops/internal/monitor"
)

// oneShotTimeout bounds the whole status/health probe pass.
const oneShotTimeout = 60 * time.Second

var (
	statusHealthyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#39FF14"))
	statusDownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0055"))
	statusOfflineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B6B8D"))
	statusNameStyle    = lipgloss.NewStyle().Bold(true)
	statusDetailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B4B4D0"))
)

// statusCommand probes every service once and prints the results.
func statusCommand(configPath string, asJSON bool) error {
	_, mon, err := buildMonitor(configPath)
	if err != nil {
		return err
	}
	defer mon.Close()

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	results := mon.CheckAll(ctx)
	if asJSON {
		return printStatusJSON(results)
	}
	printStatusTable(results)
	return nil
}

func printStatusTable(results []monitor.HealthResult) {
	for _, res := range results {
		glyph := statusGlyph(res.Status)
		line := fmt.Sprintf("%s %s  %s",
			glyph,
			statusNameStyle.Render(fmt.Sprintf("%-22s", res.Service)),
			statusDetailStyle.Render(res.Detail))
		if res.Responded {
			line += statusDetailStyle.Render(fmt.Sprintf("  %dms", res.ResponseTime.Milliseconds()))
		}
		if res.Uptime != "" && res.Uptime != "Unknown" {
			line += statusDetailStyle.Render("  up " + res.Uptime)
		}
		fmt.Println(line)
	}
}

func statusGlyph(status monitor.Status) string {
	switch status {
	case monitor.StatusHealthy:
		return statusHealthyStyle.Render("●")
	case monitor.StatusOffline:
		return statusOfflineStyle.Render("○")
	default:
		return statusDownStyle.Render("●")
	}
}

// statusJSONEntry is the machine-readable shape of one probe result.
type statusJSONEntry struct {
	Service      string `json:"service"`
	Status       string `json:"status"`
	Detail       string `json:"detail"`
	ResponseMS   int64  `json:"response_ms,omitempty"`
	Uptime       string `json:"uptime,omitempty"`
	CheckedAtUTC string `json:"checked_at"`
}

func statusEntries(results []monitor.HealthResult, now time.Time) []statusJSONEntry {
	checkedAt := now.UTC().Format(time.RFC3339)
	entries := make([]statusJSONEntry, 0, len(results))
	for _, res := range results {
		entry := statusJSONEntry{
			Service:      res.Service,
			Status:       string(res.Status),
			Detail:       res.Detail,
			Uptime:       res.Uptime,
			CheckedAtUTC: checkedAt,
		}
		if res.Responded {
			entry.ResponseMS = res.ResponseTime.Milliseconds()
		}
		entries = append(entries, entry)
	}
	return entries
}

func printStatusJSON(results []monitor.HealthResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(statusEntries(results, time.Now()))
}
