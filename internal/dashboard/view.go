package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sktbrd/skatehive-ops/internal/monitor"
)

func (m Model) render() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	services := m.renderServicesPanel()
	network := m.renderNetworkPanel()
	stats := m.renderStatsPanel()

	switch m.LayoutMode() {
	case LayoutWide:
		side := lipgloss.JoinVertical(lipgloss.Left, network, stats)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, services, side))
	default:
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, services, network, stats))
	}

	if m.showLogs && m.LayoutMode() != LayoutMinimal {
		b.WriteString("\n")
		b.WriteString(m.renderLogsPanel())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render("skatehive ops")

	var updateText string
	switch age := m.SecondsSinceUpdate(); {
	case m.lastUpdate.IsZero():
		updateText = "collecting " + m.spinner()
	case age <= 1:
		updateText = "just now"
	default:
		updateText = fmt.Sprintf("%ds ago", age)
	}

	stats := LabelStyle.Render(fmt.Sprintf(" | %s | %d services | %d healthy | updated %s",
		m.cfg.DisplayName, len(m.services), m.HealthyCount(), updateText))
	return HeaderStyle.Render(title + stats)
}

func (m Model) renderServicesPanel() string {
	var rows []string
	rows = append(rows, TitleStyle.Render("Services"))

	for i, svc := range m.services {
		res, checked := m.results[svc.Name]

		glyph, style := GlyphPending, PendingStyle
		detail := "checking " + m.spinner()
		if checked {
			switch res.Status {
			case monitor.StatusHealthy:
				glyph, style = GlyphHealthy, HealthyStyle
			case monitor.StatusOffline:
				glyph, style = GlyphOffline, OfflineStyle
			default:
				glyph, style = GlyphDown, DownStyle
			}
			detail = res.Detail
		}

		name := svc.Name
		if i == m.selected {
			name = ValueStyle.Bold(true).Render("▸ " + name)
		} else {
			name = ValueStyle.Render("  " + name)
		}

		line := fmt.Sprintf("%s %s  %s", style.Render(glyph), name, LabelStyle.Render(detail))
		if checked && res.Responded {
			line += LabelStyle.Render(fmt.Sprintf("  %dms", res.ResponseTime.Milliseconds()))
		}
		rows = append(rows, line)

		if sample, ok := m.resources[svc.Container]; ok && !svc.Remote {
			rows = append(rows, LabelStyle.Render(fmt.Sprintf("    cpu %s  mem %s  net %s  up %s",
				sample.CPU, sample.Memory, sample.Network, m.uptimeFor(svc.Name))))
		}
	}

	return PanelStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) uptimeFor(service string) string {
	if res, ok := m.results[service]; ok && res.Uptime != "" {
		return res.Uptime
	}
	return "Unknown"
}

func (m Model) renderNetworkPanel() string {
	var rows []string
	rows = append(rows, TitleStyle.Render("Network"))

	if !m.checked {
		rows = append(rows, LabelStyle.Render("internet: checking "+m.spinner()))
	} else if m.internet.Online {
		rows = append(rows, fmt.Sprintf("%s %s %s",
			HealthyStyle.Render(GlyphHealthy),
			ValueStyle.Render("internet"),
			LabelStyle.Render(fmt.Sprintf("%dms", m.internet.Latency.Milliseconds()))))
	} else {
		rows = append(rows, fmt.Sprintf("%s %s",
			DownStyle.Render(GlyphDown), ValueStyle.Render("internet offline")))
	}

	speed := m.mon.CachedSpeedTest()
	switch speed.Phase {
	case monitor.SpeedRunning:
		rows = append(rows, LabelStyle.Render("speed test running "+m.spinner()))
	case monitor.SpeedComplete:
		rows = append(rows, fmt.Sprintf("%s %s",
			ValueStyle.Render(fmt.Sprintf("↓ %.1f Mbps  ↑ %.1f Mbps  %.0fms", speed.DownloadMbps, speed.UploadMbps, speed.PingMs)),
			LabelStyle.Render(ageText(speed.CompletedAt))))
	case monitor.SpeedFailed:
		rows = append(rows, DownStyle.Render("speed test failed: ")+LabelStyle.Render(speed.Err))
		if !speed.CompletedAt.IsZero() {
			rows = append(rows, LabelStyle.Render(fmt.Sprintf("last good: ↓ %.1f ↑ %.1f Mbps %s",
				speed.DownloadMbps, speed.UploadMbps, ageText(speed.CompletedAt))))
		}
	default:
		rows = append(rows, LabelStyle.Render("speed test pending"))
	}

	return PanelStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderStatsPanel() string {
	stats := m.mon.CachedStats()

	var rows []string
	rows = append(rows, TitleStyle.Render("Community "+m.cfg.HiveCommunity))

	if stats.FetchedAt.IsZero() {
		if stats.Err != "" {
			rows = append(rows, DownStyle.Render("stats unavailable"))
			rows = append(rows, LabelStyle.Render(stats.Err))
		} else {
			rows = append(rows, LabelStyle.Render("fetching "+m.spinner()))
		}
		return PanelStyle.Render(strings.Join(rows, "\n"))
	}

	rows = append(rows,
		statLine("subscribers", fmt.Sprintf("%d", stats.Subscribers)),
		statLine("posts", fmt.Sprintf("%d", stats.Posts)),
		statLine("comments", fmt.Sprintf("%d", stats.Comments)),
		statLine("authors (30d)", fmt.Sprintf("%d", stats.ActiveAuthors)),
		statLine("payouts", fmt.Sprintf("%.0f HBD", stats.PayoutsHBD)),
	)
	if stats.Err != "" {
		rows = append(rows, DownStyle.Render("refresh failed, showing ")+LabelStyle.Render(ageText(stats.FetchedAt)))
	} else {
		rows = append(rows, LabelStyle.Render("fetched "+ageText(stats.FetchedAt)))
	}

	return PanelStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderLogsPanel() string {
	svc := m.selectedService()
	title := "Logs"
	if svc != nil {
		title = "Logs: " + svc.Container
	}

	rows := []string{TitleStyle.Render(title)}
	if len(m.logs) == 0 {
		rows = append(rows, LabelStyle.Render("loading "+m.spinner()))
	}
	for _, line := range m.logs {
		rows = append(rows, LabelStyle.Render(line))
	}
	return PanelSelectedStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"r refresh",
		"s speed test",
		"l logs",
		"↑↓ select",
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

func statLine(label, value string) string {
	return fmt.Sprintf("%s %s", LabelStyle.Render(label+":"), ValueStyle.Render(value))
}

// ageText renders how long ago a timestamp was, coarsely.
func ageText(t time.Time) string {
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
}
