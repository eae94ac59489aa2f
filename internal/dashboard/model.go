// Package dashboard renders the terminal dashboard. It is a thin
// consumer of the monitor aggregator: every tick asks the monitor for
// fresh data inside commands, and the model only ever stores the
// returned copies.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sktbrd/skatehive-ops/internal/config"
	"github.com/sktbrd/skatehive-ops/internal/monitor"
)

// Refresh cadences. Health, speed test and stats run on independent
// schedules; a slow speed test never delays a health cycle because each
// runs in its own command goroutine.
const (
	healthInterval    = 10 * time.Second
	speedTestInterval = 15 * time.Minute
	spinnerInterval   = 150 * time.Millisecond

	logTailLines = 15
)

// healthCycleTimeout bounds one full health collection pass.
const healthCycleTimeout = 30 * time.Second

// LayoutMode selects the responsive layout based on terminal width.
type LayoutMode int

const (
	// LayoutMinimal is for terminals < 80 columns: single column, no log panel.
	LayoutMinimal LayoutMode = iota
	// LayoutCompact is for terminals 80-120 columns: stacked panels.
	LayoutCompact
	// LayoutWide is for terminals 120+ columns: side-by-side panels.
	LayoutWide
)

const (
	breakpointCompact = 80
	breakpointWide    = 120
)

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	cfg      *config.Config
	mon      *monitor.Monitor
	services []monitor.ServiceDescriptor

	results   map[string]monitor.HealthResult
	resources map[string]monitor.ResourceSample
	internet  monitor.ConnectivityResult
	checked   bool

	selected   int
	showLogs   bool
	logs       []string
	width      int
	height     int
	lastUpdate time.Time
	quitting   bool

	sp spinner.Model
}

type healthTickMsg time.Time

type speedTickMsg time.Time

// healthResultsMsg carries one full collection cycle: health, resources
// and the internet probe, gathered together off the render loop.
type healthResultsMsg struct {
	results   []monitor.HealthResult
	resources map[string]monitor.ResourceSample
	internet  monitor.ConnectivityResult
	time      time.Time
}

// statsRefreshedMsg signals that MaybeRefreshStats finished; the model
// re-reads the cache on next render.
type statsRefreshedMsg struct{}

type logsMsg struct {
	lines []string
}

// NewModel builds the dashboard model for the given monitor.
func NewModel(cfg *config.Config, mon *monitor.Monitor) Model {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = PendingStyle

	return Model{
		cfg:       cfg,
		mon:       mon,
		services:  mon.Services(),
		results:   make(map[string]monitor.HealthResult),
		resources: make(map[string]monitor.ResourceSample),
		sp:        sp,
	}
}

// Init kicks off all three cadences plus the spinner.
func (m Model) Init() tea.Cmd {
	m.mon.TriggerSpeedTest()
	return tea.Batch(
		m.collectCmd(),
		m.statsCmd(),
		m.healthTickCmd(),
		m.speedTickCmd(),
		m.sp.Tick,
	)
}

// Update handles messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case healthTickMsg:
		// Stats piggyback on the health tick; the 300s staleness gate
		// inside the monitor makes the extra calls free.
		return m, tea.Batch(m.healthTickCmd(), m.collectCmd(), m.statsCmd())

	case speedTickMsg:
		m.mon.TriggerSpeedTest()
		return m, m.speedTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd

	case healthResultsMsg:
		m.lastUpdate = msg.time
		m.checked = true
		m.internet = msg.internet
		m.resources = msg.resources
		for _, res := range msg.results {
			m.results[res.Service] = res
		}
		if m.showLogs {
			return m, m.logsCmd()
		}

	case statsRefreshedMsg:
		// Nothing to store; View reads the monitor's cache.

	case logsMsg:
		m.logs = msg.lines
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

func (m Model) healthTickCmd() tea.Cmd {
	return tea.Tick(healthInterval, func(t time.Time) tea.Msg {
		return healthTickMsg(t)
	})
}

func (m Model) speedTickCmd() tea.Cmd {
	return tea.Tick(speedTestInterval, func(t time.Time) tea.Msg {
		return speedTickMsg(t)
	})
}

// collectCmd gathers one full refresh cycle in a command goroutine.
func (m Model) collectCmd() tea.Cmd {
	mon := m.mon
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthCycleTimeout)
		defer cancel()

		results := mon.CheckAll(ctx)
		resources := mon.SampleAllResources(ctx)
		internet := mon.CheckInternet(ctx)
		return healthResultsMsg{
			results:   results,
			resources: resources,
			internet:  internet,
			time:      time.Now(),
		}
	}
}

func (m Model) statsCmd() tea.Cmd {
	mon := m.mon
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthCycleTimeout)
		defer cancel()
		mon.MaybeRefreshStats(ctx)
		return statsRefreshedMsg{}
	}
}

func (m Model) logsCmd() tea.Cmd {
	svc := m.selectedService()
	if svc == nil || svc.Remote || svc.Container == "" {
		return func() tea.Msg { return logsMsg{lines: []string{"No logs for this service"}} }
	}
	mon := m.mon
	container := svc.Container
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthCycleTimeout)
		defer cancel()
		return logsMsg{lines: mon.ContainerLogs(ctx, container, logTailLines)}
	}
}

func (m Model) selectedService() *monitor.ServiceDescriptor {
	if m.selected < 0 || m.selected >= len(m.services) {
		return nil
	}
	return &m.services[m.selected]
}

// LayoutMode returns the responsive layout for the current width.
func (m Model) LayoutMode() LayoutMode {
	switch {
	case m.width >= breakpointWide:
		return LayoutWide
	case m.width >= breakpointCompact:
		return LayoutCompact
	default:
		return LayoutMinimal
	}
}

// HealthyCount returns how many services are currently healthy.
func (m Model) HealthyCount() int {
	count := 0
	for _, res := range m.results {
		if res.Status == monitor.StatusHealthy {
			count++
		}
	}
	return count
}

// SecondsSinceUpdate reports the age of the last completed cycle.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}

func (m Model) spinner() string {
	return m.sp.View()
}
