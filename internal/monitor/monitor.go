package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/sktbrd/skatehive-ops/internal/config"
	"github.com/sktbrd/skatehive-ops/internal/docker"
	"github.com/sktbrd/skatehive-ops/internal/errors"
	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/runner"
)

// Options configures a Monitor. Zero values take sane defaults.
type Options struct {
	Runner runner.Runner
	Logger logger.Logger
}

// Monitor owns the service registry and the two cached singletons
// (speed test, community stats), each guarded by its own mutex. All
// Cached* accessors return copies and never perform I/O; refreshes are
// explicit, separately triggered operations.
type Monitor struct {
	services []ServiceDescriptor
	checker  *Checker
	docker   *docker.Client
	fetcher  *StatsFetcher
	run      runner.Runner
	log      logger.Logger

	// now is replaceable in tests to control staleness decisions.
	now func() time.Time

	speedMu sync.Mutex
	speed   SpeedTestResult

	statsMu         sync.Mutex
	stats           CommunityStats
	statsRefreshing bool

	// baseCtx bounds background work; Close cancels it, killing any
	// in-flight speed test process.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Monitor from configuration. The registry is immutable
// after this point.
func New(cfg *config.Config, opts Options) *Monitor {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	run := opts.Runner
	if run == nil {
		run = runner.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		services: buildRegistry(cfg),
		checker:  NewChecker(run, log),
		docker:   docker.NewClient(run, log),
		fetcher:  NewStatsFetcher(cfg.HiveStatsURL, cfg.HiveCommunity, log),
		run:      run,
		log:      log,
		now:      time.Now,
		speed:    SpeedTestResult{Phase: SpeedInitializing},
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Services returns the registry. The returned slice is a copy; the
// registry itself never changes.
func (m *Monitor) Services() []ServiceDescriptor {
	out := make([]ServiceDescriptor, len(m.services))
	copy(out, m.services)
	return out
}

// CheckHealth probes one service by name. Unknown names are the only
// error path; probe failures come back inside the HealthResult.
func (m *Monitor) CheckHealth(ctx context.Context, name string) (HealthResult, error) {
	for _, svc := range m.services {
		if svc.Name == name {
			return m.checker.Check(ctx, svc), nil
		}
	}
	return HealthResult{}, errors.New(errors.ErrProbe,
		"unknown service: "+name,
		"Known services come from the node registry; check the config")
}

// CheckAll probes every registered service sequentially and returns the
// results in registry order.
func (m *Monitor) CheckAll(ctx context.Context) []HealthResult {
	results := make([]HealthResult, 0, len(m.services))
	for _, svc := range m.services {
		results = append(results, m.checker.Check(ctx, svc))
	}
	return results
}

// CheckInternet reports basic internet reachability.
func (m *Monitor) CheckInternet(ctx context.Context) ConnectivityResult {
	return m.checker.CheckInternet(ctx)
}

// CachedSpeedTest returns a copy of the speed test singleton.
func (m *Monitor) CachedSpeedTest() SpeedTestResult {
	m.speedMu.Lock()
	defer m.speedMu.Unlock()
	return m.speed
}

// TriggerSpeedTest starts a benchmark in the background. Single-flight:
// a trigger while one is already running is a no-op. The result lands
// in the singleton; a failed run keeps the previous successful
// measurement.
func (m *Monitor) TriggerSpeedTest() {
	m.speedMu.Lock()
	if m.speed.Phase == SpeedRunning {
		m.speedMu.Unlock()
		return
	}
	m.speed.Phase = SpeedRunning
	m.speedMu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		res, err := runSpeedTest(m.baseCtx, m.run, m.log)

		m.speedMu.Lock()
		defer m.speedMu.Unlock()
		if err != nil {
			m.speed.Phase = SpeedFailed
			m.speed.Err = err.Error()
			return
		}
		m.speed = SpeedTestResult{
			Phase:        SpeedComplete,
			DownloadMbps: res.downloadMbps,
			UploadMbps:   res.uploadMbps,
			PingMs:       res.pingMs,
			CompletedAt:  m.now(),
		}
	}()
}

// RunSpeedTest runs the benchmark synchronously and returns the result.
// The cached singleton is updated the same way the background trigger
// would update it.
func (m *Monitor) RunSpeedTest(ctx context.Context) (SpeedTestResult, error) {
	res, err := runSpeedTest(ctx, m.run, m.log)

	m.speedMu.Lock()
	defer m.speedMu.Unlock()
	if err != nil {
		m.speed.Phase = SpeedFailed
		m.speed.Err = err.Error()
		return m.speed, err
	}
	m.speed = SpeedTestResult{
		Phase:        SpeedComplete,
		DownloadMbps: res.downloadMbps,
		UploadMbps:   res.uploadMbps,
		PingMs:       res.pingMs,
		CompletedAt:  m.now(),
	}
	return m.speed, nil
}

// CachedStats returns a copy of the community stats singleton.
func (m *Monitor) CachedStats() CommunityStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// MaybeRefreshStats fetches community stats only when the cache is
// empty or older than StatsStaleAfter. The fetch is synchronous; the
// dashboard runs it off its render loop. A failed fetch records the
// error and keeps the stale payload.
func (m *Monitor) MaybeRefreshStats(ctx context.Context) {
	m.statsMu.Lock()
	fresh := !m.stats.FetchedAt.IsZero() && m.now().Sub(m.stats.FetchedAt) < StatsStaleAfter
	if fresh || m.statsRefreshing {
		m.statsMu.Unlock()
		return
	}
	m.statsRefreshing = true
	m.statsMu.Unlock()

	stats, err := m.fetcher.Fetch(ctx)

	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	m.statsRefreshing = false
	if err != nil {
		m.log.Warn("stats refresh failed: %v", err)
		m.stats.Err = err.Error()
		return
	}
	m.stats = stats
}

// SampleResources reads one container's CPU/memory/network usage. On
// demand, never cached; a missing container reads as "N/A" throughout.
func (m *Monitor) SampleResources(ctx context.Context, container string) ResourceSample {
	stats := m.docker.Stats(ctx, []string{container})
	s, ok := stats[container]
	if !ok {
		return ResourceSample{CPU: "N/A", Memory: "N/A", Network: "N/A"}
	}
	return ResourceSample{CPU: s.CPU, Memory: s.Memory, Network: s.Network}
}

// SampleAllResources batch-queries resource usage for every registered
// local container in a single stats call.
func (m *Monitor) SampleAllResources(ctx context.Context) map[string]ResourceSample {
	var containers []string
	seen := map[string]bool{}
	for _, svc := range m.services {
		if svc.Remote || svc.Container == "" || seen[svc.Container] {
			continue
		}
		seen[svc.Container] = true
		containers = append(containers, svc.Container)
	}
	stats := m.docker.Stats(ctx, containers)
	out := make(map[string]ResourceSample, len(containers))
	for _, name := range containers {
		if s, ok := stats[name]; ok {
			out[name] = ResourceSample{CPU: s.CPU, Memory: s.Memory, Network: s.Network}
		} else {
			out[name] = ResourceSample{CPU: "N/A", Memory: "N/A", Network: "N/A"}
		}
	}
	return out
}

// ContainerLogs tails a local container's recent log lines for the
// dashboard detail view.
func (m *Monitor) ContainerLogs(ctx context.Context, container string, n int) []string {
	return m.docker.Logs(ctx, container, n)
}

// Close cancels background work, including any in-flight speed test
// process, and waits for it to wind down.
func (m *Monitor) Close() {
	m.cancel()
	m.wg.Wait()
}
