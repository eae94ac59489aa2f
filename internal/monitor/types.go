package monitor

import "time"

// Status is the classified outcome of one health probe.
type Status string

const (
	// StatusHealthy means the probe completed and met its expectation.
	StatusHealthy Status = "healthy"

	// StatusDown means the service was reachable but failed its
	// expectation, or the probe itself failed for a local service.
	StatusDown Status = "down"

	// StatusOffline means the owning node is unreachable at the mesh
	// layer; no probe result is trusted.
	StatusOffline Status = "offline"
)

// Strategy selects how a service is probed.
type Strategy string

const (
	// StrategyHTTPStatus compares the response status code against
	// ExpectStatus.
	StrategyHTTPStatus Strategy = "http-status"

	// StrategyJSONKey asserts that the JSON body's JSONKey equals
	// JSONValue with an exact type-and-value match.
	StrategyJSONKey Strategy = "json-key-equality"

	// StrategyMeshPeer first requires the owning peer to be online in the
	// mesh, then probes over HTTP.
	StrategyMeshPeer Strategy = "mesh-peer-presence"
)

// ServiceDescriptor is the static configuration for one monitored
// service. The registry is built once at Monitor construction and is
// immutable afterwards; names are unique within it.
type ServiceDescriptor struct {
	Name      string
	URL       string
	Container string
	Strategy  Strategy

	// ExpectStatus applies to StrategyHTTPStatus.
	ExpectStatus int

	// JSONKey and JSONValue apply to StrategyJSONKey. JSONValue is
	// compared as decoded JSON: bool true does not match string "true".
	JSONKey   string
	JSONValue any

	// PeerHostname applies to StrategyMeshPeer: the owning node's mesh
	// hostname.
	PeerHostname string

	// Remote marks services owned by another node; NodeName is that
	// node's display name, used in failure details.
	Remote   bool
	NodeName string
}

// HealthResult is the transient outcome of one probe. It is returned to
// the caller and never retained by the core.
type HealthResult struct {
	Service      string
	Status       Status
	ResponseTime time.Duration

	// Responded reports whether the probe completed; when false,
	// ResponseTime is meaningless.
	Responded bool

	// Uptime is the backing container's formatted uptime, or "Unknown".
	Uptime string

	Detail string
}

// SpeedPhase is the lifecycle state of the speed test singleton.
type SpeedPhase string

const (
	SpeedInitializing SpeedPhase = "initializing"
	SpeedRunning      SpeedPhase = "running"
	SpeedComplete     SpeedPhase = "complete"
	SpeedFailed       SpeedPhase = "failed"
)

// SpeedTestResult is the cached speed test state. A Failed run keeps the
// last successful measurement; only a new Complete run replaces it.
type SpeedTestResult struct {
	Phase        SpeedPhase
	DownloadMbps float64
	UploadMbps   float64
	PingMs       float64

	// CompletedAt is the timestamp of the last successful run; zero when
	// none has succeeded.
	CompletedAt time.Time

	// Err is the last failure message; cleared on success.
	Err string
}

// CommunityStats is the cached community statistics state. FetchedAt is
// set iff Stats reflects that fetch.
type CommunityStats struct {
	Subscribers   int
	Posts         int
	Comments      int
	ActiveAuthors int
	PayoutsHBD    float64

	FetchedAt time.Time

	// Err is the last fetch failure; stale values above remain valid.
	Err string
}

// ResourceSample is a point-in-time container resource reading. Fields
// are preformatted display strings; "N/A" marks an unreadable source.
type ResourceSample struct {
	CPU     string
	Memory  string
	Network string
}

// ConnectivityResult is the outcome of the quick internet reachability
// probe.
type ConnectivityResult struct {
	Online  bool
	Latency time.Duration
}
