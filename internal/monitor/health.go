package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sktbrd/skatehive-ops/internal/docker"
	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/mesh"
	"github.com/sktbrd/skatehive-ops/internal/runner"
)

// probeTimeout bounds a single HTTP health probe.
const probeTimeout = 10 * time.Second

// maxBodyBytes caps how much of a health response is read. Health
// endpoints return tiny JSON; anything larger is not worth buffering.
const maxBodyBytes = 1 << 20

// Checker executes one probe per service and classifies the outcome.
// It is stateless: identical calls against an unchanged backend yield
// identical results.
type Checker struct {
	http   *http.Client
	mesh   *mesh.Client
	docker *docker.Client
	log    logger.Logger
}

func NewChecker(run runner.Runner, log logger.Logger) *Checker {
	return &Checker{
		http:   &http.Client{Timeout: probeTimeout},
		mesh:   mesh.NewClient(run),
		docker: docker.NewClient(run, log),
		log:    log,
	}
}

// Check runs the service's configured strategy and returns the
// classified result. It never returns an error: every failure mode maps
// to a Down or Offline result with a detail string.
func (c *Checker) Check(ctx context.Context, svc ServiceDescriptor) HealthResult {
	switch svc.Strategy {
	case StrategyMeshPeer:
		return c.checkMeshPeer(ctx, svc)
	case StrategyJSONKey:
		return c.checkJSONKey(ctx, svc)
	default:
		return c.checkHTTPStatus(ctx, svc)
	}
}

func (c *Checker) checkHTTPStatus(ctx context.Context, svc ServiceDescriptor) HealthResult {
	status, _, elapsed, err := c.probe(ctx, svc.URL)
	if err != nil {
		return HealthResult{
			Service: svc.Name,
			Status:  StatusDown,
			Uptime:  "Unknown",
			Detail:  classifyNetworkError(err, svc),
		}
	}
	res := HealthResult{
		Service:      svc.Name,
		ResponseTime: elapsed,
		Responded:    true,
	}
	if status == svc.ExpectStatus {
		res.Status = StatusHealthy
		res.Detail = fmt.Sprintf("HTTP %d", status)
		res.Uptime = c.uptime(ctx, svc)
		return res
	}
	res.Status = StatusDown
	res.Uptime = "Unknown"
	res.Detail = fmt.Sprintf("HTTP %d (expected %d)", status, svc.ExpectStatus)
	return res
}

func (c *Checker) checkJSONKey(ctx context.Context, svc ServiceDescriptor) HealthResult {
	status, body, elapsed, err := c.probe(ctx, svc.URL)
	if err != nil {
		return HealthResult{
			Service: svc.Name,
			Status:  StatusDown,
			Uptime:  "Unknown",
			Detail:  classifyNetworkError(err, svc),
		}
	}
	res := HealthResult{
		Service:      svc.Name,
		ResponseTime: elapsed,
		Responded:    true,
		Status:       StatusDown,
		Uptime:       "Unknown",
	}
	if status != http.StatusOK {
		res.Detail = fmt.Sprintf("HTTP %d", status)
		return res
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		res.Detail = "Invalid JSON response"
		return res
	}
	observed, present := payload[svc.JSONKey]
	if !present {
		res.Detail = fmt.Sprintf("%s missing (expected %v)", svc.JSONKey, svc.JSONValue)
		return res
	}
	if !jsonEqual(observed, svc.JSONValue) {
		res.Detail = fmt.Sprintf("%s=%v (expected %v)", svc.JSONKey, observed, svc.JSONValue)
		return res
	}
	res.Status = StatusHealthy
	res.Detail = fmt.Sprintf("%s=%v", svc.JSONKey, observed)
	res.Uptime = c.uptime(ctx, svc)
	return res
}

// checkMeshPeer gates the HTTP probe behind mesh reachability: a peer
// missing from the mesh, or present but offline, short-circuits to
// Offline and no probe result is trusted.
func (c *Checker) checkMeshPeer(ctx context.Context, svc ServiceDescriptor) HealthResult {
	res := HealthResult{Service: svc.Name, Status: StatusOffline, Uptime: "Unknown"}

	status, err := c.mesh.Status(ctx)
	if err != nil {
		res.Detail = fmt.Sprintf("Mesh status unavailable (%s)", svc.NodeName)
		return res
	}
	peer := status.FindPeer(svc.PeerHostname)
	if peer == nil {
		res.Detail = fmt.Sprintf("Not in mesh (%s)", svc.NodeName)
		return res
	}
	if !peer.Online {
		res.Detail = fmt.Sprintf("Offline in mesh (%s)", svc.NodeName)
		return res
	}

	httpStatus, body, elapsed, err := c.probe(ctx, svc.URL)
	if err != nil {
		res.Status = StatusDown
		res.Detail = classifyPeerProbeError(err)
		return res
	}
	res.ResponseTime = elapsed
	res.Responded = true
	res.Status = StatusDown
	if httpStatus != http.StatusOK {
		res.Detail = fmt.Sprintf("HTTP %d", httpStatus)
		return res
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		res.Detail = "Invalid JSON response"
		return res
	}
	observed, present := payload[svc.JSONKey]
	if !present || !jsonEqual(observed, svc.JSONValue) {
		value := "missing"
		if present {
			value = fmt.Sprintf("%v", observed)
		}
		res.Detail = fmt.Sprintf("%s=%s (expected %v)", svc.JSONKey, value, svc.JSONValue)
		return res
	}
	res.Status = StatusHealthy
	res.Detail = fmt.Sprintf("%s=%v", svc.JSONKey, observed)
	return res
}

// probe issues a timed GET. A non-nil error means the call itself
// failed; an HTTP error status is not an error here.
func (c *Checker) probe(ctx context.Context, url string) (int, []byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, elapsed, nil
}

// uptime looks up the backing container's uptime for healthy local
// services. Remote containers cannot be inspected from here.
func (c *Checker) uptime(ctx context.Context, svc ServiceDescriptor) string {
	if svc.Remote || svc.Container == "" {
		return "Unknown"
	}
	return c.docker.Uptime(ctx, svc.Container)
}

// classifyNetworkError turns a failed HTTP call into the operator-facing
// detail string. Remote services get node-qualified funnel messages.
func classifyNetworkError(err error, svc ServiceDescriptor) string {
	msg := strings.ToLower(err.Error())
	if svc.Remote {
		switch {
		case strings.Contains(msg, "timeout"):
			return fmt.Sprintf("Funnel timeout (%s)", svc.NodeName)
		case strings.Contains(msg, "connection"):
			return fmt.Sprintf("Funnel down (%s)", svc.NodeName)
		default:
			return fmt.Sprintf("Funnel offline (%s)", svc.NodeName)
		}
	}
	switch {
	case strings.Contains(msg, "timeout"):
		return "Connection timeout"
	case strings.Contains(msg, "connection"):
		return "Connection refused"
	}
	return "Network error: " + truncate(err.Error(), 30)
}

// classifyPeerProbeError describes a probe failure against a peer whose
// device is known to be online in the mesh.
func classifyPeerProbeError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "Device online, service timeout"
	case strings.Contains(msg, "refused"):
		return "Device online, service down"
	}
	return "Device online, service unreachable"
}

// jsonEqual compares a decoded JSON value against an expectation with
// exact type-and-value semantics: bool true never matches "true".
// Integer expectations are normalized to float64 to match the decoder.
func jsonEqual(observed, expected any) bool {
	switch want := expected.(type) {
	case int:
		f, ok := observed.(float64)
		return ok && f == float64(want)
	case float64:
		f, ok := observed.(float64)
		return ok && f == want
	default:
		return observed == expected
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
