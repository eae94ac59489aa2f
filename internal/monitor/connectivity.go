package monitor

import (
	"context"
	"net/http"
	"time"
)

// internetProbeURL is a well-known endpoint used purely as a
// reachability beacon; the response content is irrelevant.
const internetProbeURL = "https://8.8.8.8"

const internetProbeTimeout = 5 * time.Second

// CheckInternet reports whether the outside world is reachable at all,
// with the round-trip latency when it is. Any failure is simply Offline.
func (c *Checker) CheckInternet(ctx context.Context) ConnectivityResult {
	ctx, cancel := context.WithTimeout(ctx, internetProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, internetProbeURL, nil)
	if err != nil {
		return ConnectivityResult{}
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return ConnectivityResult{}
	}
	resp.Body.Close()
	return ConnectivityResult{Online: true, Latency: time.Since(start)}
}
