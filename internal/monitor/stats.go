package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/sktbrd/skatehive-ops/internal/errors"
	"github.com/sktbrd/skatehive-ops/internal/logger"
)

// StatsStaleAfter is how old cached community stats may get before the
// aggregator triggers a refresh. The fetcher itself never checks age.
const StatsStaleAfter = 300 * time.Second

const statsFetchTimeout = 10 * time.Second

// statsMarkerKey identifies the stats object inside whatever wrapper
// the endpoint happens to return this week.
const statsMarkerKey = "total_subscribers"

// StatsFetcher pulls community statistics from the external read-only
// endpoint. The upstream is flaky enough to deserve both retry and a
// circuit breaker; a tripped breaker surfaces as a fetch error and the
// caller keeps its stale cache.
type StatsFetcher struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[map[string]any]
	log     logger.Logger
}

func NewStatsFetcher(statsURL, community string, log logger.Logger) *StatsFetcher {
	f := &StatsFetcher{
		url:  fmt.Sprintf("%s?c=%s", statsURL, community),
		http: &http.Client{Timeout: statsFetchTimeout},
		log:  log,
	}
	f.breaker = gobreaker.NewCircuitBreaker[map[string]any](gobreaker.Settings{
		Name:    "hive-stats",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return f
}

// Fetch retrieves and normalizes the stats object. Never panics or
// terminates the process; every failure comes back as an error for the
// aggregator to record.
func (f *StatsFetcher) Fetch(ctx context.Context) (CommunityStats, error) {
	payload, err := f.breaker.Execute(func() (map[string]any, error) {
		return f.fetchOnce(ctx)
	})
	if err != nil {
		return CommunityStats{}, errors.WrapWithCode(err, errors.ErrFetch,
			"community stats fetch failed",
			"Check connectivity to "+f.url)
	}
	return CommunityStats{
		Subscribers:   intField(payload, "total_subscribers"),
		Posts:         intField(payload, "total_posts"),
		Comments:      intField(payload, "total_comments"),
		ActiveAuthors: intField(payload, "unique_post_authors_last_30_days"),
		PayoutsHBD:    floatField(payload, "total_payouts_hbd"),
		FetchedAt:     time.Now(),
	}, nil
}

func (f *StatsFetcher) fetchOnce(ctx context.Context) (map[string]any, error) {
	var payload map[string]any
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d from stats endpoint", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		stats, err := extractStats(body)
		if err != nil {
			// A recognizable-but-wrong shape will not fix itself on
			// retry.
			return backoff.Permanent(err)
		}
		payload = stats
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return payload, nil
}

// extractStats tolerates three response shapes, in preference order:
// the stats object at the top level, nested one level inside an unknown
// wrapper key, or as the first element of a list. Anything else yields
// a diagnostic naming the shape and a few observed keys.
func extractStats(body []byte) (map[string]any, error) {
	var top any
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("stats response is not JSON: %w", err)
	}

	switch v := top.(type) {
	case map[string]any:
		if _, ok := v[statsMarkerKey]; ok {
			return v, nil
		}
		for _, nested := range v {
			if m, ok := nested.(map[string]any); ok {
				if _, ok := m[statsMarkerKey]; ok {
					return m, nil
				}
			}
		}
		return nil, fmt.Errorf("no %s in stats object; keys: %s",
			statsMarkerKey, firstKeys(v, 3))
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("stats response is an empty list")
		}
		if m, ok := v[0].(map[string]any); ok {
			if _, ok := m[statsMarkerKey]; ok {
				return m, nil
			}
			return nil, fmt.Errorf("no %s in first list element; keys: %s",
				statsMarkerKey, firstKeys(m, 3))
		}
		return nil, fmt.Errorf("stats list element is %T, not an object", v[0])
	default:
		return nil, fmt.Errorf("stats response is %T, not an object or list", top)
	}
}

// firstKeys renders up to n keys in sorted order, for diagnostics.
func firstKeys(m map[string]any, n int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}

// intField coerces a stats field that may arrive as a JSON number or a
// numeric string. Absent or unparseable fields read as zero.
func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return 0
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return 0
}
