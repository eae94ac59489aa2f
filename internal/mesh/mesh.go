// Package mesh reads the state of the Tailscale overlay network via the
// tailscale CLI. It supplies the node's own mesh hostname for building
// funnel URLs and the peer list used by the mesh-peer-presence health
// check strategy.
package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sktbrd/skatehive-ops/internal/runner"
)

// Self describes this node in the mesh.
type Self struct {
	HostName string `json:"HostName"`
	DNSName  string `json:"DNSName"`
	Online   bool   `json:"Online"`
}

// Peer describes a remote node in the mesh.
type Peer struct {
	HostName string    `json:"HostName"`
	DNSName  string    `json:"DNSName"`
	Online   bool      `json:"Online"`
	LastSeen time.Time `json:"LastSeen"`
}

// Status is the subset of `tailscale status --json` output this package uses.
type Status struct {
	Self Self            `json:"Self"`
	Peer map[string]Peer `json:"Peer"`
}

// statusTimeout bounds the tailscale CLI call.
const statusTimeout = 5 * time.Second

// Client queries the tailscale CLI.
type Client struct {
	run runner.Runner
}

// NewClient creates a mesh client using the given command runner.
func NewClient(run runner.Runner) *Client {
	return &Client{run: run}
}

// Status runs `tailscale status --json` and parses the result.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	res, err := c.run.Run(ctx, "tailscale", "status", "--json")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("tailscale status exited %d: %s",
			res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	var st Status
	if err := json.Unmarshal(res.Stdout, &st); err != nil {
		return nil, fmt.Errorf("parsing tailscale status: %w", err)
	}
	return &st, nil
}

// FindPeer locates the peer whose hostname matches the given mesh hostname.
// Matches the bare HostName, the full DNSName (trailing dot ignored), or the
// first DNS label, so "vladsberry.tail83ea3e.ts.net" and "vladsberry" both
// resolve to the same peer. Returns nil if no peer matches.
func (s *Status) FindPeer(hostname string) *Peer {
	if hostname == "" {
		return nil
	}
	want := strings.TrimSuffix(strings.ToLower(hostname), ".")

	for _, peer := range s.Peer {
		dns := strings.TrimSuffix(strings.ToLower(peer.DNSName), ".")
		host := strings.ToLower(peer.HostName)
		if dns == want || host == want || firstLabel(dns) == want {
			p := peer
			return &p
		}
	}
	return nil
}

// DetectHostname returns this node's mesh DNS name, or "" when tailscale is
// unavailable or not logged in. Detection failures are deliberately silent;
// the caller treats an empty hostname as "no mesh".
func DetectHostname(ctx context.Context, run runner.Runner) string {
	st, err := NewClient(run).Status(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(st.Self.DNSName, ".")
}

func firstLabel(s string) string {
	label, _, _ := strings.Cut(s, ".")
	return label
}
