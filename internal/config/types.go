package config

import (
	"strconv"
	"strings"
)

// Default service ports and funnel paths, used when neither the config file
// nor the environment overrides them.
const (
	DefaultVideoPort     = 8081
	DefaultInstagramPort = 6666
	DefaultAccountPort   = 3001

	DefaultVideoFunnelPath     = "/video"
	DefaultInstagramFunnelPath = "/instagram"

	DefaultNodeName = "skatehive-node"
	DefaultNodeRole = "primary"

	DefaultHiveCommunity = "hive-173115"
	DefaultHiveStatsURL  = "https://stats.hivehub.dev/communities"
)

// Node identifies one deployment of this stack: this machine or a peer.
type Node struct {
	// ID is the stable key from config (e.g. "raspberry").
	ID string

	// Name is the human-readable display name (e.g. "Raspberry Pi").
	Name string

	// Hostname is the node's mesh (Tailscale) hostname.
	Hostname string

	// Role is "primary" or "secondary".
	Role string

	// LANIP is an optional direct LAN address, bypassing the mesh.
	LANIP string

	// InstagramPort and VideoPort allow per-node port overrides.
	InstagramPort int
	VideoPort     int
}

// Config is the resolved configuration for this process.
// Immutable after Load.
type Config struct {
	NodeName    string
	NodeRole    string
	DisplayName string

	// MeshHostname is this node's Tailscale DNS name; empty when the mesh
	// is unavailable.
	MeshHostname string

	VideoPort     int
	InstagramPort int
	AccountPort   int

	VideoFunnelPath     string
	InstagramFunnelPath string

	HiveCommunity string
	HiveStatsURL  string

	// Nodes is the registry of known deployments, this node first.
	// Node IDs are unique.
	Nodes []Node
}

// Self returns this node's registry entry, or nil when the node is not
// registered (no mesh hostname configured or detected).
func (c *Config) Self() *Node {
	for i := range c.Nodes {
		if c.Nodes[i].ID == c.NodeName {
			return &c.Nodes[i]
		}
	}
	return nil
}

// Peers returns all registry entries other than this node.
func (c *Config) Peers() []Node {
	var peers []Node
	for _, n := range c.Nodes {
		if n.ID != c.NodeName {
			peers = append(peers, n)
		}
	}
	return peers
}

// LocalURL returns the loopback URL for a service on this node.
func (c *Config) LocalURL(service string) string {
	port := DefaultVideoPort
	switch service {
	case "video":
		port = c.VideoPort
	case "instagram":
		port = c.InstagramPort
	case "account":
		port = c.AccountPort
	}
	return "http://localhost:" + strconv.Itoa(port)
}

// ExternalURL returns the HTTPS funnel URL for a service on the given mesh
// hostname, or "" when the hostname is unknown.
func (c *Config) ExternalURL(service, hostname string) string {
	if hostname == "" {
		return ""
	}
	path := ""
	switch service {
	case "video":
		path = c.VideoFunnelPath
	case "instagram":
		path = c.InstagramFunnelPath
	}
	return "https://" + hostname + path
}

// displayName turns a node ID like "mac-mini" into "Mac Mini".
func displayName(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
