package monitor

import (
	"github.com/sktbrd/skatehive-ops/internal/config"
)

// buildRegistry derives the service registry from configuration: the
// three local services, plus one mesh-presence entry per peer node's
// media downloader.
func buildRegistry(cfg *config.Config) []ServiceDescriptor {
	base := ""
	if self := cfg.Self(); self != nil {
		base = "https://" + self.Hostname
	} else if len(cfg.Nodes) > 0 {
		base = "https://" + cfg.Nodes[0].Hostname
	}

	services := []ServiceDescriptor{
		{
			Name:         "nas",
			URL:          base + "/",
			Container:    "nginx",
			Strategy:     StrategyHTTPStatus,
			ExpectStatus: 200,
		},
		{
			Name:      "ytipfs-worker",
			URL:       base + cfg.InstagramFunnelPath + "/health",
			Container: "ytipfs-worker",
			Strategy:  StrategyJSONKey,
			JSONKey:   "status",
			JSONValue: "ok",
		},
		{
			Name:      "video-worker",
			URL:       base + cfg.VideoFunnelPath + "/healthz",
			Container: "video-worker",
			Strategy:  StrategyJSONKey,
			JSONKey:   "ok",
			JSONValue: true,
		},
	}

	self := cfg.Self()
	for _, peer := range cfg.Peers() {
		if self != nil && peer.Hostname == self.Hostname {
			continue
		}
		services = append(services, ServiceDescriptor{
			Name:         peer.ID + "-downloader",
			URL:          cfg.ExternalURL("instagram", peer.Hostname) + "/health",
			Container:    "ytipfs-worker",
			Strategy:     StrategyMeshPeer,
			JSONKey:      "status",
			JSONValue:    "ok",
			PeerHostname: peer.Hostname,
			Remote:       true,
			NodeName:     peer.Name,
		})
	}
	return services
}
