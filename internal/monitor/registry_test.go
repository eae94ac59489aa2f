package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sktbrd/skatehive-ops/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		NodeName:            "macmini",
		NodeRole:            "primary",
		MeshHostname:        "minivlad.tail83ea3e.ts.net",
		VideoPort:           8081,
		InstagramPort:       6666,
		VideoFunnelPath:     "/video",
		InstagramFunnelPath: "/instagram",
		Nodes: []config.Node{
			{ID: "macmini", Name: "Mac Mini M4", Hostname: "minivlad.tail83ea3e.ts.net", Role: "primary"},
			{ID: "raspberry", Name: "Raspberry Pi", Hostname: "vladsberry.tail83ea3e.ts.net", Role: "secondary"},
		},
	}
}

func TestBuildRegistry(t *testing.T) {
	services := buildRegistry(testConfig())
	require.Len(t, services, 4)

	names := map[string]ServiceDescriptor{}
	for _, svc := range services {
		_, dup := names[svc.Name]
		require.False(t, dup, "duplicate service name %q", svc.Name)
		names[svc.Name] = svc
	}

	nas := names["nas"]
	assert.Equal(t, StrategyHTTPStatus, nas.Strategy)
	assert.Equal(t, 200, nas.ExpectStatus)
	assert.Equal(t, "nginx", nas.Container)
	assert.Equal(t, "https://minivlad.tail83ea3e.ts.net/", nas.URL)

	ig := names["ytipfs-worker"]
	assert.Equal(t, StrategyJSONKey, ig.Strategy)
	assert.Equal(t, "status", ig.JSONKey)
	assert.Equal(t, "ok", ig.JSONValue)
	assert.Equal(t, "https://minivlad.tail83ea3e.ts.net/instagram/health", ig.URL)

	video := names["video-worker"]
	assert.Equal(t, StrategyJSONKey, video.Strategy)
	assert.Equal(t, "ok", video.JSONKey)
	assert.Equal(t, true, video.JSONValue)
	assert.Equal(t, "https://minivlad.tail83ea3e.ts.net/video/healthz", video.URL)

	peer := names["raspberry-downloader"]
	assert.Equal(t, StrategyMeshPeer, peer.Strategy)
	assert.True(t, peer.Remote)
	assert.Equal(t, "Raspberry Pi", peer.NodeName)
	assert.Equal(t, "vladsberry.tail83ea3e.ts.net", peer.PeerHostname)
	assert.Equal(t, "https://vladsberry.tail83ea3e.ts.net/instagram/health", peer.URL)
}

func TestBuildRegistry_NoPeers(t *testing.T) {
	cfg := testConfig()
	cfg.Nodes = cfg.Nodes[:1]

	services := buildRegistry(cfg)
	require.Len(t, services, 3)
	for _, svc := range services {
		assert.False(t, svc.Remote)
	}
}
