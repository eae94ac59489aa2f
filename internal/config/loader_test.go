package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/runner"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// loadOpts builds Options with a runner whose mesh CLI is absent, so
// hostname detection silently yields "".
func loadOpts(path string) Options {
	return Options{
		Path:   path,
		Runner: runner.NewFakeRunner(),
		Logger: logger.Noop(),
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), loadOpts(writeConfig(t, "")))
	require.NoError(t, err)

	assert.Equal(t, "skatehive-node", cfg.NodeName)
	assert.Equal(t, "primary", cfg.NodeRole)
	assert.Equal(t, 8081, cfg.VideoPort)
	assert.Equal(t, 6666, cfg.InstagramPort)
	assert.Equal(t, 3001, cfg.AccountPort)
	assert.Equal(t, "/video", cfg.VideoFunnelPath)
	assert.Equal(t, "/instagram", cfg.InstagramFunnelPath)
	assert.Equal(t, "hive-173115", cfg.HiveCommunity)
}

func TestLoadFileOverridesEnvironment(t *testing.T) {
	t.Setenv("NODE_NAME", "env-node")
	t.Setenv("VIDEO_TRANSCODER_PORT", "9999")

	path := writeConfig(t, `NODE_NAME="file-node"`+"\n")
	cfg, err := Load(context.Background(), loadOpts(path))
	require.NoError(t, err)

	assert.Equal(t, "file-node", cfg.NodeName, "file value wins over environment")
	assert.Equal(t, 9999, cfg.VideoPort, "env value wins over default")
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(context.Background(), loadOpts(filepath.Join(t.TempDir(), "missing.config")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG")
}

func TestLoadMeshHostnameFromConfig(t *testing.T) {
	path := writeConfig(t, `TAILSCALE_HOSTNAME="minivlad.tail83ea3e.ts.net"`+"\n"+`NODE_NAME="macmini"`+"\n")
	cfg, err := Load(context.Background(), loadOpts(path))
	require.NoError(t, err)

	assert.Equal(t, "minivlad.tail83ea3e.ts.net", cfg.MeshHostname)
	require.NotNil(t, cfg.Self())
	assert.Equal(t, "macmini", cfg.Self().ID)
	assert.Equal(t, "minivlad.tail83ea3e.ts.net", cfg.Self().Hostname)
}

func TestLoadMeshHostnameDetected(t *testing.T) {
	fake := runner.NewFakeRunner()
	fake.Script("tailscale status --json", runner.Result{
		Stdout: []byte(`{"Self":{"HostName":"minivlad","DNSName":"minivlad.tail83ea3e.ts.net.","Online":true},"Peer":{}}`),
	}, nil)

	cfg, err := Load(context.Background(), Options{
		Path:   writeConfig(t, ""),
		Runner: fake,
		Logger: logger.Noop(),
	})
	require.NoError(t, err)
	assert.Equal(t, "minivlad.tail83ea3e.ts.net", cfg.MeshHostname)
}

func TestParsePeers(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []Node
	}{
		{
			name: "full entry",
			spec: "raspberry:vladsberry.tail83ea3e.ts.net:secondary:192.168.1.50:7777",
			want: []Node{{
				ID:            "raspberry",
				Name:          "Raspberry",
				Hostname:      "vladsberry.tail83ea3e.ts.net",
				Role:          "secondary",
				LANIP:         "192.168.1.50",
				InstagramPort: 7777,
			}},
		},
		{
			name: "minimal entry defaults role and port",
			spec: "nodeA:hostA.example.net",
			want: []Node{{
				ID:            "nodeA",
				Name:          "NodeA",
				Hostname:      "hostA.example.net",
				Role:          "secondary",
				InstagramPort: 6666,
			}},
		},
		{
			name: "multiple entries",
			spec: "a:a.example.net,b:b.example.net:primary",
			want: []Node{
				{ID: "a", Name: "A", Hostname: "a.example.net", Role: "secondary", InstagramPort: 6666},
				{ID: "b", Name: "B", Hostname: "b.example.net", Role: "primary", InstagramPort: 6666},
			},
		},
		{
			name: "malformed entries skipped",
			spec: "justanid,ok:host.example.net,:nohost",
			want: []Node{{
				ID:            "ok",
				Name:          "Ok",
				Hostname:      "host.example.net",
				Role:          "secondary",
				InstagramPort: 6666,
			}},
		},
		{
			name: "bad port skips entry",
			spec: "x:x.example.net:secondary:10.0.0.1:notaport",
			want: nil,
		},
		{
			name: "empty spec",
			spec: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePeers(tt.spec, 6666, logger.Noop())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRegistryFallsBackToDemoNodes(t *testing.T) {
	cfg, err := Load(context.Background(), loadOpts(writeConfig(t, "")))
	require.NoError(t, err)

	require.Len(t, cfg.Nodes, 2)
	assert.Equal(t, "macmini", cfg.Nodes[0].ID)
	assert.Equal(t, "Mac Mini M4", cfg.Nodes[0].Name)
	assert.Equal(t, "primary", cfg.Nodes[0].Role)
	assert.Equal(t, "raspberry", cfg.Nodes[1].ID)
	assert.Equal(t, "vladsberry.tail83ea3e.ts.net", cfg.Nodes[1].Hostname)
}

func TestBuildRegistrySelfFirst(t *testing.T) {
	path := writeConfig(t, `NODE_NAME="macmini"`+"\n"+
		`TAILSCALE_HOSTNAME="minivlad.tail83ea3e.ts.net"`+"\n"+
		`OTHER_NODES="raspberry:vladsberry.tail83ea3e.ts.net"`+"\n")
	cfg, err := Load(context.Background(), loadOpts(path))
	require.NoError(t, err)

	require.Len(t, cfg.Nodes, 2)
	assert.Equal(t, "macmini", cfg.Nodes[0].ID)
	assert.Equal(t, "raspberry", cfg.Nodes[1].ID)

	peers := cfg.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, "raspberry", peers[0].ID)
}

func TestFindWalksParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(""), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(nested))

	got := Find()
	require.NotEmpty(t, got)
	assert.Equal(t, ConfigFileName, filepath.Base(got))
}
