package config

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sktbrd/skatehive-ops/internal/errors"
	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/mesh"
	"github.com/sktbrd/skatehive-ops/internal/runner"
)

// ConfigFileName is the dotenv-shaped file searched for in the working
// directory, its parents, and the user config dir.
const ConfigFileName = "skatehive.config"

// Options controls Load.
type Options struct {
	// Path forces a specific config file. When empty, Find locates one.
	Path string

	// Runner executes the mesh CLI for hostname detection. Defaults to the
	// real executor.
	Runner runner.Runner

	// Logger receives load diagnostics. Defaults to the package default.
	Logger logger.Logger
}

// Load resolves configuration with precedence: config file, then
// environment, then built-in default. A missing config file is not an
// error; a present but unreadable one is.
func Load(ctx context.Context, opts Options) (*Config, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	run := opts.Runner
	if run == nil {
		run = runner.New()
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	path := opts.Path
	if path == "" {
		path = Find()
	}
	if path != "" {
		file, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"failed to read "+path,
				"Check that the file is readable and every line is KEY=\"value\"")
		}
		log.Debug("loaded config file %s (%d keys)", path, len(file))
		for key, val := range file {
			v.Set(key, val)
		}
	} else {
		log.Debug("no %s found, using environment and defaults", ConfigFileName)
	}

	cfg := &Config{
		NodeName:            v.GetString("NODE_NAME"),
		NodeRole:            v.GetString("NODE_ROLE"),
		VideoPort:           getPort(v, "VIDEO_TRANSCODER_PORT", DefaultVideoPort),
		InstagramPort:       getPort(v, "INSTAGRAM_DOWNLOADER_PORT", DefaultInstagramPort),
		AccountPort:         getPort(v, "ACCOUNT_MANAGER_PORT", DefaultAccountPort),
		VideoFunnelPath:     v.GetString("VIDEO_FUNNEL_PATH"),
		InstagramFunnelPath: v.GetString("INSTAGRAM_FUNNEL_PATH"),
		HiveCommunity:       v.GetString("HIVE_COMMUNITY"),
		HiveStatsURL:        v.GetString("HIVE_STATS_URL"),
	}
	cfg.DisplayName = v.GetString("NODE_DISPLAY_NAME")
	if cfg.DisplayName == "" {
		cfg.DisplayName = displayName(cfg.NodeName)
	}

	cfg.MeshHostname = v.GetString("TAILSCALE_HOSTNAME")
	if cfg.MeshHostname == "" {
		cfg.MeshHostname = mesh.DetectHostname(ctx, run)
		if cfg.MeshHostname != "" {
			log.Debug("detected mesh hostname %s", cfg.MeshHostname)
		}
	}

	cfg.Nodes = buildRegistry(cfg, v.GetString("OTHER_NODES"), log)
	return cfg, nil
}

// Find locates the config file: the working directory first, then each
// parent, then the user config dir. Returns "" when nothing is found.
func Find() string {
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ConfigFileName)
			if fileExists(candidate) {
				return candidate
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if home, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(home, "skatehive-ops", ConfigFileName)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// getPort reads an integer port, falling back to def when the configured
// value does not parse. Bad port values never abort the load.
func getPort(v *viper.Viper, key string, def int) int {
	if port := v.GetInt(key); port > 0 {
		return port
	}
	return def
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("NODE_NAME", DefaultNodeName)
	v.SetDefault("NODE_ROLE", DefaultNodeRole)
	v.SetDefault("VIDEO_TRANSCODER_PORT", DefaultVideoPort)
	v.SetDefault("INSTAGRAM_DOWNLOADER_PORT", DefaultInstagramPort)
	v.SetDefault("ACCOUNT_MANAGER_PORT", DefaultAccountPort)
	v.SetDefault("VIDEO_FUNNEL_PATH", DefaultVideoFunnelPath)
	v.SetDefault("INSTAGRAM_FUNNEL_PATH", DefaultInstagramFunnelPath)
	v.SetDefault("HIVE_COMMUNITY", DefaultHiveCommunity)
	v.SetDefault("HIVE_STATS_URL", DefaultHiveStatsURL)
}

// parsePeers parses OTHER_NODES: comma-separated entries of
// "id:hostname:role:lan_ip:instagram_port", where everything after the
// hostname is optional. Malformed entries are skipped with a warning.
func parsePeers(spec string, defaultInstagramPort int, log logger.Logger) []Node {
	var nodes []Node
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			log.Warn("skipping malformed node entry %q", entry)
			continue
		}
		node := Node{
			ID:            parts[0],
			Name:          displayName(parts[0]),
			Hostname:      parts[1],
			Role:          "secondary",
			InstagramPort: defaultInstagramPort,
		}
		if len(parts) > 2 && parts[2] != "" {
			node.Role = parts[2]
		}
		if len(parts) > 3 {
			node.LANIP = parts[3]
		}
		if len(parts) > 4 && parts[4] != "" {
			port, err := strconv.Atoi(parts[4])
			if err != nil {
				log.Warn("skipping node entry %q: bad port %q", entry, parts[4])
				continue
			}
			node.InstagramPort = port
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// buildRegistry assembles the node registry: this node first (when its mesh
// hostname is known), then configured peers. When nothing is configured at
// all it falls back to the demo pair so the dashboard has rows to render.
func buildRegistry(cfg *Config, peerSpec string, log logger.Logger) []Node {
	var nodes []Node
	if cfg.MeshHostname != "" {
		nodes = append(nodes, Node{
			ID:            cfg.NodeName,
			Name:          cfg.DisplayName,
			Hostname:      cfg.MeshHostname,
			Role:          cfg.NodeRole,
			InstagramPort: cfg.InstagramPort,
			VideoPort:     cfg.VideoPort,
		})
	}
	nodes = append(nodes, parsePeers(peerSpec, cfg.InstagramPort, log)...)
	if len(nodes) > 0 {
		return nodes
	}
	log.Debug("empty node registry, using demo nodes")
	return []Node{
		{
			ID:            "macmini",
			Name:          "Mac Mini M4",
			Hostname:      "minivlad.tail83ea3e.ts.net",
			Role:          "primary",
			InstagramPort: cfg.InstagramPort,
			VideoPort:     cfg.VideoPort,
		},
		{
			ID:            "raspberry",
			Name:          "Raspberry Pi",
			Hostname:      "vladsberry.tail83ea3e.ts.net",
			Role:          "secondary",
			InstagramPort: cfg.InstagramPort,
			VideoPort:     cfg.VideoPort,
		},
	}
}
