package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/sktbrd/skatehive-ops/internal/config"
	"github.com/sktbrd/skatehive-ops/internal/errors"
)

// initCommand creates a skatehive.config file in the current directory,
// prompting for the node identity and mesh layout.
func initCommand(force bool) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	var (
		nodeName     = "macmini"
		nodeRole     = "primary"
		displayName  string
		meshHostname string
		otherNodes   string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Node name").
				Description("Short identifier for this machine").
				Placeholder("macmini").
				Value(&nodeName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("node name is required")
					}
					if strings.ContainsAny(s, " \t\n:") {
						return fmt.Errorf("node name cannot contain whitespace or ':'")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Node role").
				Description("Primary nodes run the NAS and transcoder").
				Options(
					huh.NewOption("primary", "primary"),
					huh.NewOption("secondary", "secondary"),
				).
				Value(&nodeRole),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Display name (optional)").
				Description("Shown in the dashboard header").
				Placeholder("Mac Mini M4").
				Value(&displayName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Tailscale hostname (optional)").
				Description("Funnel hostname of this node, e.g. minivlad.tailnet.ts.net").
				Placeholder("detected from 'tailscale status' when empty").
				Value(&meshHostname),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Other nodes (optional)").
				Description("Comma-separated id:hostname:role:lan_ip:instagram_port entries").
				Placeholder("raspberry:vladsberry.tailnet.ts.net:secondary").
				Value(&otherNodes),
		),
	)
	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility")
	}

	body := renderConfig(nodeName, nodeRole, displayName, meshHostname, otherNodes)
	if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", configPath),
			"Check directory permissions")
	}

	fmt.Printf("Created %s\n\n", configPath)
	fmt.Println("Next steps:")
	fmt.Println("  skatehive-ops            - open the dashboard")
	fmt.Println("  skatehive-ops status     - one-shot health check")
	fmt.Println("  skatehive-ops speedtest  - run a bandwidth benchmark")
	return nil
}

// renderConfig builds the config file body. Keys match what the loader
// reads back; empty optional values are omitted entirely.
func renderConfig(nodeName, nodeRole, displayName, meshHostname, otherNodes string) string {
	var b strings.Builder
	b.WriteString("# skatehive-ops node configuration\n")
	b.WriteString("# Run 'skatehive-ops' to open the dashboard\n\n")
	fmt.Fprintf(&b, "NODE_NAME=%s\n", strings.TrimSpace(nodeName))
	fmt.Fprintf(&b, "NODE_ROLE=%s\n", nodeRole)
	if s := strings.TrimSpace(displayName); s != "" {
		fmt.Fprintf(&b, "NODE_DISPLAY_NAME=%s\n", s)
	}
	if s := strings.TrimSpace(meshHostname); s != "" {
		fmt.Fprintf(&b, "TAILSCALE_HOSTNAME=%s\n", s)
	}
	if s := strings.TrimSpace(otherNodes); s != "" {
		fmt.Fprintf(&b, "OTHER_NODES=%s\n", s)
	}
	return b.String()
}
