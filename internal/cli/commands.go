package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sktbrd/skatehive-ops/internal/errors"
)

// Command-specific flags
var (
	statusJSONFlag bool
	initForceFlag  bool
	logsTailFlag   int
)

// dashboardCmd is an explicit alias for the default root behavior.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the live monitoring dashboard",
	Long: `Open the full-screen terminal dashboard.

The dashboard refreshes service health every 10 seconds, runs a network
speed test every 15 minutes, and refreshes community stats when the
cached data is older than 5 minutes.

Examples:
  skatehive-ops dashboard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(configFlag)
	},
}

// statusCmd prints a one-shot status table and exits.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check all services once and print a table",
	Long: `Probe every registered service once and print the results.

Useful over SSH or in scripts where the full dashboard is overkill.

Examples:
  skatehive-ops status
  skatehive-ops status --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(configFlag, statusJSONFlag)
	},
}

// healthCmd is the cron/automation entry point: quiet, exit-code driven.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Exit 0 when all services are healthy, 1 otherwise",
	Long: `Probe every registered service and exit 0 only when all are
healthy. Failing services are listed on stderr.

Designed for cron and uptime automation:

  */5 * * * * skatehive-ops health || notify-send "skatehive degraded"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return healthCommand(configFlag)
	},
}

// speedtestCmd runs a single benchmark in the foreground.
var speedtestCmd = &cobra.Command{
	Use:   "speedtest",
	Short: "Run one network speed test and print the result",
	Long: `Run the network benchmark once, waiting for it to finish, and
print the normalized result. The same candidate commands are tried as
in the dashboard (speedtest, speedtest-cli, absolute paths).

Examples:
  skatehive-ops speedtest`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return speedtestCommand(configFlag)
	},
}

// logsCmd tails a container's recent output.
var logsCmd = &cobra.Command{
	Use:   "logs <container>",
	Short: "Print recent log lines from a service container",
	Long: `Print the last lines from a container's log, retrying with sudo
when the docker socket needs it.

Examples:
  skatehive-ops logs ytipfs-worker
  skatehive-ops logs video-worker --tail 50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return logsCommand(configFlag, args[0], logsTailFlag)
	},
}

// initCmd bootstraps a config file interactively.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create skatehive.config interactively",
	Long: `Create a skatehive.config file in the current directory, prompting
for node identity and peer nodes.

Examples:
  skatehive-ops init
  skatehive-ops init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(initForceFlag)
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:       "completion [bash|zsh|fish|powershell]",
	Short:     "Generate shell completion script",
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSONFlag, "json", false, "print results as JSON")
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "overwrite existing config")
	logsCmd.Flags().IntVar(&logsTailFlag, "tail", 20, "number of log lines to print")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(speedtestCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}
