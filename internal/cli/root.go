package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var (
	configFlag string
)

// rootCmd is the base command; running it with no subcommand starts the
// dashboard.
var rootCmd = &cobra.Command{
	Use:   "skatehive-ops",
	Short: "Terminal dashboard for self-hosted skatehive services",
	Long: `skatehive-ops monitors the self-hosted skatehive stack: the NAS,
the video transcoder, the media downloader, and the peer nodes on the
mesh network, plus community statistics from the Hive API.

Run it with no arguments to open the live dashboard.

Examples:
  skatehive-ops
  skatehive-ops --config /etc/skatehive.config
  skatehive-ops status
  skatehive-ops health && echo all good`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(configFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to skatehive.config")
}

// Execute runs the root command. Errors print with their suggestion and
// exit non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
