// Package cli implements the skatehive-ops command-line interface.
//
// The package is organized around Cobra commands, with each command
// delegating to a small workflow function for the actual work. The root
// command launches the dashboard:
//
//	skatehive-ops            - TUI dashboard (default)
//	skatehive-ops status     - One-shot status table
//	skatehive-ops health     - Exit 0/1 health probe for cron
//	skatehive-ops speedtest  - Run one network benchmark and print it
//	skatehive-ops logs       - Tail a service container's logs
//	skatehive-ops init       - Create skatehive.config interactively
//	skatehive-ops version    - Print version information
//
// All monitoring logic lives in internal/monitor; commands only wire
// configuration, the monitor, and the presentation together.
package cli
