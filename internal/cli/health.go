package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sktbrd/skatehive-ops/internal/errors"
	"github.com/sktbrd/skatehive-ops/internal/monitor"
)

// healthCommand probes every service and exits non-zero when anything is
// unhealthy. Output goes to stderr so cron mails stay empty on success.
func healthCommand(configPath string) error {
	_, mon, err := buildMonitor(configPath)
	if err != nil {
		return err
	}
	defer mon.Close()

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	var failing []string
	for _, res := range mon.CheckAll(ctx) {
		if res.Status == monitor.StatusHealthy {
			continue
		}
		failing = append(failing, res.Service)
		fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", res.Service, res.Status, res.Detail)
	}
	if len(failing) > 0 {
		return errors.New(errors.ErrProbe,
			fmt.Sprintf("%d service(s) unhealthy: %s", len(failing), strings.Join(failing, ", ")),
			"Run 'skatehive-ops status' for per-service details")
	}
	return nil
}
