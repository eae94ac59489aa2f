package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sktbrd/skatehive-ops/internal/errors"
)

// speedtestCommand runs the bandwidth benchmark once and prints the
// measurement. Expect it to take a minute or two.
func speedtestCommand(configPath string) error {
	_, mon, err := buildMonitor(configPath)
	if err != nil {
		return err
	}
	defer mon.Close()

	fmt.Println("Running speed test, this can take a couple of minutes...")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	res, err := mon.RunSpeedTest(ctx)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Speed test failed",
			"Install the Ookla speedtest CLI or speedtest-cli and retry")
	}

	fmt.Printf("Download: %.1f Mbps\n", res.DownloadMbps)
	fmt.Printf("Upload:   %.1f Mbps\n", res.UploadMbps)
	fmt.Printf("Ping:     %.1f ms\n", res.PingMs)
	return nil
}
