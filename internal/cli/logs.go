package cli

import (
	"context"
	"fmt"
	"time"
)

// logsCommand prints the last n log lines of a monitored container.
func logsCommand(configPath, container string, tail int) error {
	_, mon, err := buildMonitor(configPath)
	if err != nil {
		return err
	}
	defer mon.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, line := range mon.ContainerLogs(ctx, container, tail) {
		fmt.Println(line)
	}
	return nil
}
