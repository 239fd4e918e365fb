// Command usagewatcher runs the three background usage-tracking loops
// (component E).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/apolo-sh/platform-disk-api/internal/config"
	"github.com/apolo-sh/platform-disk-api/internal/k8sgateway"
	"github.com/apolo-sh/platform-disk-api/internal/logging"
	"github.com/apolo-sh/platform-disk-api/internal/usagewatcher"
)

func main() {
	cmd := &cobra.Command{
		Use:   "usagewatcher",
		Short: "Track disk usage and expire lifespanned disks",
		RunE:  run,
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	restCfg, err := k8sgateway.LoadConfig()
	if err != nil {
		return fmt.Errorf("load kube config: %w", err)
	}
	gw, err := k8sgateway.New(restCfg, cfg.StorageClassName)
	if err != nil {
		return fmt.Errorf("build k8s gateway: %w", err)
	}

	watcher := usagewatcher.New(
		gw, log,
		time.Duration(cfg.UsageWatcherPollInterval)*time.Second,
		time.Duration(cfg.UsageWatcherSweepInterval)*time.Second,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("starting usage watcher")
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("usage watcher stopped: %w", err)
	}
	return nil
}
