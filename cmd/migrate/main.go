// Command migrate runs the one-shot namespace migration job (component
// G), moving disks out of a flat legacy namespace into their derived
// org/project namespace.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apolo-sh/platform-disk-api/internal/config"
	"github.com/apolo-sh/platform-disk-api/internal/k8sgateway"
	"github.com/apolo-sh/platform-disk-api/internal/logging"
	"github.com/apolo-sh/platform-disk-api/internal/migration"
)

func main() {
	var legacyNamespace string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate disks out of a legacy flat namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(legacyNamespace)
		},
	}
	cmd.Flags().StringVar(&legacyNamespace, "legacy-namespace", "platform-jobs", "namespace to migrate marked PVCs out of")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(legacyNamespace string) error {
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

	migrator := migration.New(gw, log)
	return migrator.Run(context.Background(), legacyNamespace)
}
