// Command diskapi serves the thin HTTP collaborator surface in front of
// the disk service (component J).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apolo-sh/platform-disk-api/internal/config"
	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/httpapi"
	"github.com/apolo-sh/platform-disk-api/internal/k8sgateway"
	"github.com/apolo-sh/platform-disk-api/internal/logging"
)

func main() {
	cmd := &cobra.Command{
		Use:   "diskapi",
		Short: "Serve the disk HTTP collaborator API",
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

	service := disk.NewService(gw, cfg.StorageClassName, cfg.StorageLimitPerProjectBytes)
	api := httpapi.NewAPI(service, httpapi.TrustedHeaderAuthenticator{})

	log.Info("starting diskapi", zap.String("addr", cfg.HTTPAddr))
	return api.Router().Run(cfg.HTTPAddr)
}
