// Command admission serves the mutating admission webhook (component D).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apolo-sh/platform-disk-api/internal/admission"
	"github.com/apolo-sh/platform-disk-api/internal/config"
	"github.com/apolo-sh/platform-disk-api/internal/k8sgateway"
	"github.com/apolo-sh/platform-disk-api/internal/logging"
)

func main() {
	cmd := &cobra.Command{
		Use:   "admission",
		Short: "Serve the disk admission webhook",
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

	server := admission.NewServer(cfg.AdmissionAddr, nil, admission.Config{
		EnablePodInjection: cfg.EnablePodInjection,
		StorageClassName:   cfg.StorageClassName,
		ClusterName:        cfg.ClusterName,
	}, gw, log)

	log.Info("starting admission webhook", zap.String("addr", cfg.AdmissionAddr))
	return server.ListenAndServeTLS(cfg.AdmissionTLSCert, cfg.AdmissionTLSKey)
}
