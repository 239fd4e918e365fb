// Command eventconsumer consumes project lifecycle events and removes a
// project's disks on project-remove (component F).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/apolo-sh/platform-disk-api/internal/config"
	"github.com/apolo-sh/platform-disk-api/internal/disk"
	"github.com/apolo-sh/platform-disk-api/internal/eventconsumer"
	"github.com/apolo-sh/platform-disk-api/internal/k8sgateway"
	"github.com/apolo-sh/platform-disk-api/internal/logging"
)

func main() {
	cmd := &cobra.Command{
		Use:   "eventconsumer",
		Short: "Consume project lifecycle events from the platform event bus",
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	hostname, _ := os.Hostname()
	consumer := eventconsumer.New(redisClient, cfg.RedisStream, cfg.RedisGroup, hostname, service, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := consumer.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	log.Info("starting event consumer")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("event consumer stopped: %w", err)
	}
	return nil
}
