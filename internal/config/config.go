// Package config loads configuration for every binary from environment
// variables under the NP_DISK_API_* prefix, via viper, with an optional
// local .env file (the teacher's own config.LoadConfig pattern), plus a
// helper for reading an optional per-cluster YAML quota-override file.
// Variables under a bare DISK_API_* prefix are not read.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Config is the full set of settings any binary in this repository might
// need; each cmd/* main only reads the fields relevant to it.
type Config struct {
	ClusterName string `mapstructure:"cluster_name"`

	K8sHost  string `mapstructure:"k8s_host"`
	K8sToken string `mapstructure:"k8s_auth_token"`
	K8sCertAuthorityPath string `mapstructure:"k8s_cert_authority_path"`

	StorageClassName   string `mapstructure:"storage_class_name"`
	StorageLimitPerProjectBytes int64 `mapstructure:"storage_limit_per_project_bytes"`

	AdmissionAddr       string `mapstructure:"admission_addr"`
	AdmissionTLSCert    string `mapstructure:"admission_tls_cert"`
	AdmissionTLSKey     string `mapstructure:"admission_tls_key"`
	EnablePodInjection  bool   `mapstructure:"enable_pod_injection"`

	HTTPAddr string `mapstructure:"http_addr"`

	RedisAddr   string `mapstructure:"redis_addr"`
	RedisStream string `mapstructure:"redis_stream"`
	RedisGroup  string `mapstructure:"redis_group"`

	AuditDSN string `mapstructure:"audit_dsn"`

	QuotaOverrideFile string `mapstructure:"quota_override_file"`

	UsageWatcherPollInterval   int `mapstructure:"usage_watcher_poll_interval_seconds"`
	UsageWatcherSweepInterval  int `mapstructure:"usage_watcher_sweep_interval_seconds"`

	Debug bool `mapstructure:"debug"`
}

// QuotaOverride is one org's storage-limit override, loaded from the
// optional YAML file.
type QuotaOverride struct {
	Org                         string `yaml:"org"`
	StorageLimitPerProjectBytes int64  `yaml:"storage_limit_per_project_bytes"`
}

// Load reads configuration from the environment (and a local .env file,
// when present), binding every field of Config under the NP_DISK_API_
// prefix, e.g. NP_DISK_API_CLUSTER_NAME.
func Load() (*Config, error) {
	_ = godotenv.Load() // local dev convenience; absence is not an error

	v := viper.New()
	v.SetEnvPrefix("NP_DISK_API")
	v.AutomaticEnv()

	v.SetDefault("storage_class_name", "openebs-hostpath")
	v.SetDefault("admission_addr", ":8443")
	v.SetDefault("enable_pod_injection", true)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("redis_stream", "platform-admin")
	v.SetDefault("redis_group", "platform-disk-api")
	v.SetDefault("usage_watcher_poll_interval_seconds", 60)
	v.SetDefault("usage_watcher_sweep_interval_seconds", 600)

	fields := []string{
		"cluster_name", "k8s_host", "k8s_auth_token", "k8s_cert_authority_path",
		"storage_class_name", "storage_limit_per_project_bytes",
		"admission_addr", "admission_tls_cert", "admission_tls_key", "enable_pod_injection",
		"http_addr", "redis_addr", "redis_stream", "redis_group", "audit_dsn",
		"quota_override_file", "usage_watcher_poll_interval_seconds",
		"usage_watcher_sweep_interval_seconds", "debug",
	}
	for _, f := range fields {
		if err := v.BindEnv(f); err != nil {
			return nil, fmt.Errorf("bind env field %q: %w", f, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadQuotaOverrides reads the optional per-cluster quota override file. A
// missing path or file is not an error; it simply yields no overrides.
func LoadQuotaOverrides(path string) ([]QuotaOverride, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read quota override file %q: %w", path, err)
	}
	var overrides []QuotaOverride
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse quota override file %q: %w", path, err)
	}
	return overrides, nil
}

// StorageLimitForOrg returns the org-specific override if present,
// otherwise the cluster-wide default.
func StorageLimitForOrg(overrides []QuotaOverride, org string, clusterDefault int64) int64 {
	for _, o := range overrides {
		if o.Org == org {
			return o.StorageLimitPerProjectBytes
		}
	}
	return clusterDefault
}
