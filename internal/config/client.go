package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultRoot resolves $LABTASKER_ROOT, defaulting to ".labtasker" in
// the current directory, mirroring the original client's path module.
func DefaultRoot() string {
	if root := os.Getenv("LABTASKER_ROOT"); root != "" {
		return root
	}
	return ".labtasker"
}

// LogRoot is the root directory per-task run artifacts are written
// under (§6.3): <root>/logs.
func LogRoot(root string) string {
	return filepath.Join(root, "logs")
}

// ClientConfig is persisted at $LABTASKER_ROOT/client.env as TOML (§6.3),
// read by the CLI and the job-loop runner (C6).
type ClientConfig struct {
	APIBaseURL        string   `mapstructure:"api_base_url"`
	QueueName         string   `mapstructure:"queue_name"`
	Password          string   `mapstructure:"password"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	CLIPlugins        []string `mapstructure:"cli_plugins"`
}

// LoadClient reads the client config from root/client.env.
func LoadClient(root string) (*ClientConfig, error) {
	v := viper.New()
	v.SetConfigName("client")
	v.SetConfigType("toml")
	v.AddConfigPath(root)

	v.SetDefault("api_base_url", "http://localhost:9321")
	v.SetDefault("queue_name", "")
	v.SetDefault("password", "")
	v.SetDefault("heartbeat_interval", 10*time.Second)
	v.SetDefault("cli_plugins", []string{})

	v.SetEnvPrefix("LABTASKER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
