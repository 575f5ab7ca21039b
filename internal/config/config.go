package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the coordinator (server) process's configuration, loaded
// from a flat env-style file plus environment variables.
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Security SecurityConfig
	Sweeper  SweeperConfig
	Metrics  MetricsConfig
	LogLevel string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RateLimitRPS caps requests per second per remote address; 0 disables it.
	RateLimitRPS int
	// AllowUnsafeBehavior gates the raw query_collection/update_collection
	// endpoints (§9 open question): disabled unless explicitly opted in,
	// since their filter/update documents are unsanitized by design.
	AllowUnsafeBehavior bool
}

type MongoConfig struct {
	URI      string
	Database string
	// ConnectTimeout bounds the initial client handshake.
	ConnectTimeout time.Duration
}

type SecurityConfig struct {
	// Pepper is appended to every queue password before bcrypt hashing,
	// so a leaked password-hash dump alone is not enough to brute force.
	Pepper            string
	BcryptCost        int
	MinPasswordLength int
}

type SweeperConfig struct {
	// Interval is PERIODIC_TASK_INTERVAL from §6.3: how often the
	// timeout sweeper scans RUNNING tasks.
	Interval time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads the server configuration from an optional config file plus
// LABTASKER_-prefixed environment variables, following the same
// viper-defaults-then-env-then-file pattern as the client loader.
func Load() (*Config, error) {
	viper.SetConfigName("server")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/labtasker")

	setServerDefaults()

	viper.SetEnvPrefix("LABTASKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setServerDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 9321)
	viper.SetDefault("server.readtimeout", 30*time.Second)
	viper.SetDefault("server.writetimeout", 30*time.Second)
	viper.SetDefault("server.idletimeout", 120*time.Second)
	viper.SetDefault("server.ratelimitrps", 0)
	viper.SetDefault("server.allowunsafebehavior", false)

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "labtasker")
	viper.SetDefault("mongo.connecttimeout", 10*time.Second)

	viper.SetDefault("security.pepper", "")
	viper.SetDefault("security.bcryptcost", 10)
	viper.SetDefault("security.minpasswordlength", 6)

	viper.SetDefault("sweeper.interval", 30*time.Second)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("loglevel", "info")
}
