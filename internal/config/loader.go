package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var log = logrus.New()

// SetLogger replaces the package-level logger.
func SetLogger(l *logrus.Logger) { log = l }

// ConfigFileGlobal stores the config file path for validation helpers.
var ConfigFileGlobal string

// Load loads configuration from a TOML file using viper.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = "./config.toml"
	}

	if !fileExists(configFile) {
		return nil, fmt.Errorf("configuration file not found: %s", configFile)
	}

	viper.SetConfigFile(configFile)
	viper.SetConfigType("toml")
	viper.SetDefault("resolver.magic", true)
	viper.SetDefault("cache.enabled", true)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	applyDefaults(&conf)

	log.Infof("Configuration loaded from %s", configFile)
	return &conf, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	conf := &Config{}
	conf.Resolver.Magic = true
	conf.Cache.Enabled = true
	applyDefaults(conf)
	return conf
}

func applyDefaults(conf *Config) {
	if conf.Server.ListenAddress == "" {
		conf.Server.ListenAddress = "8080"
	}
	if conf.Server.MetricsPort == "" {
		conf.Server.MetricsPort = "9090"
	}
	if conf.Server.MaxBodySize == "" {
		conf.Server.MaxBodySize = "10MB"
	}
	if conf.Server.MinFreeBytes == "" {
		conf.Server.MinFreeBytes = "100MB"
	}
	if conf.Server.PIDFilePath == "" {
		conf.Server.PIDFilePath = "/var/run/mime-resolver.pid"
	}

	if conf.Resolver.Table == "" {
		conf.Resolver.Table = "light"
	}

	if conf.Policy.MaxPayloadSize == "" {
		conf.Policy.MaxPayloadSize = "10MB"
	}

	if conf.Thumbnails.Directory == "" {
		conf.Thumbnails.Directory = "./thumbnails"
	}
	if conf.Thumbnails.Width == 0 {
		conf.Thumbnails.Width = 320
	}
	if conf.Thumbnails.Height == 0 {
		conf.Thumbnails.Height = 240
	}
	if conf.Thumbnails.Quality == 0 {
		conf.Thumbnails.Quality = 75
	}

	if conf.Logging.Level == "" {
		conf.Logging.Level = "info"
	}
	if conf.Logging.MaxSize == 0 {
		conf.Logging.MaxSize = 100
	}
	if conf.Logging.MaxBackups == 0 {
		conf.Logging.MaxBackups = 7
	}
	if conf.Logging.MaxAge == 0 {
		conf.Logging.MaxAge = 30
	}

	if conf.Timeouts.Read == "" {
		conf.Timeouts.Read = "30s"
	}
	if conf.Timeouts.Write == "" {
		conf.Timeouts.Write = "30s"
	}
	if conf.Timeouts.Idle == "" {
		conf.Timeouts.Idle = "120s"
	}
	if conf.Timeouts.Shutdown == "" {
		conf.Timeouts.Shutdown = "30s"
	}

	if conf.Security.JWTAlgorithm == "" {
		conf.Security.JWTAlgorithm = "HS256"
	}
	if conf.Security.JWTExpiration == "" {
		conf.Security.JWTExpiration = "24h"
	}

	if conf.ClamAV.NumScanWorkers == 0 {
		conf.ClamAV.NumScanWorkers = 2
	}
	if conf.ClamAV.MaxScanSize == "" {
		conf.ClamAV.MaxScanSize = "10MB"
	}

	if conf.Redis.RedisAddr == "" {
		conf.Redis.RedisAddr = "localhost:6379"
	}
	if conf.Redis.RedisHealthCheckInterval == "" {
		conf.Redis.RedisHealthCheckInterval = "120s"
	}

	if conf.Cache.TTL == "" {
		conf.Cache.TTL = "5m"
	}
	if conf.Cache.CleanupInterval == "" {
		conf.Cache.CleanupInterval = "10m"
	}

	if conf.History.DBPath == "" {
		conf.History.DBPath = "./resolutions.db"
	}
	if conf.History.PurgeAge == "" {
		conf.History.PurgeAge = "720h"
	}

	if conf.RateLimit.RequestsPerMin == 0 {
		conf.RateLimit.RequestsPerMin = 60
	}
	if conf.RateLimit.BurstSize == 0 {
		conf.RateLimit.BurstSize = 10
	}
	if conf.RateLimit.CleanupInterval == "" {
		conf.RateLimit.CleanupInterval = "5m"
	}

	if conf.Workers.NumWorkers == 0 {
		conf.Workers.NumWorkers = 4
	}
	if conf.Workers.QueueSize == 0 {
		conf.Workers.QueueSize = 50
	}

	if conf.Build.Version == "" {
		conf.Build.Version = "1.2.0"
	}
}

// ValidateConfig performs basic configuration validation.
func ValidateConfig(c *Config) error {
	if c.Server.ListenAddress == "" {
		return errors.New("server.listen_address is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Resolver.Table)) {
	case "", "light", "full":
	default:
		return fmt.Errorf("resolver.table must be \"light\" or \"full\", got %q", c.Resolver.Table)
	}

	switch c.Server.ForceProtocol {
	case "", "auto", "ipv4", "ipv6":
	default:
		return fmt.Errorf("server.force_protocol must be \"ipv4\", \"ipv6\", or \"auto\", got %q", c.Server.ForceProtocol)
	}

	if _, err := time.ParseDuration(c.Timeouts.Read); err != nil {
		return fmt.Errorf("invalid timeouts.read: %v", err)
	}
	if _, err := time.ParseDuration(c.Timeouts.Write); err != nil {
		return fmt.Errorf("invalid timeouts.write: %v", err)
	}
	if _, err := time.ParseDuration(c.Timeouts.Idle); err != nil {
		return fmt.Errorf("invalid timeouts.idle: %v", err)
	}

	if c.Cache.Enabled {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("invalid cache.ttl: %v", err)
		}
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin <= 0 {
		return errors.New("rate_limit.requests_per_minute must be positive when rate limiting is enabled")
	}

	if c.Security.EnableJWT && strings.TrimSpace(c.Security.JWTSecret) == "" {
		return errors.New("security.jwtsecret is required when security.enablejwt is true")
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return errors.New("history.db_path is required when history is enabled")
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GenerateMinimalConfig returns a minimal example configuration string.
func GenerateMinimalConfig() string {
	return `# MIME Resolver - Minimal Configuration
# For full options, use --genconfig-advanced

[server]
listen_address = "8080"
bind_ip = "0.0.0.0"
metricsenabled = true
metricsport = "9090"
max_body_size = "10MB"
pidfilepath = "/var/run/mime-resolver.pid"

[resolver]
table = "light"
magic = true

[logging]
level = "info"
file = "/var/log/mime-resolver.log"
max_size = 100
max_backups = 7
max_age = 30
compress = true

[timeouts]
readtimeout = "30s"
writetimeout = "30s"
idletimeout = "120s"

[workers]
numworkers = 4
queuesize = 50

[build]
version = "1.2.0"
`
}

// CreateMinimalConfig writes a minimal config.toml to disk.
func CreateMinimalConfig() error {
	content := GenerateMinimalConfig()
	f, err := os.Create("config.toml")
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	_, err = fmt.Fprint(w, content)
	if err != nil {
		return err
	}
	return w.Flush()
}

// GenerateAdvancedConfigTemplate returns an advanced configuration template.
func GenerateAdvancedConfigTemplate() string {
	return `# MIME Resolver - Advanced Configuration Template
# Generated by mime-resolver --genconfig-advanced

[server]
listen_address = "8080"
bind_ip = "0.0.0.0"
metricsenabled = true
metricsport = "9090"
max_body_size = "10MB"
max_header_bytes = 1048576
min_free_bytes = "100MB"
pidfilepath = "/var/run/mime-resolver.pid"
cors_enabled = true
compression_enabled = true
force_protocol = "auto"

[resolver]
table = "light"
magic = true

[policy]
allowed_types = ["image/*", "video/*", "audio/*", "text/*", "application/pdf", "application/json", "application/xml"]
blocked_types = ["application/x-executable", "application/x-msdos-program", "text/x-shellscript"]
max_payload_size = "10MB"
strict_mode = false

[thumbnails]
enabled = true
directory = "./thumbnails"
width = 320
height = 240
quality = 75

[logging]
level = "info"
file = "/var/log/mime-resolver.log"
max_size = 100
max_backups = 7
max_age = 30
compress = true

[timeouts]
readtimeout = "30s"
writetimeout = "30s"
idletimeout = "120s"
shutdown = "30s"

[security]
enablejwt = false
jwtsecret = "your-jwt-secret"
jwtalgorithm = "HS256"
jwtexpiration = "24h"

[clamav]
clamavenabled = false
clamavsocket = "/var/run/clamav/clamd.ctl"
numscanworkers = 2
maxscansize = "10MB"

[redis]
redisenabled = false
redisdbindex = 0
redisaddr = "localhost:6379"
redispassword = ""
redishealthcheckinterval = "120s"

[cache]
enabled = true
ttl = "5m"
cleanup_interval = "10m"

[history]
enabled = true
db_path = "./resolutions.db"
purge_age = "720h"

[rate_limit]
enabled = false
requests_per_minute = 60
burst_size = 10
cleanup_interval = "5m"
whitelisted_ips = ["127.0.0.1", "::1"]

[workers]
numworkers = 4
queuesize = 50

[build]
version = "1.2.0"
`
}
