// Package config contains all configuration types and loading logic.
package config

// ServerConfig holds server-level configuration.
type ServerConfig struct {
	ListenAddress      string `toml:"listen_address" mapstructure:"listen_address"`
	BindIP             string `toml:"bind_ip" mapstructure:"bind_ip"`
	MetricsEnabled     bool   `toml:"metricsenabled" mapstructure:"metricsenabled"`
	MetricsPort        string `toml:"metricsport" mapstructure:"metricsport"`
	MaxBodySize        string `toml:"max_body_size" mapstructure:"max_body_size"`
	MaxHeaderBytes     int    `toml:"max_header_bytes" mapstructure:"max_header_bytes"`
	MinFreeBytes       string `toml:"min_free_bytes" mapstructure:"min_free_bytes"`
	PIDFilePath        string `toml:"pidfilepath" mapstructure:"pidfilepath"`
	CORSEnabled        bool   `toml:"cors_enabled" mapstructure:"cors_enabled"`
	CompressionEnabled bool   `toml:"compression_enabled" mapstructure:"compression_enabled"`
	ForceProtocol      string `toml:"force_protocol" mapstructure:"force_protocol"` // outbound dialing: "ipv4", "ipv6", or "auto"
}

// ResolverConfig selects the resolution capability set.
type ResolverConfig struct {
	// Table picks the extension table variant, "light" or "full".
	Table string `toml:"table" mapstructure:"table"`
	// Magic enables content sniffing.
	Magic bool `toml:"magic" mapstructure:"magic"`
}

// PolicyConfig holds resolved-type policy configuration for encode
// requests.
type PolicyConfig struct {
	AllowedTypes   []string `toml:"allowed_types" mapstructure:"allowed_types"`
	BlockedTypes   []string `toml:"blocked_types" mapstructure:"blocked_types"`
	MaxPayloadSize string   `toml:"max_payload_size" mapstructure:"max_payload_size"`
	StrictMode     bool     `toml:"strict_mode" mapstructure:"strict_mode"` // Reject if type can't be detected
}

// ThumbnailsConfig holds thumbnail generation configuration.
type ThumbnailsConfig struct {
	Enabled   bool   `toml:"enabled" mapstructure:"enabled"`
	Directory string `toml:"directory" mapstructure:"directory"`
	Width     int    `toml:"width" mapstructure:"width"`
	Height    int    `toml:"height" mapstructure:"height"`
	Quality   int    `toml:"quality" mapstructure:"quality"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// TimeoutConfig holds timeout configuration.
type TimeoutConfig struct {
	Read     string `mapstructure:"readtimeout" toml:"readtimeout"`
	Write    string `mapstructure:"writetimeout" toml:"writetimeout"`
	Idle     string `mapstructure:"idletimeout" toml:"idletimeout"`
	Shutdown string `mapstructure:"shutdown" toml:"shutdown"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	EnableJWT     bool   `toml:"enablejwt" mapstructure:"enablejwt"`
	JWTSecret     string `toml:"jwtsecret" mapstructure:"jwtsecret"`
	JWTAlgorithm  string `toml:"jwtalgorithm" mapstructure:"jwtalgorithm"`
	JWTExpiration string `toml:"jwtexpiration" mapstructure:"jwtexpiration"`
}

// ClamAVConfig holds ClamAV configuration.
type ClamAVConfig struct {
	ClamAVEnabled  bool   `mapstructure:"clamavenabled"`
	ClamAVSocket   string `mapstructure:"clamavsocket"`
	NumScanWorkers int    `mapstructure:"numscanworkers"`
	MaxScanSize    string `mapstructure:"maxscansize"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	RedisEnabled             bool   `mapstructure:"redisenabled"`
	RedisDBIndex             int    `mapstructure:"redisdbindex"`
	RedisAddr                string `mapstructure:"redisaddr"`
	RedisPassword            string `mapstructure:"redispassword"`
	RedisHealthCheckInterval string `mapstructure:"redishealthcheckinterval"`
}

// CacheConfig holds sniff-result cache configuration.
type CacheConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	TTL             string `mapstructure:"ttl"`
	CleanupInterval string `mapstructure:"cleanup_interval"`
}

// HistoryConfig holds SQLite resolution-history configuration.
type HistoryConfig struct {
	Enabled  bool   `toml:"enabled" mapstructure:"enabled"`
	DBPath   string `toml:"db_path" mapstructure:"db_path"`
	PurgeAge string `toml:"purge_age" mapstructure:"purge_age"` // age after which history rows are purged
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled         bool     `toml:"enabled" mapstructure:"enabled"`
	RequestsPerMin  int      `toml:"requests_per_minute" mapstructure:"requests_per_minute"`
	BurstSize       int      `toml:"burst_size" mapstructure:"burst_size"`
	CleanupInterval string   `toml:"cleanup_interval" mapstructure:"cleanup_interval"`
	WhitelistedIPs  []string `toml:"whitelisted_ips" mapstructure:"whitelisted_ips"`
}

// WorkersConfig holds worker pool configuration.
type WorkersConfig struct {
	NumWorkers int `mapstructure:"numworkers"`
	QueueSize  int `mapstructure:"queuesize"`
}

// BuildConfig holds build metadata.
type BuildConfig struct {
	Version string `mapstructure:"version"`
}

// Config is the top-level configuration struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Thumbnails ThumbnailsConfig `mapstructure:"thumbnails"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Timeouts   TimeoutConfig    `mapstructure:"timeouts"`
	Security   SecurityConfig   `mapstructure:"security"`
	ClamAV     ClamAVConfig     `mapstructure:"clamav"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	History    HistoryConfig    `mapstructure:"history"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Build      BuildConfig      `mapstructure:"build"`
}
