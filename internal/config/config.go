package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	ListenPort      string        `validate:"required"` // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string `validate:"oneof=debug info warn error"`
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	AutochecksDir string `validate:"required"` // one <host>.yaml per host
	HostLabelsDir string `validate:"required"` // one <host>.yaml per host
	SnapshotDir   string `validate:"required"` // discovery snapshots written by the fetchers
	RulesFile     string `validate:"required"` // descriptions, check parameters, rediscovery, clusters

	DiscoveryInterval time.Duration `validate:"gte=0"` // periodic fleet rediscovery, 0 = manual only
	DiscoveryWorkers  int           `validate:"min=1"` // hosts reconciled in parallel
	GCInterval        time.Duration `validate:"gt=0"`  // summary garbage collection
	GCThreshold       time.Duration `validate:"gt=0"`  // age before summaries of vanished hosts are dropped

	// Redis, optional: summaries and host locks are local when RedisAddr is empty
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int           `validate:"gte=0"`
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between retries
	RedisPingTimeout      time.Duration // timeout for each ping attempt
	RedisPoolSize         int           `validate:"min=1"`
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold    int           // warn after this many attempts
	SummaryTTL            time.Duration `validate:"gt=0"`
	LockTTL               time.Duration `validate:"gt=0"`

	AllowedCIDRS   []string      // restrict mutating endpoints (e.g. "10.0.0.0/8, 127.0.0.1")
	TrustProxy     bool          // true => trust X-Forwarded-For headers
	RequestTimeout time.Duration `validate:"gt=0"` // per-request timeout, covers a single-host discovery
	RateBurst      int           `validate:"min=1"` // mutating requests per client before throttling
	RatePerMin     int           `validate:"min=1"` // refill rate of the mutating request budget
}

var validate = validator.New()

// Load reads the configuration from CMK_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenPort:      getenv("CMK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("CMK_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("CMK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CMK_PRETTY_LOG", true),

		AutochecksDir: getenv("CMK_AUTOCHECKS_DIR", "/var/lib/cmk-discovery/autochecks"),
		HostLabelsDir: getenv("CMK_HOST_LABELS_DIR", "/var/lib/cmk-discovery/host_labels"),
		SnapshotDir:   getenv("CMK_SNAPSHOT_DIR", "/var/lib/cmk-discovery/snapshots"),
		RulesFile:     getenv("CMK_RULES_FILE", "/etc/cmk-discovery/rules.yaml"),

		DiscoveryInterval: mustDuration("CMK_DISCOVERY_INTERVAL", 2*time.Hour),
		DiscoveryWorkers:  getenvInt("CMK_DISCOVERY_WORKERS", 4),
		GCInterval:        mustDuration("CMK_GC_INTERVAL", 24*time.Hour),
		GCThreshold:       mustDuration("CMK_GC_THRESHOLD", 30*24*time.Hour),

		RedisAddr:             getenv("CMK_REDIS_ADDR", ""),
		RedisUser:             getenv("CMK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("CMK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("CMK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("CMK_REDIS_DB", 0),
		RedisDT:               mustDuration("CMK_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("CMK_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("CMK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("CMK_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("CMK_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("CMK_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("CMK_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("CMK_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("CMK_REDIS_WARN_THRESHOLD", 3),
		SummaryTTL:            mustDuration("CMK_SUMMARY_TTL", 7*24*time.Hour),
		LockTTL:               mustDuration("CMK_LOCK_TTL", 5*time.Minute),

		AllowedCIDRS:   parseAllowedIPs(getenv("CMK_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("CMK_TRUST_PROXY", false),
		RequestTimeout: mustDuration("CMK_REQUEST_TIMEOUT", 60*time.Second),
		RateBurst:      getenvInt("CMK_RATE_LIMIT_BURST", 10),
		RatePerMin:     getenvInt("CMK_RATE_LIMIT_PER_MIN", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the Redis password requirement.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.RedisEnabled() && c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("invalid configuration: CMK_REDIS_PASSWORD is required when CMK_REDIS_PASSWORD_REQUIRED=true")
	}
	return nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// Redacted returns a copy safe for logging.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
