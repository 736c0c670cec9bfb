package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Storage    string // "memory" | "redis" | "sqlite"
	Profile    string // namespace of the persisted keys (ex: "default")
	SQLitePath string // database file used by the sqlite backend

	// GitHub
	GitHubAPIURL   string        // ex: https://api.github.com
	GitHubTimeout  time.Duration // timeout for a single GitHub call
	LookupTimeout  time.Duration // timeout for one repository lookup during an import
	LookupCacheTTL time.Duration // lookup cache TTL in redis, 0 disables the cache

	// Homepage export, written by serve when a path is set
	HomepageExportPath     string        // ex: /config/bookmarks.yaml
	HomepageExportInterval time.Duration // ex: 1m

	// Redis
	RedisAddr             string        // ex: "localhost:6379", required with STORAGE=redis
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict infra routes to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	AllowedOrigins []string // CORS origins allowed to call the API, "*" for any
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	SearchBurst  int // search requests a client may burst
	SearchPerMin int // sustained search requests per minute and client
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("GITMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("GITMARK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("GITMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("GITMARK_PRETTY_LOG", true),

		// Persistence
		Storage:    strings.ToLower(getenv("GITMARK_STORAGE", StorageSQLite)),
		Profile:    getenv("GITMARK_PROFILE", "default"),
		SQLitePath: getenv("GITMARK_SQLITE_PATH", defaultSQLitePath()),

		// GitHub
		GitHubAPIURL:   getenv("GITMARK_GITHUB_API_URL", "https://api.github.com"),
		GitHubTimeout:  mustDuration("GITMARK_GITHUB_TIMEOUT", 10*time.Second),
		LookupTimeout:  mustDuration("GITMARK_LOOKUP_TIMEOUT", 15*time.Second),
		LookupCacheTTL: mustDuration("GITMARK_LOOKUP_CACHE_TTL", time.Hour),

		HomepageExportPath:     getenv("GITMARK_HOMEPAGE_EXPORT_PATH", ""),
		HomepageExportInterval: mustDuration("GITMARK_HOMEPAGE_EXPORT_INTERVAL", time.Minute),

		// Redis settings
		RedisAddr:             getenv("GITMARK_REDIS_ADDR", ""),
		RedisUser:             getenv("GITMARK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("GITMARK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("GITMARK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("GITMARK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("GITMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("GITMARK_ALLOWED_CIDRS", "127.0.0.1/32, ::1/128")),
		AllowedOrigins: splitAndTrim(getenv("GITMARK_ALLOWED_ORIGINS", "")),
		TrustProxy:     mustBool("GITMARK_TRUST_PROXY", false),

		SearchBurst:  getenvInt("GITMARK_SEARCH_BURST", 10),
		SearchPerMin: getenvInt("GITMARK_SEARCH_PER_MIN", 30),
	}

	switch cfg.Storage {
	case StorageMemory, StorageSQLite:
	case StorageRedis:
		cfg.RedisAddr = requireEnv("GITMARK_REDIS_ADDR")
	default:
		panic(fmt.Sprintf("❌ FATAL: GITMARK_STORAGE must be one of memory, redis, sqlite (got %q)", cfg.Storage))
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: GITMARK_REDIS_PASSWORD is required when GITMARK_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// UsesRedis reports whether a redis connection is needed, either as the
// storage backend or for the lookup cache.
func (c *Config) UsesRedis() bool {
	return c.Storage == StorageRedis || c.RedisAddr != ""
}

// defaultSQLitePath puts the database under the user's config directory,
// falling back to the working directory.
func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gitmark.db"
	}
	return filepath.Join(dir, "gitmark", "gitmark.db")
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
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
