package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/store"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store      store.Kind // memory | redis | sqlite
	SQLitePath string     // database file when Store == sqlite
	SeedFile   string     // optional YAML seed, imported into an empty store

	RefreshInterval    time.Duration // background refresh of bubble times (default: 1m)
	SweepInterval      time.Duration // orphan link sweep (default: 1h)
	RefreshConcurrency int           // max bubbles refreshed at once

	// Redis (only read when Store == redis)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict mutating routes to specific Host headers
	AllowedCIDRS []string // optional, restrict probes to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateBurst    int      // per-IP token bucket size on mutating routes
	RatePerMin   int      // per-IP refill rate on mutating routes
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BUBBLETIME_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BUBBLETIME_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BUBBLETIME_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BUBBLETIME_PRETTY_LOG", true),

		// Storage
		Store:      mustStoreKind("BUBBLETIME_STORE", store.KindMemory),
		SQLitePath: getenv("BUBBLETIME_SQLITE_PATH", "bubbletime.db"),
		SeedFile:   getenv("BUBBLETIME_SEED_FILE", ""),

		// Background work
		RefreshInterval:    mustDuration("BUBBLETIME_REFRESH_INTERVAL", time.Minute),
		SweepInterval:      mustDuration("BUBBLETIME_SWEEP_INTERVAL", time.Hour),
		RefreshConcurrency: getenvInt("BUBBLETIME_REFRESH_CONCURRENCY", 8),

		// Redis settings
		RedisUser:           getenv("BUBBLETIME_REDIS_USERNAME", ""),
		RedisPassword:       getenv("BUBBLETIME_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("BUBBLETIME_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BUBBLETIME_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BUBBLETIME_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BUBBLETIME_TRUST_PROXY", false),
		RateBurst:    getenvInt("BUBBLETIME_RATE_BURST", 30),
		RatePerMin:   getenvInt("BUBBLETIME_RATE_PER_MIN", 120),
	}

	if cfg.Store == store.KindRedis {
		cfg.RedisAddr = requireEnv("BUBBLETIME_REDIS_ADDR")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
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

func mustStoreKind(key string, def store.Kind) store.Kind {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	kind, ok := store.ParseKind(strings.ToLower(strings.TrimSpace(v)))
	if !ok {
		panic(fmt.Sprintf("❌ FATAL: Invalid value for %s: %q (want memory, redis or sqlite)", key, v))
	}
	return kind
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
		// Zero and negative values fall back too: tickers reject them.
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
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
