package cfg

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	ChannelsDir      string            `long:"channels-dir" env:"CHANNELS_DIR" default:"./channels" description:"Directory containing channel configuration files"`
	Port             string            `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl          string            `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	WorkerCount      int               `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for cache warm-up"`
	WarmInterval     int               `long:"warm-interval" env:"WARM_INTERVAL" default:"300" description:"Cache warm-up interval in seconds"`
	APIAccessKey     string            `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	DefaultLimit     int               `long:"default-limit" env:"DEFAULT_LIMIT" default:"20" description:"Item limit used when a request does not set one"`
	FetchConcurrency int               `long:"fetch-concurrency" env:"FETCH_CONCURRENCY" default:"4" description:"Number of sources fetched in parallel per channel"`
	RequestTimeout   int               `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
	RequestRetries   int               `long:"request-retries" env:"REQUEST_RETRIES" default:"2" description:"Retries for failed source requests"`
	RequestHeaders   map[string]string `long:"request-header" env:"REQUEST_HEADERS" env-delim:";" description:"Extra header sent to every source, as Name:Value (repeatable)"`

	// Cache configuration
	CacheBackend string `long:"cache-backend" env:"CACHE_BACKEND" default:"memory" choice:"none" choice:"memory" choice:"sqlite" choice:"redis" description:"Cache backend"`
	CacheTTL     int    `long:"cache-ttl" env:"CACHE_TTL" default:"600" description:"Cache entry lifetime in seconds (0 keeps entries forever)"`
	SQLitePath   string `long:"sqlite-path" env:"SQLITE_PATH" default:"./rss-blend.db" description:"SQLite cache database file"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis server address"`
	RedisDB      int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests (defaults to RSS Blend/<version>)"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ChannelsDir:      raw.ChannelsDir,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		WorkerCount:      raw.WorkerCount,
		WarmInterval:     raw.WarmInterval,
		APIAccessKey:     raw.APIAccessKey,
		DefaultLimit:     raw.DefaultLimit,
		FetchConcurrency: raw.FetchConcurrency,
		RequestTimeout:   raw.RequestTimeout,
		RequestRetries:   raw.RequestRetries,
		RequestHeaders:   trimHeaders(raw.RequestHeaders),
		CacheBackend:     raw.CacheBackend,
		CacheTTL:         raw.CacheTTL,
		SQLitePath:       raw.SQLitePath,
		RedisAddr:        raw.RedisAddr,
		RedisDB:          raw.RedisDB,
		UserAgent:        cmp.Or(raw.UserAgent, "RSS Blend/"+GetVersion()),
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests and embedding.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func (c *Cfg) validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be positive, got %d", c.FetchConcurrency)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.WorkerCount)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %d", c.RequestTimeout)
	}
	if c.RequestRetries < 0 || c.CacheTTL < 0 || c.WarmInterval < 0 {
		return fmt.Errorf("retries, cache TTL and warm interval must be non-negative")
	}
	return nil
}

func trimHeaders(headers map[string]string) map[string]string {
	trimmed := make(map[string]string, len(headers))
	for name, value := range headers {
		trimmed[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return trimmed
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
