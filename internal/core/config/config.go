// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ProviderCfg struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

type CacheCfg struct {
	Store      string
	File       string
	MaxEntries int
	RedisAddr  string
	Namespace  string
	OpTimeout  time.Duration
}

type EventsCfg struct {
	Enabled bool
	Topic   string
}

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	GroupID string
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr         string
	LogLevel     string
	LogConsole   bool
	RoutesFile   string
	DatabaseURL  string
	HeatmapRes   int
	KafkaBrokers []string
	Provider     ProviderCfg
	Cache        CacheCfg
	Events       EventsCfg
	Invalidation InvalidationCfg
	Metrics      MetricsCfg
}

// default endpoints per provider; PROVIDER_URL overrides
var providerURLs = map[string]string{
	"ors":         "https://api.openrouteservice.org",
	"graphhopper": "https://graphhopper.com/api/1",
}

func FromEnv() Config {
	res := getint("HEATMAP_RES", 7)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	prov := strings.ToLower(strings.TrimSpace(getenv("PROVIDER", "ors")))

	return Config{
		Addr:         getenv("ADDR", ":8090"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogConsole:   getbool("LOG_CONSOLE", false),
		RoutesFile:   getenv("ROUTES_FILE", "routes.json"),
		DatabaseURL:  getenv("DATABASE_URL", ""),
		HeatmapRes:   res,
		KafkaBrokers: SplitList(getenv("KAFKA_BROKERS", "localhost:9092")),
		Provider: ProviderCfg{
			Name:    prov,
			BaseURL: getenv("PROVIDER_URL", providerURLs[prov]),
			APIKey:  getenv("PROVIDER_API_KEY", ""),
			Timeout: getduration("PROVIDER_TIMEOUT", 15*time.Second),
			RPS:     getfloat("PROVIDER_RPS", 0.6),
			Burst:   getint("PROVIDER_BURST", 1),
		},
		Cache: CacheCfg{
			Store:      strings.ToLower(getenv("CACHE_STORE", "file")),
			File:       getenv("CACHE_FILE", "route_cache.json"),
			MaxEntries: getint("CACHE_MAX_ENTRIES", 1000),
			RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
			Namespace:  getenv("CACHE_NAMESPACE", "default"),
			OpTimeout:  getduration("CACHE_OP_TIMEOUT", 2*time.Second),
		},
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Topic:   getenv("EVENTS_TOPIC", "route-resolutions"),
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("INVALIDATION_TOPIC", "route-invalidation"),
			GroupID: getenv("KAFKA_GROUP_ID", "route-cache-invalidator"),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ""),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// "a:9092, b:9092" -> ["a:9092" "b:9092"]
func SplitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
