package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"channel-catalog/logger"
)

type Config struct {
	Port          string
	APIBase       string
	Country       string
	CacheTTL      time.Duration
	FetchTimeout  time.Duration
	SyncCron      string
	SyncOnBoot    bool
	LanguageCodes []string
	CORSOrigins   []string

	RelatedLimit   int
	RelatedMinFill int

	// Requests per minute per client IP. Zero disables limiting.
	RateLimit int
}

// Language codes kept by the languages endpoint when LANGUAGE_CODES is unset.
var DefaultLanguageCodes = []string{
	"hin", "tam", "tel", "kan", "mal", "mar", "ben",
	"guj", "pan", "ori", "asm", "urd", "eng",
}

func Defaults() *Config {
	return &Config{
		Port:           "5000",
		APIBase:        "https://iptv-org.github.io/api",
		Country:        "IN",
		CacheTTL:       2 * time.Hour,
		FetchTimeout:   10 * time.Second,
		SyncCron:       "0 */2 * * *",
		SyncOnBoot:     true,
		LanguageCodes:  DefaultLanguageCodes,
		CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		RelatedLimit:   15,
		RelatedMinFill: 10,
		RateLimit:      300,
	}
}

var (
	mu           sync.RWMutex
	globalConfig = Defaults()
)

func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

func SetConfig(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = c
}

// LoadFromEnv builds a Config from the environment. Malformed values are
// reported and replaced by their defaults.
func LoadFromEnv(log logger.Logger) *Config {
	c := Defaults()

	c.Port = stringEnv("PORT", c.Port)
	c.APIBase = strings.TrimRight(stringEnv("API_BASE", c.APIBase), "/")
	c.Country = strings.ToUpper(stringEnv("COUNTRY", c.Country))
	c.CacheTTL = durationEnv(log, "CACHE_TTL", c.CacheTTL)
	c.FetchTimeout = durationEnv(log, "FETCH_TIMEOUT", c.FetchTimeout)
	c.SyncOnBoot = boolEnv(log, "SYNC_ON_BOOT", c.SyncOnBoot)
	c.RelatedLimit = intEnv(log, "RELATED_LIMIT", c.RelatedLimit)
	c.RelatedMinFill = intEnv(log, "RELATED_MIN_FILL", c.RelatedMinFill)
	c.RateLimit = intEnv(log, "RATE_LIMIT", c.RateLimit)

	if v, ok := os.LookupEnv("SYNC_CRON"); ok {
		// An explicitly empty SYNC_CRON disables background refresh.
		c.SyncCron = strings.TrimSpace(v)
	}
	if v := listEnv("LANGUAGE_CODES"); len(v) > 0 {
		c.LanguageCodes = v
	}
	if v := listEnv("CORS_ORIGINS"); len(v) > 0 {
		c.CORSOrigins = v
	}

	return c
}

func stringEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func durationEnv(log logger.Logger, key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warnf("Invalid %s %q, defaulting to %s", key, v, def)
		return def
	}
	return d
}

func intEnv(log logger.Logger, key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		log.Warnf("Invalid %s %q, defaulting to %d", key, v, def)
		return def
	}
	return i
}

func boolEnv(log logger.Logger, key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("Invalid %s %q, defaulting to %t", key, v, def)
		return def
	}
	return b
}

func listEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
