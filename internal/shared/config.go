package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	HTTPTimeout time.Duration
	MetricsAddr string

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	// Sentiment service. Empty base URL selects the built-in lexicon.
	SentimentBase    string
	SentimentKey     string
	SentimentRPS     int
	SentimentTimeout time.Duration

	// Assistant. Empty key disables refinement entirely.
	AnthropicKey     string
	AnthropicModel   string
	AssistantTimeout time.Duration

	SpamKeywords []string
	DedupeWindow time.Duration
	CacheTTL     time.Duration
	TopK         int

	// Seeder.
	SeedFile string
	Workers  int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		HTTPTimeout: time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/foodi?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),

		SentimentBase:    env("SENTIMENT_BASE_URL", ""),
		SentimentKey:     env("SENTIMENT_API_KEY", ""),
		SentimentRPS:     atoi("SENTIMENT_RPS", 5),
		SentimentTimeout: time.Duration(atoi("SENTIMENT_TIMEOUT_MS", 2000)) * time.Millisecond,

		AnthropicKey:     env("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   env("ANTHROPIC_MODEL", ""),
		AssistantTimeout: time.Duration(atoi("ASSISTANT_TIMEOUT_MS", 3000)) * time.Millisecond,

		SpamKeywords: splitCSV(env("SPAM_KEYWORDS", "광고,홍보,스팸")),
		DedupeWindow: time.Duration(atoi("DEDUPE_WINDOW_SECONDS", 600)) * time.Second,
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		TopK:         atoi("RECOMMEND_TOP_K", 3),

		SeedFile: env("SEED_FILE", "seed/venues.json"),
		Workers:  atoi("SEED_WORKERS", 8),
	}
	if c.SentimentBase == "" {
		log.Info().Msg("SENTIMENT_BASE_URL is empty; using built-in lexicon analyzer")
	}
	if c.AnthropicKey == "" {
		log.Info().Msg("ANTHROPIC_API_KEY is empty; assistant refinement disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
