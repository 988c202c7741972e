package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	TranslateFunc         string
	TargetScript          string
	ExtraRanges           []string
	EnableConcatenation   bool
	EnableDirectiveFilter bool
	BuilderMethod         string
	DefaultLocale         string
	AsyncLocales          bool
	Exclude               string
	DisableMarker         string
	WorkerCount           int
	BatchSize             int
	CachePath             string
	DatabaseURL           string
	Neo4jURI              string
	Neo4jUser             string
	Neo4jPassword         string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		TranslateFunc:         getEnv("I18N_TRANSLATE_FN", "$t"),
		TargetScript:          getEnv("I18N_TARGET_SCRIPT", "cjk"),
		ExtraRanges:           getEnvList("I18N_EXTRA_RANGES", nil),
		EnableConcatenation:   getEnvBool("I18N_ENABLE_CONCATENATION", false),
		EnableDirectiveFilter: getEnvBool("I18N_ENABLE_DIRECTIVE_FILTER", true),
		BuilderMethod:         getEnv("I18N_BUILDER_METHOD", "concat"),
		DefaultLocale:         getEnv("I18N_DEFAULT_LOCALE", ""),
		AsyncLocales:          getEnvBool("I18N_ASYNC_LOCALES", true),
		Exclude:               getEnv("I18N_EXCLUDE", "node_modules"),
		DisableMarker:         getEnv("I18N_DISABLE_MARKER", "auto-i18n-disable"),
		WorkerCount:           getEnvInt("WORKER_COUNT", 8),
		BatchSize:             getEnvInt("BATCH_SIZE", 500),
		CachePath:             getEnv("I18N_CACHE_PATH", ".auto-i18n/cache.db"),
		DatabaseURL:           getEnv("DATABASE_URL", "postgres://localhost:5432/auto_i18n?sslmode=disable"),
		Neo4jURI:              getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:             getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:         getEnv("NEO4J_PASSWORD", "password"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean, using default")
		return fallback
	}
	return b
}

// getEnvList splits a comma-separated value, dropping blank items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
