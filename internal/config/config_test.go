package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"I18N_TRANSLATE_FN", "I18N_ENABLE_CONCATENATION", "I18N_ASYNC_LOCALES",
		"I18N_EXTRA_RANGES", "WORKER_COUNT", "I18N_EXCLUDE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "$t", cfg.TranslateFunc)
	assert.Equal(t, "cjk", cfg.TargetScript)
	assert.False(t, cfg.EnableConcatenation)
	assert.True(t, cfg.EnableDirectiveFilter)
	assert.True(t, cfg.AsyncLocales)
	assert.Equal(t, "concat", cfg.BuilderMethod)
	assert.Equal(t, "node_modules", cfg.Exclude)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Nil(t, cfg.ExtraRanges)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("I18N_TRANSLATE_FN", "t")
	t.Setenv("I18N_ENABLE_CONCATENATION", "true")
	t.Setenv("I18N_ASYNC_LOCALES", "0")
	t.Setenv("I18N_EXTRA_RANGES", "3040-309F, ,30A0-30FF")
	t.Setenv("WORKER_COUNT", "2")

	cfg := Load()
	assert.Equal(t, "t", cfg.TranslateFunc)
	assert.True(t, cfg.EnableConcatenation)
	assert.False(t, cfg.AsyncLocales)
	assert.Equal(t, []string{"3040-309F", "30A0-30FF"}, cfg.ExtraRanges)
	assert.Equal(t, 2, cfg.WorkerCount)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("I18N_ENABLE_DIRECTIVE_FILTER", "maybe")

	assert.Equal(t, 8, getEnvInt("WORKER_COUNT", 8))
	assert.True(t, getEnvBool("I18N_ENABLE_DIRECTIVE_FILTER", true))
}
