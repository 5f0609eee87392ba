package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, body string) *Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bizplanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, Load(v))
	return FromViper(v)
}

func TestDefaultsMatchWizardConstants(t *testing.T) {
	cfg := loadFrom(t, "")

	assert.Equal(t, 2*time.Second, cfg.SaveDebounce)
	assert.Equal(t, 3*time.Second, cfg.Preview.PollInterval)
	assert.Equal(t, 10, cfg.Preview.MinAnswerLength)
	assert.False(t, cfg.Preview.AllowRawHTML)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "mongo", cfg.StorageBackend)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.NoError(t, Check(cfg))
}

func TestFileOverridesDefaults(t *testing.T) {
	cfg := loadFrom(t, `
locale: fr
redis:
  addr: redis://cache:6379
preview:
  poll_interval: 0s
  min_answer_length: 25
planapi:
  base_url: https://plans.example.com/api/
`)

	assert.Equal(t, "fr", cfg.Locale)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, time.Duration(0), cfg.Preview.PollInterval)
	assert.Equal(t, 25, cfg.Preview.MinAnswerLength)
	assert.Equal(t, "https://plans.example.com/api", cfg.PlanAPI.BaseURL)
	assert.NoError(t, Check(cfg))
}

func TestMemoryBackendsNeedNoServers(t *testing.T) {
	cfg := loadFrom(t, `
storage:
  backend: memory
cache:
  backend: memory
redis:
  addr: ""
mongo:
  uri: ""
`)
	assert.NoError(t, Check(cfg))
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, Load(v))
	assert.Equal(t, ":8080", v.GetString("http_addr"))
}

func TestCheckReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Locale:                 "de",
		StorageBackend:         "sqlite",
		PlanAPI:                PlanAPIConfig{BaseURL: "not a url"},
		Preview:                PreviewConfig{PollInterval: -time.Second, MinAnswerLength: -1},
		GenerationPollInterval: 0,
	}

	err := Check(cfg)
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"http_addr is required",
		"locale must be en or fr",
		"storage.backend must be mongo, remote or memory",
		"cache.backend must be redis or memory",
		"auth.jwt_secret is required",
		"planapi.base_url is not a valid url",
		"planapi.max_retries must be greater than 0",
		"wizard.save_debounce must be greater than 0",
		"preview.poll_interval must not be negative",
		"preview.min_answer_length must not be negative",
		"generation.poll_interval must be greater than 0",
	} {
		assert.True(t, strings.Contains(msg, want), "expected %q in %q", want, msg)
	}
}
