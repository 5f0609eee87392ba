package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// ConfigOption describes one configuration key and its default
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "http_addr", Default: ":8080", Comment: "HTTP listen address"},
		{Key: "locale", Default: "en", Comment: "Default locale for step titles and placeholders (en, fr)"},
		{Key: "log.level", Default: "info", Comment: "Log level (debug, info, warn, error)"},
		{Key: "log.format", Default: "json", Comment: "Log encoding (json, console)"},

		{Key: "storage.backend", Default: "mongo", Comment: "Where templates and responses live: mongo, remote or memory"},
		{Key: "templates.file", Default: "", Comment: "Questionnaire YAML for the memory backend and seeding; empty uses the built-in one"},
		{Key: "cache.backend", Default: "redis", Comment: "Where wizard state and previews are cached: redis or memory"},
		{Key: "mongo.uri", Default: "mongodb://localhost:27017", Comment: "MongoDB connection string"},
		{Key: "mongo.database", Default: "bizplanner", Comment: "MongoDB database name"},
		{Key: "redis.addr", Default: "localhost:6379", Comment: "Redis address (redis:// prefix accepted)"},
		{Key: "redis.session_ttl", Default: "24h", Comment: "How long wizard state survives in Redis"},

		{Key: "auth.username", Default: "admin", Comment: "Login username"},
		{Key: "auth.password", Default: "password123", Comment: "Login password"},
		{Key: "auth.jwt_secret", Default: "super-secret-key-change-in-production", Comment: "HMAC secret for user tokens"},
		{Key: "auth.token_ttl", Default: "24h", Comment: "Lifetime of issued tokens"},

		{Key: "planapi.base_url", Default: "http://localhost:9000/api", Comment: "Base URL of the plan API collaborator"},
		{Key: "planapi.token", Default: "", Comment: "Bearer token for the plan API"},
		{Key: "planapi.timeout", Default: "30s", Comment: "HTTP timeout per plan API call"},
		{Key: "planapi.max_retries", Default: 5, Comment: "Retries on 429/5xx responses"},

		{Key: "wizard.save_debounce", Default: "2s", Comment: "Delay after the last keystroke before an answer is saved"},
		{Key: "preview.poll_interval", Default: "3s", Comment: "Preview recompute cadence; 0 disables the ticker"},
		{Key: "preview.min_answer_length", Default: 10, Comment: "Minimum trimmed answer length to appear in the preview"},
		{Key: "preview.allow_raw_html", Default: false, Comment: "Pass raw HTML in answers through (sanitized) instead of escaping it"},
		{Key: "generation.poll_interval", Default: "5s", Comment: "Generation status polling cadence"},

		{Key: "cors.allowed_origins", Default: "*", Comment: "Access-Control-Allow-Origin value"},
	}
}

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
func Load(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("bizplanner")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "bizplanner"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return eris.Wrap(err, "read config")
		}
	}

	// BIZPLANNER_PREVIEW_POLL_INTERVAL etc.
	v.SetEnvPrefix("bizplanner")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if addr := v.GetString("redis.addr"); strings.HasPrefix(addr, "redis://") {
		v.Set("redis.addr", strings.TrimPrefix(addr, "redis://"))
	}
	return nil
}

// Config is the typed view over the resolved Viper state
type Config struct {
	HTTPAddr  string
	Locale    string
	LogLevel  string
	LogFormat string

	StorageBackend string
	TemplatesFile  string
	CacheBackend   string
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	SessionTTL     time.Duration

	Auth    AuthConfig
	PlanAPI PlanAPIConfig
	Preview PreviewConfig

	SaveDebounce           time.Duration
	GenerationPollInterval time.Duration
	CORSAllowedOrigins     string
}

type AuthConfig struct {
	Username  string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

// PlanAPIConfig points at the external plan API (templates, responses, generation)
type PlanAPIConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
}

type PreviewConfig struct {
	PollInterval    time.Duration
	MinAnswerLength int
	AllowRawHTML    bool
}

// FromViper builds a Config from a loaded Viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		HTTPAddr:       v.GetString("http_addr"),
		Locale:         v.GetString("locale"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
		StorageBackend: v.GetString("storage.backend"),
		TemplatesFile:  v.GetString("templates.file"),
		CacheBackend:   v.GetString("cache.backend"),
		MongoURI:       v.GetString("mongo.uri"),
		MongoDatabase:  v.GetString("mongo.database"),
		RedisAddr:      v.GetString("redis.addr"),
		SessionTTL:     v.GetDuration("redis.session_ttl"),
		Auth: AuthConfig{
			Username:  v.GetString("auth.username"),
			Password:  v.GetString("auth.password"),
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		PlanAPI: PlanAPIConfig{
			BaseURL:    strings.TrimRight(v.GetString("planapi.base_url"), "/"),
			Token:      v.GetString("planapi.token"),
			Timeout:    v.GetDuration("planapi.timeout"),
			MaxRetries: v.GetInt("planapi.max_retries"),
		},
		Preview: PreviewConfig{
			PollInterval:    v.GetDuration("preview.poll_interval"),
			MinAnswerLength: v.GetInt("preview.min_answer_length"),
			AllowRawHTML:    v.GetBool("preview.allow_raw_html"),
		},
		SaveDebounce:           v.GetDuration("wizard.save_debounce"),
		GenerationPollInterval: v.GetDuration("generation.poll_interval"),
		CORSAllowedOrigins:     v.GetString("cors.allowed_origins"),
	}
}

// Check validates the configuration and reports every problem at once.
func Check(c *Config) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.HTTPAddr) == "" {
		add("http_addr is required")
	}
	switch c.Locale {
	case "en", "fr":
	default:
		add("locale must be en or fr, got %q", c.Locale)
	}
	switch c.StorageBackend {
	case "mongo":
		if c.MongoURI == "" {
			add("mongo.uri is required when storage.backend is mongo")
		}
	case "remote", "memory":
	default:
		add("storage.backend must be mongo, remote or memory, got %q", c.StorageBackend)
	}
	switch c.CacheBackend {
	case "redis":
		if c.RedisAddr == "" {
			add("redis.addr is required when cache.backend is redis")
		}
	case "memory":
	default:
		add("cache.backend must be redis or memory, got %q", c.CacheBackend)
	}
	if c.Auth.JWTSecret == "" {
		add("auth.jwt_secret is required")
	}
	if u, err := url.Parse(c.PlanAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("planapi.base_url is not a valid url")
	}
	if c.PlanAPI.MaxRetries < 1 {
		add("planapi.max_retries must be greater than 0")
	}
	if c.SaveDebounce <= 0 {
		add("wizard.save_debounce must be greater than 0")
	}
	if c.Preview.PollInterval < 0 {
		add("preview.poll_interval must not be negative")
	}
	if c.Preview.MinAnswerLength < 0 {
		add("preview.min_answer_length must not be negative")
	}
	if c.GenerationPollInterval <= 0 {
		add("generation.poll_interval must be greater than 0")
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
