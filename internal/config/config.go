// Package config loads settings from the environment, an optional .env file
// and an optional yaml styles file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/radio-t/webradio/internal/audio"
	"github.com/radio-t/webradio/internal/cache"
	"github.com/radio-t/webradio/podcast"
)

// Config is the application configuration
type Config struct {
	OpenAI         OpenAIConfig
	Anthropic      AnthropicConfig
	ScriptProvider string
	ScriptModel    string
	Cache          CacheConfig
	TTS            TTSConfig
	Worker         WorkerConfig
	AudioDir       string
	StylesFile     string
	ServerAddr     string
	Language       string
	RenderTimeout  time.Duration
	Styles         []podcast.Style
}

// OpenAIConfig contains OpenAI settings
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	SpeechModel string
}

// AnthropicConfig contains Anthropic settings
type AnthropicConfig struct {
	APIKey string
}

// CacheConfig contains render cache settings, redis settings are shared with the queue
type CacheConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
}

// TTSConfig controls speech synthesis and pacing
type TTSConfig struct {
	Workers       int
	Retries       int
	RetryDelay    time.Duration
	Speed         float64
	TargetMinutes int
	GapPolicy     string
}

// WorkerConfig controls the background render worker
type WorkerConfig struct {
	Concurrency int
}

// Load reads the optional env file and builds the configuration from the environment
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	floatVar := func(key string, fallback float64) float64 {
		v, err := getEnvFloat(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}

	cfg := &Config{
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			SpeechModel: getEnv("TTS_MODEL", "tts-1"),
		},
		Anthropic: AnthropicConfig{
			APIKey: getEnv("ANTHROPIC_API_KEY", ""),
		},
		ScriptProvider: strings.ToLower(getEnv("SCRIPT_PROVIDER", "openai")),
		ScriptModel:    getEnv("SCRIPT_MODEL", ""),
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnv("CACHE_BACKEND", cache.BackendMemory)),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       intVar("REDIS_DB", 0),
			SQLitePath:    getEnv("SQLITE_PATH", "webradio.db"),
		},
		TTS: TTSConfig{
			Workers:       intVar("TTS_WORKERS", 1),
			Retries:       intVar("TTS_RETRIES", 0),
			RetryDelay:    durVar("TTS_RETRY_DELAY", time.Second),
			Speed:         floatVar("SPEECH_SPEED", 1.0),
			TargetMinutes: intVar("TARGET_MINUTES", 0),
			GapPolicy:     getEnv("GAP_POLICY", audio.GapAfterEveryLine.String()),
		},
		Worker: WorkerConfig{
			Concurrency: intVar("WORKER_CONCURRENCY", 2),
		},
		AudioDir:      getEnv("AUDIO_DIR", "audio"),
		StylesFile:    getEnv("STYLES_FILE", ""),
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		Language:      getEnv("DEFAULT_LANGUAGE", "English"),
		RenderTimeout: durVar("RENDER_TIMEOUT", 10*time.Minute),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	styles, err := LoadStyles(cfg.StylesFile)
	if err != nil {
		return nil, err
	}
	cfg.Styles = styles
	return cfg, nil
}

// Validate checks settings required to render programs
func (c *Config) Validate() error {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.ScriptProvider == "anthropic" && c.Anthropic.APIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if _, err := audio.ParseGapPolicy(c.TTS.GapPolicy); err != nil {
		return err
	}
	if c.TTS.Workers < 1 {
		return fmt.Errorf("invalid TTS_WORKERS %d, must be at least 1", c.TTS.Workers)
	}
	if c.TTS.Speed < 0.25 || c.TTS.Speed > 4.0 {
		return fmt.Errorf("invalid SPEECH_SPEED %v, must be within 0.25-4.0", c.TTS.Speed)
	}
	return nil
}

// CacheStoreConfig returns settings for the render cache
func (c *Config) CacheStoreConfig() cache.Config {
	return cache.Config{
		Backend:    c.Cache.Backend,
		RedisAddr:  c.Cache.RedisAddr,
		RedisPass:  c.Cache.RedisPassword,
		RedisDB:    c.Cache.RedisDB,
		SQLitePath: c.Cache.SQLitePath,
	}
}

// AssemblerOptions returns assembly options built from the TTS settings
func (c *Config) AssemblerOptions() (audio.Options, error) {
	policy, err := audio.ParseGapPolicy(c.TTS.GapPolicy)
	if err != nil {
		return audio.Options{}, err
	}
	opts := audio.DefaultOptions()
	opts.Policy = policy
	opts.Workers = c.TTS.Workers
	opts.Retries = c.TTS.Retries
	opts.RetryDelay = c.TTS.RetryDelay
	return opts, nil
}

type stylesFile struct {
	Styles []podcast.Style `yaml:"styles"`
}

// LoadStyles returns the built-in styles merged with styles from the yaml file,
// file entries override built-in ones with the same key
func LoadStyles(path string) ([]podcast.Style, error) {
	styles := podcast.DefaultStyles()
	if path == "" {
		return styles, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read styles file: %w", err)
	}
	var f stylesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse styles file: %w", err)
	}
	for i, s := range f.Styles {
		if s.Key == "" || s.PrimaryVoice == "" {
			return nil, fmt.Errorf("style #%d: key and primary_voice are required", i+1)
		}
	}
	return podcast.SortedStyles(podcast.CreateStyleMap(append(styles, f.Styles...))), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
