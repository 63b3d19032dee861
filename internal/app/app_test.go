package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-t/webradio/internal/cache"
	"github.com/radio-t/webradio/internal/config"
	"github.com/radio-t/webradio/podcast"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		OpenAI:         config.OpenAIConfig{APIKey: "sk-test"},
		ScriptProvider: "openai",
		Cache:          config.CacheConfig{Backend: cache.BackendMemory, RedisAddr: "localhost:6380", RedisDB: 2},
		TTS:            config.TTSConfig{Workers: 2, Speed: 1.0, GapPolicy: "after-segment"},
		AudioDir:       t.TempDir(),
		Language:       "Japanese",
		Styles:         podcast.DefaultStyles(),
	}
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Service)
	require.NotNil(t, a.Processor)
	assert.Len(t, a.Service.Styles(), len(podcast.DefaultStyles()))
	assert.Equal(t, "Japanese", a.Service.Normalize(podcast.RenderRequest{URL: "u"}).Language)

	_, err = a.Service.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *config.Config)
	}{
		{name: "unknown provider", modify: func(c *config.Config) { c.ScriptProvider = "gemini" }},
		{name: "anthropic without key", modify: func(c *config.Config) { c.ScriptProvider = "anthropic" }},
		{name: "bad gap policy", modify: func(c *config.Config) { c.TTS.GapPolicy = "sometimes" }},
		{name: "bad cache backend", modify: func(c *config.Config) { c.Cache.Backend = "mongo" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)
			_, err := New(context.Background(), cfg, zerolog.Nop())
			require.Error(t, err)
		})
	}
}

func TestQueueRedis(t *testing.T) {
	r := QueueRedis(testConfig(t))
	assert.Equal(t, "localhost:6380", r.Addr)
	assert.Equal(t, 2, r.DB)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger(true).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger(false).GetLevel())
}
