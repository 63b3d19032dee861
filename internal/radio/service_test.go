package radio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-t/webradio/internal/ai/mocks"
	"github.com/radio-t/webradio/internal/audio"
	"github.com/radio-t/webradio/internal/cache"
	"github.com/radio-t/webradio/internal/content"
	"github.com/radio-t/webradio/internal/script"
	"github.com/radio-t/webradio/internal/storage"
	"github.com/radio-t/webradio/podcast"
)

type fetcherFunc func(ctx context.Context, url string) (podcast.Article, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (podcast.Article, error) {
	return f(ctx, url)
}

type clipDecoder struct{}

func (clipDecoder) Decode(data []byte) (audio.Segment, error) {
	return audio.Segment{Data: data, SampleRate: 24000, Duration: time.Second}, nil
}

type joinEncoder struct{}

func (joinEncoder) Encode(_ context.Context, track *audio.Track) ([]byte, error) {
	var out []byte
	for _, p := range track.Parts() {
		if p.Kind == audio.KindSegment {
			out = append(out, p.Segment.Data...)
		}
	}
	return out, nil
}

type testEnv struct {
	svc       *Service
	writer    *mocks.ScriptWriterMock
	fetches   atomic.Int32
	synthMu   sync.Mutex
	synthCall []string // voice:text
	cache     *cache.MemoryStore
	files     *storage.FileStore
}

func newTestEnv(t *testing.T, scriptText string, synthErr func(text string) error) *testEnv {
	t.Helper()
	env := &testEnv{cache: cache.NewMemoryStore(), files: storage.NewFileStore(t.TempDir())}

	env.writer = &mocks.ScriptWriterMock{
		GenerateScriptFunc: func(context.Context, podcast.GenerateScriptParams) (string, error) {
			return scriptText, nil
		},
	}

	synth := audio.SynthesizerFunc(func(_ context.Context, text, voice string, _ float64) ([]byte, error) {
		env.synthMu.Lock()
		env.synthCall = append(env.synthCall, voice+":"+text)
		env.synthMu.Unlock()
		if synthErr != nil {
			if err := synthErr(text); err != nil {
				return nil, err
			}
		}
		return []byte("[" + text + "]"), nil
	})

	asm := audio.NewAssembler(audio.AssemblerParams{
		Synthesizer: synth,
		Decoder:     clipDecoder{},
		Encoder:     joinEncoder{},
		Options:     audio.DefaultOptions(),
	})

	env.svc = NewService(ServiceParams{
		Fetcher: fetcherFunc(func(_ context.Context, url string) (podcast.Article, error) {
			env.fetches.Add(1)
			return podcast.Article{URL: url, Title: "Morning news", Content: "Something happened today."}, nil
		}),
		Writer:    env.writer,
		Assembler: asm,
		Cache:     env.cache,
		Audio:     env.files,
	})
	return env
}

func TestCacheKey(t *testing.T) {
	tests := []struct {
		source, style, lang string
		want                string
	}{
		{"https://example.com/a", "standard", "English", "e2b10ce9d08714ff250165e226bca062"},
		{"https://example.com/a", "jk", "Japanese", "76af54f5b4a3373d29db05e16f5fd267"},
		{"", "standard", "English", "1862d87a0b296507be06e709969da974"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CacheKey(tc.source, tc.style, tc.lang))
	}
	assert.NotEqual(t, CacheKey("a", "b", "c"), CacheKey("a", "b", "d"))
}

func TestService_Render(t *testing.T) {
	env := newTestEnv(t, "A: Good morning.\nB: Good morning to you too.", nil)
	ctx := context.Background()

	req := podcast.RenderRequest{URL: "https://example.com/a", Style: "standard", Language: "English"}
	r, err := env.svc.Render(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "e2b10ce9d08714ff250165e226bca062", r.Key)
	assert.Equal(t, "https://example.com/a", r.SourceURL)
	assert.Equal(t, "standard", r.Style)
	assert.Equal(t, "English", r.Language)
	assert.Equal(t, "Morning news", r.Title)
	assert.Equal(t, 2, r.Lines)
	assert.Equal(t, 2, r.Segments)
	assert.Equal(t, len("[Good morning.][Good morning to you too.]"), r.Bytes)
	assert.Greater(t, r.Duration, 2.0)
	assert.False(t, r.CreatedAt.IsZero())

	// standard style voices, in script order
	assert.Equal(t, []string{"echo:Good morning.", "nova:Good morning to you too."}, env.synthCall)

	data, err := env.svc.Audio(ctx, r.Key)
	require.NoError(t, err)
	assert.Equal(t, "[Good morning.][Good morning to you too.]", string(data))

	calls := env.writer.GenerateScriptCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Morning news", calls[0].Params.Title)
	assert.Equal(t, "standard", calls[0].Params.Style.Key)
	assert.Equal(t, "English", calls[0].Params.Language)

	t.Run("cache hit skips the pipeline", func(t *testing.T) {
		again, err := env.svc.Render(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, r, again)
		assert.Equal(t, int32(1), env.fetches.Load())
		assert.Len(t, env.writer.GenerateScriptCalls(), 1)
	})

	t.Run("missing audio forces re-render", func(t *testing.T) {
		require.NoError(t, env.files.Delete(r.Key))
		_, err := env.svc.Render(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int32(2), env.fetches.Load())
	})

	t.Run("get and list", func(t *testing.T) {
		got, err := env.svc.Get(ctx, r.Key)
		require.NoError(t, err)
		assert.Equal(t, r.Key, got.Key)

		list, err := env.svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = env.svc.Get(ctx, "unknown")
		require.ErrorIs(t, err, ErrNotFound)
		_, err = env.svc.Audio(ctx, "unknown")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_RenderDefaults(t *testing.T) {
	env := newTestEnv(t, "A: hi\nB: hello", nil)

	r, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: " https://example.com/b ", Style: "no-such-style"})
	require.NoError(t, err)
	assert.Equal(t, podcast.StandardStyle, r.Style)
	assert.Equal(t, DefaultLanguage, r.Language)
	assert.Equal(t, "https://example.com/b", r.SourceURL)
	assert.Equal(t, CacheKey("https://example.com/b", "standard", "English"), r.Key)
}

func TestService_RenderStyleVoices(t *testing.T) {
	env := newTestEnv(t, "A: one\nB: two\nNarrator: three", nil)

	_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/c", Style: "comedian", Language: "Japanese"})
	require.NoError(t, err)
	// unknown speaker falls back to the primary voice
	assert.Equal(t, []string{"echo:one", "onyx:two", "echo:three"}, env.synthCall)
}

func TestService_RenderPartialFailure(t *testing.T) {
	env := newTestEnv(t, "A: one\nB: two\nA: three\nB: four\nA: five", func(text string) error {
		if text == "three" {
			return errors.New("quota exceeded")
		}
		return nil
	})

	r, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/d"})
	require.NoError(t, err)
	assert.Equal(t, 5, r.Lines)
	assert.Equal(t, 4, r.Segments)
}

func TestService_RenderFailures(t *testing.T) {
	t.Run("all lines fail, nothing cached", func(t *testing.T) {
		env := newTestEnv(t, "A: one\nB: two", func(string) error { return errors.New("invalid voice") })
		_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/e"})
		require.ErrorIs(t, err, audio.ErrAssemblyEmpty)

		list, err := env.cache.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.False(t, env.files.Exists(CacheKey("https://example.com/e", "standard", "English")))
	})

	t.Run("empty script", func(t *testing.T) {
		env := newTestEnv(t, "\n  \n* \n", nil)
		_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/f"})
		require.ErrorIs(t, err, ErrNothingToRender)
		require.ErrorIs(t, err, script.ErrEmptyScript)
		assert.Empty(t, env.synthCall)
	})

	t.Run("empty article", func(t *testing.T) {
		env := newTestEnv(t, "A: hi", nil)
		env.svc.fetcher = fetcherFunc(func(context.Context, string) (podcast.Article, error) {
			return podcast.Article{}, content.ErrEmptyArticle
		})
		_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/g"})
		require.ErrorIs(t, err, ErrNothingToRender)
		assert.Empty(t, env.writer.GenerateScriptCalls())
	})

	t.Run("fetch error", func(t *testing.T) {
		env := newTestEnv(t, "A: hi", nil)
		env.svc.fetcher = fetcherFunc(func(context.Context, string) (podcast.Article, error) {
			return podcast.Article{}, errors.New("connection refused")
		})
		_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/h"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch article")
		assert.NotErrorIs(t, err, ErrNothingToRender)
	})

	t.Run("script writer error", func(t *testing.T) {
		env := newTestEnv(t, "", nil)
		env.writer.GenerateScriptFunc = func(context.Context, podcast.GenerateScriptParams) (string, error) {
			return "", errors.New("rate limited")
		}
		_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/i"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to generate script")
	})

	t.Run("missing url", func(t *testing.T) {
		env := newTestEnv(t, "A: hi", nil)
		_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "  "})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewService(ServiceParams{})
		_, err := svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not fully configured")
	})
}

func TestService_ConcurrentRendersShareWork(t *testing.T) {
	env := newTestEnv(t, "A: hi", nil)
	release := make(chan struct{})
	env.svc.fetcher = fetcherFunc(func(_ context.Context, url string) (podcast.Article, error) {
		env.fetches.Add(1)
		<-release
		return podcast.Article{URL: url, Title: "t", Content: "c"}, nil
	})

	const n = 5
	var wg sync.WaitGroup
	results := make([]podcast.Render, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/same"})
		}()
	}

	// let every goroutine reach the in-flight render before releasing it
	require.Eventually(t, func() bool { return env.fetches.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Key, results[i].Key)
	}
	assert.Equal(t, int32(1), env.fetches.Load())
}

func TestService_SharedRenderOutlivesCaller(t *testing.T) {
	env := newTestEnv(t, "A: hi\nB: hello", nil)
	release := make(chan struct{})
	env.svc.fetcher = fetcherFunc(func(ctx context.Context, url string) (podcast.Article, error) {
		env.fetches.Add(1)
		<-release
		return podcast.Article{URL: url, Title: "t", Content: "c"}, ctx.Err()
	})
	req := podcast.RenderRequest{URL: "https://example.com/leave"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := env.svc.Render(ctx, req)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return env.fetches.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		rec podcast.Render
		err error
	}
	second := make(chan result, 1)
	go func() {
		rec, err := env.svc.Render(context.Background(), req)
		second <- result{rec: rec, err: err}
	}()
	time.Sleep(50 * time.Millisecond) // second caller joins the in-flight render

	cancel()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("first caller did not return after cancel")
	}

	close(release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, 2, res.rec.Segments)
	case <-time.After(time.Second):
		t.Fatal("second caller did not get the render")
	}
	assert.Equal(t, int32(1), env.fetches.Load())

	rec, err := env.svc.Get(context.Background(), env.svc.Key(req))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Segments)
}

func TestService_RenderTimeout(t *testing.T) {
	env := newTestEnv(t, "A: hi", nil)
	env.svc.timeout = 20 * time.Millisecond
	env.svc.fetcher = fetcherFunc(func(ctx context.Context, _ string) (podcast.Article, error) {
		<-ctx.Done()
		return podcast.Article{}, ctx.Err()
	})

	_, err := env.svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/slow"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_TargetMinutesAdjustsSpeed(t *testing.T) {
	var speeds []float64
	synth := audio.SynthesizerFunc(func(_ context.Context, text, _ string, speed float64) ([]byte, error) {
		speeds = append(speeds, speed)
		return []byte(text), nil
	})
	svc := NewService(ServiceParams{
		Fetcher: fetcherFunc(func(context.Context, string) (podcast.Article, error) {
			return podcast.Article{Title: "t", Content: "c"}, nil
		}),
		Writer: &mocks.ScriptWriterMock{GenerateScriptFunc: func(context.Context, podcast.GenerateScriptParams) (string, error) {
			return "A: short line", nil
		}},
		Assembler: audio.NewAssembler(audio.AssemblerParams{
			Synthesizer: synth, Decoder: clipDecoder{}, Encoder: joinEncoder{}, Options: audio.DefaultOptions(),
		}),
		Audio:         storage.NewFileStore(t.TempDir()),
		TargetMinutes: 5,
	})

	_, err := svc.Render(context.Background(), podcast.RenderRequest{URL: "https://example.com/speed"})
	require.NoError(t, err)
	// a short script stretched to five minutes hits the lower bound
	assert.Equal(t, []float64{0.8}, speeds)
}

func TestService_Styles(t *testing.T) {
	svc := NewService(ServiceParams{Styles: []podcast.Style{{Key: "custom", PrimaryVoice: "alloy"}}})
	keys := []string{}
	for _, s := range svc.Styles() {
		keys = append(keys, s.Key)
	}
	// standard is always available
	assert.Equal(t, []string{"custom", "standard"}, keys)
	assert.Equal(t, "standard", svc.Style("missing").Key)
	assert.Equal(t, "custom", svc.Style("custom").Key)
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: ErrNothingToRender, want: true},
		{err: errors.Join(errors.New("wrapped"), ErrInvalidRequest), want: true},
		{err: audio.ErrAssemblyEmpty, want: true},
		{err: ErrNotFound, want: false},
		{err: errors.New("tts down"), want: false},
		{err: context.DeadlineExceeded, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, IsPermanent(tt.err))
		})
	}
}
