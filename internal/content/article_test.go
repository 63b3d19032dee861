package content

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPArticleFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name            string
		html            string
		statusCode      int
		expectedTitle   string
		expectedContent string
		errContains     string
	}{
		{
			name: "article tag",
			html: `<html>
				<head><title>Test Article</title></head>
				<body>
					<article>
						<p>This is the first paragraph of the article.</p>
						<p>This is the second paragraph with more content.</p>
					</article>
				</body>
			</html>`,
			statusCode:      http.StatusOK,
			expectedTitle:   "Test Article",
			expectedContent: "This is the first paragraph of the article.\n\nThis is the second paragraph with more content.",
		},
		{
			name: "class content",
			html: `<html>
				<head><title>Another Article</title></head>
				<body>
					<div class="content">
						<p>Content paragraph one.</p>
						<p>Content paragraph two with enough text to be included.</p>
					</div>
				</body>
			</html>`,
			statusCode:      http.StatusOK,
			expectedTitle:   "Another Article",
			expectedContent: "Content paragraph one.\n\nContent paragraph two with enough text to be included.",
		},
		{
			name: "fallback to all paragraphs",
			html: `<html>
				<head><title>Simple Page</title></head>
				<body>
					<p>Short.</p>
					<p>This is a longer paragraph that should be included in the content extraction.</p>
					<p>Another long paragraph with sufficient content to pass the length filter.</p>
				</body>
			</html>`,
			statusCode:      http.StatusOK,
			expectedTitle:   "Simple Page",
			expectedContent: "This is a longer paragraph that should be included in the content extraction.\n\nAnother long paragraph with sufficient content to pass the length filter.",
		},
		{
			name:        "error status code",
			html:        "<html><body>Not Found</body></html>",
			statusCode:  http.StatusNotFound,
			errContains: "status code 404",
		},
		{
			name:        "no text",
			html:        "<html><head><title>Empty</title></head><body><div>menu</div></body></html>",
			statusCode:  http.StatusOK,
			errContains: "no article text found",
		},
		{
			name: "content length limit",
			html: `<html>
				<head><title>Long Article</title></head>
				<body>
					<article>
						<p>` + strings.Repeat("A", 9000) + `</p>
					</article>
				</body>
			</html>`,
			statusCode:      http.StatusOK,
			expectedTitle:   "Long Article",
			expectedContent: strings.Repeat("A", MaxSourceChars) + "...",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.NotEmpty(t, r.Header.Get("User-Agent"))
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte(tc.html))
			}))
			defer server.Close()

			fetcher := NewHTTPArticleFetcherWithExtractors(server.Client(), &GoqueryExtractor{})
			article, err := fetcher.Fetch(context.Background(), server.URL)

			if tc.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, server.URL, article.URL)
			assert.Equal(t, tc.expectedTitle, article.Title)
			assert.Equal(t, tc.expectedContent, article.Content)
		})
	}
}

func TestHTTPArticleFetcher_FetchWithTrafilatura(t *testing.T) {
	paragraph := "Researchers presented a new approach to streaming audio over unreliable networks, " +
		"combining forward error correction with adaptive bitrate selection on the client side."
	html := `<!DOCTYPE html><html><head><title>Streaming Audio Research</title></head><body>
		<nav><a href="/">Home</a><a href="/about">About</a></nav>
		<article>
			<h1>Streaming Audio Research</h1>
			<p>` + paragraph + `</p>
			<p>` + paragraph + ` The team measured latency across several continents and published the raw data.</p>
			<p>` + paragraph + ` Future work will focus on mobile devices with limited battery capacity.</p>
		</article>
		<footer>Copyright</footer>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	fetcher := NewHTTPArticleFetcher(server.Client())
	article, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Streaming Audio Research", article.Title)
	assert.Contains(t, article.Content, "forward error correction")
}

type stubExtractor struct {
	title string
	text  string
	err   error
}

func (s *stubExtractor) Extract([]byte, *url.URL) (title, text string, err error) {
	return s.title, s.text, s.err
}

func TestHTTPArticleFetcher_ExtractorOrder(t *testing.T) {
	long := strings.Repeat("word ", 40)

	tests := []struct {
		name       string
		extractors []Extractor
		wantTitle  string
		wantText   string
	}{
		{
			name:       "first long result wins",
			extractors: []Extractor{&stubExtractor{title: "t1", text: long}, &stubExtractor{title: "t2", text: long + "more"}},
			wantTitle:  "t1",
			wantText:   strings.TrimSpace(long),
		},
		{
			name:       "failing extractor is skipped",
			extractors: []Extractor{&stubExtractor{err: errors.New("boom")}, &stubExtractor{title: "t2", text: long}},
			wantTitle:  "t2",
			wantText:   strings.TrimSpace(long),
		},
		{
			name:       "short results pick the longest",
			extractors: []Extractor{&stubExtractor{title: "t1", text: "short"}, &stubExtractor{title: "t2", text: "a bit longer"}},
			wantTitle:  "t1",
			wantText:   "a bit longer",
		},
		{
			name:       "title from fallback when primary has none",
			extractors: []Extractor{&stubExtractor{text: "tiny"}, &stubExtractor{title: "t2", text: "x"}},
			wantTitle:  "t2",
			wantText:   "tiny",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewHTTPArticleFetcherWithExtractors(nil, tc.extractors...)
			title, text := f.extract(nil, nil)
			assert.Equal(t, tc.wantTitle, title)
			assert.Equal(t, tc.wantText, text)
		})
	}
}

func TestHTTPArticleFetcher_InvalidURL(t *testing.T) {
	fetcher := NewHTTPArticleFetcher(nil)
	for _, u := range []string{"", "ftp://example.com/file", "not a url", "http://"} {
		_, err := fetcher.Fetch(context.Background(), u)
		require.Error(t, err, u)
		assert.Contains(t, err.Error(), "invalid url")
	}
}

func TestHTTPArticleFetcher_FetchWithNetworkError(t *testing.T) {
	client := &http.Client{Transport: &failingTransport{}}
	fetcher := NewHTTPArticleFetcher(client)

	article, err := fetcher.Fetch(context.Background(), "http://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch URL")
	assert.Empty(t, article.Content)
	assert.Empty(t, article.Title)
}

// failingTransport is a custom transport that always returns an error
type failingTransport struct{}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, io.ErrUnexpectedEOF
}
