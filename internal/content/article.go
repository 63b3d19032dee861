package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"

	"github.com/radio-t/webradio/podcast"
)

// ErrEmptyArticle is returned when no text could be extracted from the page
var ErrEmptyArticle = errors.New("no article text found")

// Extractor pulls the title and main text out of an html page
type Extractor interface {
	Extract(body []byte, pageURL *url.URL) (title, text string, err error)
}

// HTTPArticleFetcher implements article fetching using HTTP
type HTTPArticleFetcher struct {
	client     *http.Client
	extractors []Extractor
	tp         *TextProcessor
}

// NewHTTPArticleFetcher creates a fetcher trying trafilatura first and plain
// paragraph extraction as the fallback
func NewHTTPArticleFetcher(client *http.Client) *HTTPArticleFetcher {
	return NewHTTPArticleFetcherWithExtractors(client, &TrafilaturaExtractor{}, &GoqueryExtractor{})
}

// NewHTTPArticleFetcherWithExtractors creates a fetcher with the given extractors, tried in order
func NewHTTPArticleFetcherWithExtractors(client *http.Client, extractors ...Extractor) *HTTPArticleFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if len(extractors) == 0 {
		extractors = []Extractor{&GoqueryExtractor{}}
	}
	return &HTTPArticleFetcher{client: client, extractors: extractors, tp: NewTextProcessor()}
}

// Fetch downloads the page and extracts its title and text, the text is cut to MaxSourceChars
func (f *HTTPArticleFetcher) Fetch(ctx context.Context, pageURL string) (podcast.Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return podcast.Article{}, fmt.Errorf("invalid url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return podcast.Article{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; webradio/1.0)")

	// #nosec G107 -- URL is provided by the caller and validated above
	resp, err := f.client.Do(req)
	if err != nil {
		return podcast.Article{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return podcast.Article{}, fmt.Errorf("failed to fetch article: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBodyBytes))
	if err != nil {
		return podcast.Article{}, fmt.Errorf("failed to read article: %w", err)
	}

	title, text := f.extract(body, u)
	if text == "" {
		return podcast.Article{}, ErrEmptyArticle
	}

	return podcast.Article{
		URL:     pageURL,
		Title:   strings.TrimSpace(title),
		Content: f.tp.TruncateString(text, MaxSourceChars),
	}, nil
}

// extract runs extractors in order, the first one with a meaningful amount of
// text wins, otherwise the longest result is used
func (f *HTTPArticleFetcher) extract(body []byte, u *url.URL) (title, text string) {
	for _, ex := range f.extractors {
		t, txt, err := ex.Extract(body, u)
		if err != nil {
			continue
		}
		txt = strings.TrimSpace(txt)
		if title == "" {
			title = t
		}
		if len(txt) >= minArticleTextLength {
			if t != "" {
				title = t
			}
			return title, txt
		}
		if len(txt) > len(text) {
			text = txt
		}
	}
	return title, text
}

// TrafilaturaExtractor extracts the main content with go-trafilatura
type TrafilaturaExtractor struct{}

// Extract implements Extractor
func (e *TrafilaturaExtractor) Extract(body []byte, pageURL *url.URL) (title, text string, err error) {
	res, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{OriginalURL: pageURL})
	if err != nil {
		return "", "", fmt.Errorf("failed to extract with trafilatura: %w", err)
	}
	if res == nil {
		return "", "", errors.New("trafilatura returned no result")
	}
	return res.Metadata.Title, res.ContentText, nil
}

// GoqueryExtractor collects paragraphs from common article containers
type GoqueryExtractor struct{}

// Extract implements Extractor
func (e *GoqueryExtractor) Extract(body []byte, _ *url.URL) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), extractParagraphs(doc), nil
}

// extractParagraphs extracts the main text content from the HTML document
func extractParagraphs(doc *goquery.Document) string {
	var articleText strings.Builder

	// first try to find article content in common containers
	article := doc.Find("article, .article, .post, .content, main")
	if article.Length() > 0 {
		article.First().Find("p").Each(func(_ int, s *goquery.Selection) {
			articleText.WriteString(strings.TrimSpace(s.Text()))
			articleText.WriteString("\n\n")
		})
	} else {
		// fallback to all paragraphs, skipping very short ones
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			if txt := strings.TrimSpace(s.Text()); len(txt) > 50 {
				articleText.WriteString(txt)
				articleText.WriteString("\n\n")
			}
		})
	}

	return strings.TrimSpace(articleText.String())
}
