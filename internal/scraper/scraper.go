package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0"

// Article holds the extracted content of a news page.
type Article struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Scraper fetches article pages and extracts title plus paragraph text.
type Scraper struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewScraper(timeout time.Duration, logger *zap.Logger) *Scraper {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch downloads the page and extracts the title and all paragraph text.
// It never returns an error: any network or parse failure yields the
// placeholder {url, "N/A", ""} so the caller can treat empty text as a
// soft failure.
func (s *Scraper) Fetch(ctx context.Context, url string) Article {
	article, err := s.fetch(ctx, url)
	if err != nil {
		s.logger.Warn("Scrape failed, returning placeholder",
			zap.String("url", url),
			zap.Error(err))
		return Article{URL: url, Title: "N/A", Text: ""}
	}
	return article
}

func (s *Scraper) fetch(ctx context.Context, url string) (Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Article{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Article{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Article{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No title"
	}

	var paragraphs []string
	doc.Find("p").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return Article{
		URL:   url,
		Title: title,
		Text:  strings.Join(paragraphs, "\n"),
	}, nil
}
