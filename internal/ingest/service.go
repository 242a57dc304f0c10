package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markusmobius/go-trafilatura"
	cache "github.com/patrickmn/go-cache"

	"aletheia/internal/config"
	"aletheia/internal/models"
	"aletheia/internal/services"
)

// Service runs the ingestion pipelines: fetch source content, extract clean
// text, and hand candidate ideas to the catalog for scoring.
type Service struct {
	client       *Client
	limiter      *RateLimiter
	robots       *RobotsChecker
	contentCache *cache.Cache
	semaphore    chan struct{}
	maxBodySize  int64

	ideas  *services.IdeaService
	scorer *services.ScoringService
}

// NewService wires the ingestion pipeline from configuration
func NewService(cfg *config.Config, ideas *services.IdeaService, scorer *services.ScoringService) *Service {
	maxConcurrent := cfg.IngestMaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	maxBody := cfg.IngestMaxBodySize
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}

	svc := &Service{
		client:       NewClient(cfg.IngestUserAgent, 60*time.Second),
		limiter:      NewRateLimiter(cfg.IngestGlobalRate, cfg.IngestPerUserRate),
		robots:       NewRobotsChecker(cfg.IngestUserAgent),
		contentCache: cache.New(cfg.IngestCacheTTL, 10*time.Minute),
		semaphore:    make(chan struct{}, maxConcurrent),
		maxBodySize:  maxBody,
		ideas:        ideas,
		scorer:       scorer,
	}

	log.Printf("✅ [INGEST] Pipeline initialized: max_concurrent=%d, global_rate=%.1f req/s",
		maxConcurrent, cfg.IngestGlobalRate)
	return svc
}

// IngestURL fetches an article, extracts its main content, and adds it to the
// idea catalog.
func (s *Service) IngestURL(ctx context.Context, userID, urlStr string) (models.IdeaResponse, error) {
	started := time.Now()

	if err := validateURL(urlStr); err != nil {
		return models.IdeaResponse{}, fmt.Errorf("%v: %w", err, models.ErrInvalidArgument)
	}
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return models.IdeaResponse{}, fmt.Errorf("invalid URL: %w", models.ErrInvalidArgument)
	}

	title, content, err := s.fetchArticle(ctx, userID, parsedURL)
	if err != nil {
		return models.IdeaResponse{}, err
	}

	if minLen := s.scorer.MinContentLength(); len(content) < minLen {
		return models.IdeaResponse{}, fmt.Errorf("content too short (%d chars, need %d): %w",
			len(content), minLen, models.ErrInvalidArgument)
	}

	resp := s.ideas.Add(models.Idea{
		Title:      title,
		Content:    content,
		SourceType: models.SourceURL,
		SourceURL:  urlStr,
		SourceName: parsedURL.Host,
	})

	log.Printf("✅ [INGEST] URL ingested: %s (latency: %dms, length: %d chars)",
		urlStr, time.Since(started).Milliseconds(), len(content))
	return resp, nil
}

// IngestRSS fetches a feed and ingests up to maxEntries of its items. Items
// that fail extraction or scoring filters are skipped, not fatal.
func (s *Service) IngestRSS(ctx context.Context, userID, feedURL string, maxEntries int) ([]models.IdeaResponse, error) {
	if err := validateURL(feedURL); err != nil {
		return nil, fmt.Errorf("%v: %w", err, models.ErrInvalidArgument)
	}
	parsedURL, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", models.ErrInvalidArgument)
	}

	if err := s.admit(ctx, userID, parsedURL); err != nil {
		return nil, err
	}
	body, release, err := s.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer release()

	feedTitle, entries, err := ParseFeed(body, maxEntries)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	minLen := s.scorer.MinContentLength()
	responses := make([]models.IdeaResponse, 0, len(entries))
	for _, entry := range entries {
		if entry.Title == "" {
			continue
		}
		content := entry.Summary
		if len(content) < minLen && entry.Link != "" {
			// Summary alone is too thin; pull the full article.
			if full, err := s.IngestURL(ctx, userID, entry.Link); err == nil {
				responses = append(responses, full)
				continue
			}
		}
		if len(content) < minLen {
			continue
		}
		responses = append(responses, s.ideas.Add(models.Idea{
			Title:      entry.Title,
			Content:    content,
			SourceType: models.SourceRSS,
			SourceURL:  entry.Link,
			SourceName: feedTitle,
		}))
	}

	log.Printf("✅ [INGEST] Feed ingested: %s (%d/%d entries kept)", feedURL, len(responses), len(entries))
	return responses, nil
}

// IngestPDF extracts text from an uploaded PDF and adds it to the catalog
func (s *Service) IngestPDF(ctx context.Context, filename string, data []byte) (models.IdeaResponse, error) {
	if err := ctx.Err(); err != nil {
		return models.IdeaResponse{}, err
	}
	if int64(len(data)) > s.maxBodySize {
		return models.IdeaResponse{}, fmt.Errorf("PDF too large (%d bytes, max %d): %w",
			len(data), s.maxBodySize, models.ErrInvalidArgument)
	}

	doc, err := ExtractPDF(data)
	if err != nil {
		return models.IdeaResponse{}, fmt.Errorf("extract PDF %s: %w", filename, err)
	}

	if minLen := s.scorer.MinContentLength(); len(doc.Text) < minLen {
		return models.IdeaResponse{}, fmt.Errorf("content too short (%d chars, need %d): %w",
			len(doc.Text), minLen, models.ErrInvalidArgument)
	}

	title := strings.TrimSuffix(filename, ".pdf")
	if title == "" {
		title = "Uploaded document"
	}

	resp := s.ideas.Add(models.Idea{
		Title:      title,
		Content:    doc.Text,
		SourceType: models.SourcePDF,
		SourceName: filename,
		WordCount:  doc.WordCount,
		Metadata:   map[string]string{"pages": fmt.Sprintf("%d", doc.PageCount)},
	})

	log.Printf("✅ [INGEST] PDF ingested: %s (%d pages, %d words)", filename, doc.PageCount, doc.WordCount)
	return resp, nil
}

// fetchArticle runs the full fetch-and-extract pipeline for one article URL
func (s *Service) fetchArticle(ctx context.Context, userID string, parsedURL *url.URL) (title, content string, err error) {
	urlStr := parsedURL.String()

	if cached, found := s.contentCache.Get(urlStr); found {
		hit := cached.([2]string)
		log.Printf("✅ [INGEST] Cache hit for URL: %s", urlStr)
		return hit[0], hit[1], nil
	}

	if err := s.admit(ctx, userID, parsedURL); err != nil {
		return "", "", err
	}

	body, release, err := s.fetch(ctx, urlStr)
	if err != nil {
		return "", "", err
	}
	defer release()

	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL: parsedURL,
	})
	if err != nil {
		return "", "", fmt.Errorf("extract content from %s: %w", urlStr, err)
	}
	if result == nil || result.ContentText == "" {
		return "", "", fmt.Errorf("no content extracted from %s", urlStr)
	}

	title = strings.TrimSpace(result.Metadata.Title)
	if title == "" {
		title = parsedURL.Host + parsedURL.Path
	}
	content = result.ContentText

	s.contentCache.Set(urlStr, [2]string{title, content}, cache.DefaultExpiration)
	return title, content, nil
}

// admit checks robots.txt and applies rate limiting before a fetch
func (s *Service) admit(ctx context.Context, userID string, parsedURL *url.URL) error {
	urlStr := parsedURL.String()

	allowed, delay, err := s.robots.CanFetch(ctx, urlStr)
	if err != nil {
		log.Printf("⚠️ [INGEST] robots.txt check failed for %s: %v", urlStr, err)
		delay = 1 * time.Second
	}
	if !allowed {
		return fmt.Errorf("access blocked by robots.txt for %s: %w", urlStr, models.ErrInvalidArgument)
	}

	if err := s.limiter.Wait(ctx, userID, parsedURL.Host, delay); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// fetch performs the bounded HTTP GET under the concurrency semaphore. The
// returned release func must be called once the body bytes are consumed.
func (s *Service) fetch(ctx context.Context, urlStr string) ([]byte, func(), error) {
	select {
	case s.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("waiting for fetch slot: %w", ctx.Err())
	}
	release := func() { <-s.semaphore }

	resp, err := s.client.Get(ctx, urlStr)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		release()
		return nil, nil, fmt.Errorf("fetch %s: HTTP %d", urlStr, resp.StatusCode)
	}

	body, err := readBounded(resp, s.maxBodySize)
	if err != nil {
		release()
		return nil, nil, err
	}
	return body, release, nil
}

// readBounded reads up to maxBytes of the response body, rejecting larger
// payloads instead of truncating them silently.
func readBounded(resp *http.Response, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) >= maxBytes {
		return nil, fmt.Errorf("response body too large (max %d bytes)", maxBytes)
	}
	return data, nil
}

// validateURL rejects non-HTTP schemes and private addresses
func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %v", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("only HTTP/HTTPS URLs are supported, got %q", parsedURL.Scheme)
	}

	hostname := strings.ToLower(parsedURL.Hostname())
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return fmt.Errorf("localhost URLs are not allowed")
	}

	privateRanges := []string{
		"192.168.", "10.", "172.16.", "172.17.", "172.18.", "172.19.",
		"172.20.", "172.21.", "172.22.", "172.23.", "172.24.", "172.25.",
		"172.26.", "172.27.", "172.28.", "172.29.", "172.30.", "172.31.",
		"169.254.",
		"fd",
	}
	for _, prefix := range privateRanges {
		if strings.HasPrefix(hostname, prefix) {
			return fmt.Errorf("private addresses are not allowed")
		}
	}
	return nil
}
