package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

// RobotsChecker fetches and caches robots.txt policies per domain
type RobotsChecker struct {
	cache     *cache.Cache
	userAgent string
	client    *http.Client
}

// NewRobotsChecker creates a checker; policies are cached for 24 hours
func NewRobotsChecker(userAgent string) *RobotsChecker {
	return &RobotsChecker{
		cache:     cache.New(24*time.Hour, 1*time.Hour),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CanFetch reports whether the URL may be fetched and the crawl delay to
// respect. Missing or unparsable robots.txt allows by default.
func (rc *RobotsChecker) CanFetch(ctx context.Context, urlStr string) (bool, time.Duration, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false, 0, fmt.Errorf("invalid URL: %w", err)
	}

	domain := parsedURL.Scheme + "://" + parsedURL.Host

	if cached, found := rc.cache.Get(domain); found {
		group := cached.(*robotstxt.RobotsData).FindGroup(rc.userAgent)
		return group.Test(parsedURL.Path), crawlDelay(group), nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", domain+"/robots.txt", nil)
	if err != nil {
		return false, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return true, 1 * time.Second, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return true, 1 * time.Second, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return true, 1 * time.Second, nil
	}

	robotsData, err := robotstxt.FromBytes(body)
	if err != nil {
		return true, 1 * time.Second, nil
	}

	rc.cache.Set(domain, robotsData, cache.DefaultExpiration)

	group := robotsData.FindGroup(rc.userAgent)
	return group.Test(parsedURL.Path), crawlDelay(group), nil
}

// crawlDelay reads the group's crawl delay, defaulting to 1s and capping at 10s
func crawlDelay(group *robotstxt.Group) time.Duration {
	if group.CrawlDelay > 0 {
		delay := time.Duration(group.CrawlDelay) * time.Second
		if delay > 10*time.Second {
			delay = 10 * time.Second
		}
		return delay
	}
	return 1 * time.Second
}
