package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mgorriz/ajp-results/internal/logger"
	"github.com/mgorriz/ajp-results/internal/match"
)

const (
	DefaultBaseURL = "https://ajptour.com/en/event"
	DefaultTimeout = 10 * time.Second
)

// defaultHeaders is the fixed header set sent with every page request.
// Accept-Encoding is left to the transport: setting it manually would
// disable net/http's transparent gzip decompression and hand the parser
// compressed bytes.
var defaultHeaders = map[string]string{
	"Accept-Language":           "en-US,en;q=0.8",
	"Upgrade-Insecure-Requests": "1",
	"User-Agent":                "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/56.0.2924.87 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Cache-Control":             "max-age=0",
	"Connection":                "keep-alive",
}

// Scraper fetches and parses AJP Tour event match lists.
type Scraper struct {
	client  *http.Client
	baseURL string
}

// New creates a Scraper against baseURL with the given per-fetch timeout.
// Redirects are never followed: the source answers missing events with a
// redirect, which must surface as a non-200 status, not a new page.
func New(baseURL string, timeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scraper{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: baseURL,
	}
}

// matchListURL builds the match-list URL for an event page.
// Page 1 has no query parameter.
func (s *Scraper) matchListURL(eventID, page int) string {
	url := fmt.Sprintf("%s/%d/schedule/matchlist", s.baseURL, eventID)
	if page > 1 {
		url = fmt.Sprintf("%s?page=%d", url, page)
	}
	return url
}

// fetchPage issues one GET and parses the body. A non-200 status
// (redirects included) is reported through the status return, not as an
// error; the error return covers transport and parse failures only.
func (s *Scraper) fetchPage(ctx context.Context, url string) (*goquery.Document, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, resp.StatusCode, nil
}

// HarvestEvent fetches every page of one event and returns the accumulated
// bout records plus the event metadata from page 1.
//
// A fetch failure or non-200 status on page 1 yields an empty result and no
// error: the caller records the event as failed. A failure on a later page
// skips that page and continues; the event still completes with whatever
// the remaining pages produced. An error is returned only when the context
// is cancelled.
func (s *Scraper) HarvestEvent(ctx context.Context, eventID int) ([]match.Match, match.EventInfo, error) {
	first, status, err := s.fetchPage(ctx, s.matchListURL(eventID, 1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, match.EventInfo{}, ctx.Err()
		}
		logger.Warn("Event page fetch failed", logger.Fields{"event_id": eventID, "error": err.Error()})
		return nil, match.EventInfo{}, nil
	}
	if first == nil {
		logger.Warn("Event not found", logger.Fields{"event_id": eventID, "status": status})
		return nil, match.EventInfo{}, nil
	}

	info := extractEventInfo(first)
	pages := pageCount(first)

	var records []match.Match
	records = append(records, extractMatches(first, info, eventID)...)

	// pages is the raw item count of the pagination control; the content
	// pages are 1..pages-1, exactly as the source renders them.
	for p := 2; p < pages; p++ {
		if ctx.Err() != nil {
			return records, info, ctx.Err()
		}

		logger.Debug("Fetching page", logger.Fields{"event_id": eventID, "page": p, "pages": pages - 1})

		doc, status, err := s.fetchPage(ctx, s.matchListURL(eventID, p))
		if err != nil {
			logger.Warn("Page fetch failed, skipping", logger.Fields{
				"event_id": eventID, "page": p, "error": err.Error(),
			})
			continue
		}
		if doc == nil {
			logger.Warn("Page returned non-200, skipping", logger.Fields{
				"event_id": eventID, "page": p, "status": status,
			})
			continue
		}
		records = append(records, extractMatches(doc, info, eventID)...)
	}

	return records, info, nil
}
