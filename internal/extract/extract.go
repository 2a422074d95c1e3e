// Package extract turns a URL into a bounded plain-text body. Failures never
// propagate past this boundary; callers receive a Content record with an
// explicit error reason and an empty body instead.
package extract

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// TruncationMarker is appended when a body is cut at the maximum length.
const TruncationMarker = " [truncated]"

var whitespace = regexp.MustCompile(`[ \t]+`)
var blankLines = regexp.MustCompile(`\n{3,}`)

// Content is the extraction result for one URL.
type Content struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Body      string `json:"body,omitempty"`
	WordCount int    `json:"word_count"`
	// Err carries the failure reason when extraction could not produce a
	// body. An empty Err with an empty Body means the page had no usable
	// text.
	Err string `json:"error,omitempty"`
}

// NewContent builds a successful record, normalizing and counting the body.
func NewContent(rawURL, title, body string) *Content {
	body = normalize(body)
	return &Content{
		URL:       rawURL,
		Title:     strings.TrimSpace(title),
		Body:      body,
		WordCount: len(strings.Fields(body)),
	}
}

// FastPath bypasses generic HTML scraping for providers with a structured
// native representation (encyclopedia summaries, preprint abstracts).
type FastPath interface {
	MatchURL(u *url.URL) bool
	FetchContent(ctx context.Context, rawURL string) (*Content, error)
}

// Config bounds the extractor.
type Config struct {
	Timeout        time.Duration
	MaxRedirects   int
	MinRegionChars int
	MaxChars       int
	UserAgent      string
}

// Extractor fetches pages and reduces them to plain text.
type Extractor struct {
	cfg       Config
	client    *http.Client
	fastPaths []FastPath
	logger    *log.Logger

	// contentSelectors is probed in order; the first region whose text
	// clears MinRegionChars wins.
	contentSelectors []string
	// stripSelectors removes non-content markup before any probing.
	stripSelectors string
}

// New builds an Extractor with the given bounds and fast paths.
func New(cfg Config, fastPaths ...FastPath) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	if cfg.MinRegionChars <= 0 {
		cfg.MinRegionChars = 250
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 8000
	}
	e := &Extractor{
		cfg:       cfg,
		fastPaths: fastPaths,
		logger:    log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags),
		contentSelectors: []string{
			"article",
			"main",
			"[role=main]",
			"#content",
			".content",
			".post-content",
			".article-body",
			".entry-content",
		},
		stripSelectors: "script, style, noscript, iframe, svg, nav, header, footer, aside, form, " +
			".nav, .navbar, .menu, .sidebar, .footer, .header, " +
			".ad, .ads, .advertisement, .promo, .cookie, .newsletter, " +
			".comments, .comment, #comments, .social, .share",
	}
	e.client = &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}
	return e
}

// AddFastPath registers an additional provider-specific lookup.
func (e *Extractor) AddFastPath(fp FastPath) { e.fastPaths = append(e.fastPaths, fp) }

// Extract retrieves rawURL and reduces it to a bounded plain-text body.
// It never returns an error; failures are recorded on the Content.
func (e *Extractor) Extract(ctx context.Context, rawURL string) *Content {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &Content{URL: rawURL, Err: fmt.Sprintf("invalid url: %v", err)}
	}

	for _, fp := range e.fastPaths {
		if !fp.MatchURL(parsed) {
			continue
		}
		content, err := fp.FetchContent(ctx, rawURL)
		if err != nil {
			// A broken fast path falls through to generic scraping
			// rather than failing the URL outright.
			e.logger.Printf("fast path failed for %s: %v", rawURL, err)
			break
		}
		return e.bound(content)
	}

	return e.scrape(ctx, rawURL)
}

func (e *Extractor) scrape(ctx context.Context, rawURL string) *Content {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Content{URL: rawURL, Err: fmt.Sprintf("build request: %v", err)}
	}
	if e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return &Content{URL: rawURL, Err: fmt.Sprintf("fetch: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Content{URL: rawURL, Err: fmt.Sprintf("fetch: status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return &Content{URL: rawURL, Err: fmt.Sprintf("parse html: %v", err)}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find(e.stripSelectors).Remove()

	for _, sel := range e.contentSelectors {
		region := doc.Find(sel).First()
		if region.Length() == 0 {
			continue
		}
		text := normalize(region.Text())
		if len(text) >= e.cfg.MinRegionChars {
			return e.bound(NewContent(rawURL, title, text))
		}
	}

	// No selector region qualified; let readability take a pass at the
	// stripped document before falling back to whole-document text.
	if html, err := doc.Html(); err == nil {
		if article, rerr := readability.FromReader(strings.NewReader(html), mustParse(rawURL)); rerr == nil {
			text := normalize(article.TextContent)
			if len(text) >= e.cfg.MinRegionChars {
				if article.Title != "" {
					title = article.Title
				}
				return e.bound(NewContent(rawURL, title, text))
			}
		}
	}

	return e.bound(NewContent(rawURL, title, doc.Find("body").Text()))
}

// bound applies the maximum-length cut with the truncation marker.
func (e *Extractor) bound(c *Content) *Content {
	if len(c.Body) > e.cfg.MaxChars {
		runes := []rune(c.Body)
		if len(runes) > e.cfg.MaxChars {
			runes = runes[:e.cfg.MaxChars]
		}
		c.Body = strings.TrimSpace(string(runes)) + TruncationMarker
		c.WordCount = len(strings.Fields(c.Body))
	}
	return c
}

// normalize collapses runs of spaces and blank lines while preserving
// paragraph breaks.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
