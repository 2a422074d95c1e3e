// Package wikipedia wraps the MediaWiki search API and the REST summary
// endpoint. The whole provider is editorially curated, so its results are
// classified high reliability automatically.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/quorralabs/deepresearch/internal/extract"
	"github.com/quorralabs/deepresearch/internal/sources"
)

var htmlTags = regexp.MustCompile(`<[^>]+>`)

type Client struct {
	searchURL  string
	summaryURL string
	httpClient *http.Client
}

func New(httpClient *http.Client) *Client {
	return &Client{
		searchURL:  "https://en.wikipedia.org/w/api.php",
		summaryURL: "https://en.wikipedia.org/api/rest_v1/page/summary",
		httpClient: httpClient,
	}
}

func (c *Client) Name() string             { return "wikipedia" }
func (c *Client) SourceType() sources.Type { return sources.TypeEncyclopedia }
func (c *Client) Curated() bool            { return true }

// SetBaseURLs overrides the API endpoints, used by tests.
func (c *Client) SetBaseURLs(search, summary string) {
	c.searchURL = search
	c.summaryURL = summary
}

func (c *Client) Search(ctx context.Context, query string, max int) ([]sources.Result, error) {
	endpoint := fmt.Sprintf("%s?action=query&list=search&format=json&srlimit=%d&srsearch=%s",
		c.searchURL, max, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia: status %d", resp.StatusCode)
	}

	var raw struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []sources.Result
	for i, r := range raw.Query.Search {
		if i >= max {
			break
		}
		out = append(out, sources.Result{
			Title:   r.Title,
			URL:     "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(r.Title, " ", "_")),
			Snippet: htmlTags.ReplaceAllString(r.Snippet, ""),
		})
	}
	return out, nil
}

// MatchURL reports whether the URL points at a Wikipedia article, making it
// eligible for the structured summary fast path.
func (c *Client) MatchURL(u *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(u.Hostname()), "wikipedia.org") &&
		strings.HasPrefix(u.Path, "/wiki/")
}

// FetchContent resolves an article through the REST summary endpoint instead
// of scraping the rendered page.
func (c *Client) FetchContent(ctx context.Context, rawURL string) (*extract.Content, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	title := strings.TrimPrefix(parsed.Path, "/wiki/")
	if title == "" {
		return nil, fmt.Errorf("wikipedia: no article title in %s", rawURL)
	}

	endpoint := c.summaryURL + "/" + title
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia: summary status %d", resp.StatusCode)
	}

	var raw struct {
		Title   string `json:"title"`
		Extract string `json:"extract"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return extract.NewContent(rawURL, raw.Title, raw.Extract), nil
}
