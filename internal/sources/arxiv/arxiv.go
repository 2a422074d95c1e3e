// Package arxiv wraps the arXiv Atom export API. As a moderated preprint
// index the provider is treated as curated.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/quorralabs/deepresearch/internal/extract"
	"github.com/quorralabs/deepresearch/internal/sources"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(httpClient *http.Client) *Client {
	return &Client{
		baseURL:    "https://export.arxiv.org/api/query",
		httpClient: httpClient,
	}
}

func (c *Client) Name() string             { return "arxiv" }
func (c *Client) SourceType() sources.Type { return sources.TypeAcademic }
func (c *Client) Curated() bool            { return true }

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

func (c *Client) Search(ctx context.Context, query string, max int) ([]sources.Result, error) {
	endpoint := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d",
		c.baseURL, url.QueryEscape(query), max)
	f, err := c.query(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var out []sources.Result
	for i, e := range f.Entries {
		if i >= max {
			break
		}
		out = append(out, sources.Result{
			Title:   collapse(e.Title),
			URL:     strings.TrimSpace(e.ID),
			Snippet: snippet(collapse(e.Summary), 300),
		})
	}
	return out, nil
}

// MatchURL reports whether the URL is an arXiv abstract or PDF link,
// eligible for the abstract fast path.
func (c *Client) MatchURL(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return (host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org")) &&
		(strings.HasPrefix(u.Path, "/abs/") || strings.HasPrefix(u.Path, "/pdf/"))
}

// FetchContent resolves a paper through the export API and returns the
// abstract instead of scraping the landing page.
func (c *Client) FetchContent(ctx context.Context, rawURL string) (*extract.Content, error) {
	id, err := paperID(rawURL)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s?id_list=%s&max_results=1", c.baseURL, url.QueryEscape(id))
	f, err := c.query(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("arxiv: no entry for id %s", id)
	}
	e := f.Entries[0]
	return extract.NewContent(rawURL, collapse(e.Title), collapse(e.Summary)), nil
}

func (c *Client) query(ctx context.Context, endpoint string) (*feed, error) {
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
		return nil, fmt.Errorf("arxiv: status %d", resp.StatusCode)
	}
	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// paperID pulls the arXiv identifier out of an abs/ or pdf/ URL.
func paperID(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	p := parsed.Path
	for _, prefix := range []string{"/abs/", "/pdf/"} {
		if strings.HasPrefix(p, prefix) {
			id := strings.TrimPrefix(p, prefix)
			id = strings.TrimSuffix(id, ".pdf")
			if id != "" {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("arxiv: cannot derive paper id from %s", rawURL)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
