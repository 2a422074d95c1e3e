// Package hackernews wraps the Algolia Hacker News search API.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/quorralabs/deepresearch/internal/sources"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(httpClient *http.Client) *Client {
	return &Client{
		baseURL:    "https://hn.algolia.com/api/v1/search",
		httpClient: httpClient,
	}
}

func (c *Client) Name() string             { return "hackernews" }
func (c *Client) SourceType() sources.Type { return sources.TypeDiscussion }
func (c *Client) Curated() bool            { return false }

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) Search(ctx context.Context, query string, max int) ([]sources.Result, error) {
	endpoint := fmt.Sprintf("%s?query=%s&tags=story&hitsPerPage=%d",
		c.baseURL, url.QueryEscape(query), max)
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
		return nil, fmt.Errorf("hackernews: status %d", resp.StatusCode)
	}

	var raw struct {
		Hits []struct {
			Title     string `json:"title"`
			URL       string `json:"url"`
			ObjectID  string `json:"objectID"`
			StoryText string `json:"story_text"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []sources.Result
	for i, h := range raw.Hits {
		if i >= max {
			break
		}
		link := h.URL
		if link == "" {
			// Ask HN / text posts have no outbound link.
			link = "https://news.ycombinator.com/item?id=" + h.ObjectID
		}
		out = append(out, sources.Result{Title: h.Title, URL: link, Snippet: snippet(h.StoryText, 300)})
	}
	return out, nil
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
