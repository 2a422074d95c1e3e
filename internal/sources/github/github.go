// Package github wraps the GitHub repository search API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/quorralabs/deepresearch/internal/sources"
)

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func New(token string, httpClient *http.Client) *Client {
	return &Client{
		token:      token,
		baseURL:    "https://api.github.com/search/repositories",
		httpClient: httpClient,
	}
}

func (c *Client) Name() string             { return "github" }
func (c *Client) SourceType() sources.Type { return sources.TypeCode }
func (c *Client) Curated() bool            { return false }

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) Search(ctx context.Context, query string, max int) ([]sources.Result, error) {
	endpoint := fmt.Sprintf("%s?q=%s&per_page=%d", c.baseURL, url.QueryEscape(query), max)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github: status %d", resp.StatusCode)
	}

	var raw struct {
		Items []struct {
			FullName    string `json:"full_name"`
			HTMLURL     string `json:"html_url"`
			Description string `json:"description"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []sources.Result
	for i, item := range raw.Items {
		if i >= max {
			break
		}
		out = append(out, sources.Result{
			Title:   item.FullName,
			URL:     item.HTMLURL,
			Snippet: item.Description,
		})
	}
	return out, nil
}
