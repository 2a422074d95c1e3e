// Package sources defines the uniform contract every external information
// provider is wrapped behind, hiding provider-specific transport and parsing.
package sources

import (
	"context"
	"net/http"
	"time"
)

// Type tags a result with the kind of source it came from.
type Type string

const (
	TypeWeb          Type = "web"
	TypeEncyclopedia Type = "encyclopedia"
	TypeAcademic     Type = "academic"
	TypeDiscussion   Type = "discussion"
	TypeCode         Type = "code"
)

// Result is a single hit returned by an adapter's search call.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Adapter is the uniform search capability over one external provider.
// Search must not panic past the adapter boundary; transport and decode
// failures surface as errors and are isolated by the caller.
type Adapter interface {
	// Name identifies the adapter in events, logs and metrics.
	Name() string
	// SourceType is the tag applied to every result this adapter returns.
	SourceType() Type
	// Curated reports whether the whole provider is pre-vetted, which
	// classifies its results as high reliability automatically.
	Curated() bool
	// Search returns up to max results for the query.
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// NewHTTPClient builds the shared http.Client used by adapter
// implementations.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
