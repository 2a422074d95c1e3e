package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testExtractor(fp ...FastPath) *Extractor {
	return New(Config{
		Timeout:        5 * time.Second,
		MaxRedirects:   3,
		MinRegionChars: 40,
		MaxChars:       200,
	}, fp...)
}

func TestExtractPrefersArticleRegion(t *testing.T) {
	page := `<html><head><title>Page Title</title></head><body>
		<nav>home about contact</nav>
		<article>` + strings.Repeat("signal text ", 10) + `</article>
		<footer>copyright</footer>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := testExtractor().Extract(context.Background(), srv.URL)
	if c.Err != "" {
		t.Fatalf("unexpected error: %s", c.Err)
	}
	if !strings.Contains(c.Body, "signal text") {
		t.Fatalf("body missing article text: %q", c.Body)
	}
	if strings.Contains(c.Body, "copyright") || strings.Contains(c.Body, "about contact") {
		t.Fatalf("body contains chrome: %q", c.Body)
	}
	if c.Title != "Page Title" {
		t.Fatalf("title = %q", c.Title)
	}
	if c.WordCount == 0 {
		t.Fatal("expected nonzero word count")
	}
}

func TestExtractTruncatesLongBodies(t *testing.T) {
	page := "<html><body><article>" + strings.Repeat("word ", 500) + "</article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := testExtractor().Extract(context.Background(), srv.URL)
	if !strings.HasSuffix(c.Body, TruncationMarker) {
		t.Fatalf("expected truncation marker, got tail %q", c.Body[len(c.Body)-30:])
	}
	if len(c.Body) > 200+len(TruncationMarker) {
		t.Fatalf("body too long: %d", len(c.Body))
	}
}

func TestExtractRecordsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testExtractor().Extract(context.Background(), srv.URL)
	if c.Err == "" {
		t.Fatal("expected recorded error for 403")
	}
	if c.Body != "" {
		t.Fatalf("expected empty body, got %q", c.Body)
	}
}

func TestExtractStopsRedirectLoops(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL, http.StatusFound)
	}))
	defer srv.Close()

	c := testExtractor().Extract(context.Background(), srv.URL)
	if c.Err == "" || !strings.Contains(c.Err, "redirect") {
		t.Fatalf("expected redirect error, got %q", c.Err)
	}
}

type stubFastPath struct {
	host    string
	content *Content
	err     error
	calls   int
}

func (s *stubFastPath) MatchURL(u *url.URL) bool { return u.Hostname() == s.host }

func (s *stubFastPath) FetchContent(ctx context.Context, rawURL string) (*Content, error) {
	s.calls++
	return s.content, s.err
}

func TestExtractUsesFastPath(t *testing.T) {
	fp := &stubFastPath{
		host:    "known.example.com",
		content: NewContent("https://known.example.com/x", "Native", "native body text"),
	}
	c := testExtractor(fp).Extract(context.Background(), "https://known.example.com/x")
	if fp.calls != 1 {
		t.Fatalf("fast path calls = %d", fp.calls)
	}
	if c.Body != "native body text" {
		t.Fatalf("body = %q", c.Body)
	}
}

func TestExtractFastPathFailureFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><article>" + strings.Repeat("fallback text ", 5) + "</article></body></html>"))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	fp := &stubFastPath{host: u.Hostname(), err: context.DeadlineExceeded}
	c := testExtractor(fp).Extract(context.Background(), srv.URL)
	if fp.calls != 1 {
		t.Fatalf("fast path calls = %d", fp.calls)
	}
	if !strings.Contains(c.Body, "fallback text") {
		t.Fatalf("expected scraped fallback, got %q (err %q)", c.Body, c.Err)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := normalize("  a   b\t c \n\n\n\n d  ")
	want := "a b c\n\nd"
	if got != want {
		t.Fatalf("normalize = %q, want %q", got, want)
	}
}
