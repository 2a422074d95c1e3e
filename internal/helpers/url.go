package helpers

import (
	"errors"
	"net/url"
	"strings"
)

// titlePrefixLen bounds the title component of a dedup key. The same story is
// frequently indexed under slightly different URLs across providers, so the
// key is deliberately coarser than exact-URL equality.
const titlePrefixLen = 50

var trackingQueryParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"utm_id":       {},
	"gclid":        {},
	"dclid":        {},
	"fbclid":       {},
	"msclkid":      {},
	"igshid":       {},
}

// NormalizedDomain extracts the host of a URL lowered and stripped of a
// leading "www." prefix and any port. Schemeless inputs default to https.
func NormalizedDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	parsed, err := parseLenient(raw)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", errors.New("url missing host")
	}
	host = strings.TrimPrefix(host, "www.")
	return host, nil
}

// DedupKey builds the aggregation key for a discovered result: normalized
// domain plus the first 50 characters of the lowercased title. Results that
// collide on this key are treated as the same story.
func DedupKey(rawURL, title string) (string, error) {
	domain, err := NormalizedDomain(rawURL)
	if err != nil {
		return "", err
	}
	return domain + "|" + TitlePrefix(title), nil
}

// TitlePrefix returns the lowercased, whitespace-trimmed title truncated to
// the dedup prefix length. Truncation is rune-safe.
func TitlePrefix(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	runes := []rune(title)
	if len(runes) > titlePrefixLen {
		runes = runes[:titlePrefixLen]
	}
	return string(runes)
}

// CanonicalURL normalises a URL string for comparison: lowercases
// scheme/host, strips fragments and tracking query parameters (utm_*,
// fbclid, etc.) and defaults the scheme to https when omitted.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	parsed, err := parseLenient(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	if parsed.Host == "" {
		return "", errors.New("url missing host")
	}
	parsed.Fragment = ""

	query := parsed.Query()
	for key := range query {
		if _, drop := trackingQueryParams[strings.ToLower(key)]; drop {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// parseLenient parses raw into a url.URL, accepting schemeless forms like
// example.com/path or //example.com/path.
func parseLenient(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" && parsed.Host == "" {
		if strings.HasPrefix(raw, "//") {
			return url.Parse("https:" + raw)
		}
		return url.Parse("https://" + raw)
	}
	return parsed, nil
}
