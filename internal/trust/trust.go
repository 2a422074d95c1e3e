// Package trust classifies source reliability. Classification is a pure
// lookup over configured tables so runs are reproducible and the tables can
// be tuned without touching code.
package trust

import (
	"strings"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/helpers"
	"github.com/quorralabs/deepresearch/internal/sources"
)

// Tier is a reliability band for a source.
type Tier string

const (
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierBaseline Tier = "baseline"
)

// Classifier assigns tiers and composite ranking scores.
type Classifier struct {
	highDomains   map[string]bool
	mediumDomains map[string]bool
	highSuffixes  []string
	tierWeights   map[string]float64
	typeWeights   map[string]float64
}

// NewClassifier builds a Classifier from the configured tables.
func NewClassifier(cfg config.TrustConfig) *Classifier {
	c := &Classifier{
		highDomains:   make(map[string]bool, len(cfg.HighDomains)),
		mediumDomains: make(map[string]bool, len(cfg.MediumDomains)),
		highSuffixes:  cfg.HighSuffixes,
		tierWeights:   cfg.TierWeights,
		typeWeights:   cfg.TypeWeights,
	}
	for _, d := range cfg.HighDomains {
		c.highDomains[strings.ToLower(d)] = true
	}
	for _, d := range cfg.MediumDomains {
		c.mediumDomains[strings.ToLower(d)] = true
	}
	return c
}

// Classify assigns a tier to a result URL. Results from curated providers are
// always high; otherwise the normalized domain is checked against the high
// and medium tables and the high suffixes, falling back to baseline.
// Unparseable URLs get baseline rather than an error.
func (c *Classifier) Classify(rawURL string, curated bool) Tier {
	if curated {
		return TierHigh
	}
	domain, err := helpers.NormalizedDomain(rawURL)
	if err != nil || domain == "" {
		return TierBaseline
	}
	if c.matches(c.highDomains, domain) {
		return TierHigh
	}
	for _, suffix := range c.highSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return TierHigh
		}
	}
	if c.matches(c.mediumDomains, domain) {
		return TierMedium
	}
	return TierBaseline
}

// matches checks the domain and each parent domain against a table, so an
// entry for example.com also covers docs.example.com.
func (c *Classifier) matches(table map[string]bool, domain string) bool {
	for domain != "" {
		if table[domain] {
			return true
		}
		i := strings.Index(domain, ".")
		if i < 0 {
			return false
		}
		domain = domain[i+1:]
	}
	return false
}

// Score computes the composite ranking score for a tier and source type.
// Unknown keys contribute zero, which keeps misconfigured tables visible in
// the ranking rather than crashing a run.
func (c *Classifier) Score(tier Tier, typ sources.Type) float64 {
	return c.tierWeights[string(tier)] + c.typeWeights[string(typ)]
}
