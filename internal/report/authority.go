package report

import (
	"net/url"
	"strings"

	"github.com/ppiankov/verdict/internal/model"
)

// Tier ranks how authoritative an evidence source is
type Tier int

const (
	TierTertiary Tier = iota
	TierSecondary
	TierPrimary
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	default:
		return "tertiary"
	}
}

// MarshalText encodes the tier by name
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// AuthorityClassifier classifies evidence URLs into authority tiers
type AuthorityClassifier struct {
	primary   map[string]bool
	secondary map[string]bool
}

// NewAuthorityClassifier creates a classifier from the configured domain lists
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	a := &AuthorityClassifier{
		primary:   make(map[string]bool, len(config.PrimaryDomains)),
		secondary: make(map[string]bool, len(config.SecondaryDomains)),
	}
	for _, d := range config.PrimaryDomains {
		a.primary[strings.ToLower(d)] = true
	}
	for _, d := range config.SecondaryDomains {
		a.secondary[strings.ToLower(d)] = true
	}
	return a
}

// Classify returns the tier of rawURL
func (a *AuthorityClassifier) Classify(rawURL string) Tier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return TierTertiary
	}
	host := strings.ToLower(parsed.Hostname())

	if matchDomain(a.primary, host) {
		return TierPrimary
	}
	if matchDomain(a.secondary, host) {
		return TierSecondary
	}

	// Government and academic hosts count as primary even when unlisted
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return TierPrimary
	}

	return TierTertiary
}

// matchDomain reports whether host equals a listed domain or is a subdomain of one
func matchDomain(domains map[string]bool, host string) bool {
	if domains[host] {
		return true
	}
	for d := range domains {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
