package score

import (
	"strings"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/util"
)

// AuthorityTier ranks a source domain
type AuthorityTier int

const (
	TierDefault   AuthorityTier = 1
	TierSecondary AuthorityTier = 2
	TierPrimary   AuthorityTier = 3
)

// AuthorityClassifier classifies source domains into authority tiers
type AuthorityClassifier struct {
	primaryMap   map[string]bool
	secondaryMap map[string]bool
}

// NewAuthorityClassifier creates a classifier; a nil config uses the built-in domain lists
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	classifier := &AuthorityClassifier{
		primaryMap:   make(map[string]bool),
		secondaryMap: make(map[string]bool),
	}
	for _, domain := range config.PrimaryDomains {
		classifier.primaryMap[util.NormalizeDomain(domain)] = true
	}
	for _, domain := range config.SecondaryDomains {
		classifier.secondaryMap[util.NormalizeDomain(domain)] = true
	}
	return classifier
}

// Classify returns the tier of a bare domain such as "www.census.gov"
func (a *AuthorityClassifier) Classify(domain string) AuthorityTier {
	host := util.NormalizeDomain(domain)
	if host == "" {
		return TierDefault
	}

	if matchDomain(a.primaryMap, host) {
		return TierPrimary
	}
	if matchDomain(a.secondaryMap, host) {
		return TierSecondary
	}

	// government hosts not listed explicitly (e.g. austintexas.gov)
	if strings.HasSuffix(host, ".gov") {
		return TierPrimary
	}
	return TierDefault
}

// Weight is the numeric authority of a domain, 1 to 3
func (a *AuthorityClassifier) Weight(domain string) int {
	return int(a.Classify(domain))
}

// matchDomain reports whether host equals, or is a subdomain of, a listed domain
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
