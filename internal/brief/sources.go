package brief

import (
	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/util"
)

const defaultCredibility = "Third-party source"

var credibilityNotes = map[string]string{
	"census.gov":       "Official U.S. Census Bureau data",
	"bls.gov":          "Bureau of Labor Statistics",
	"hud.gov":          "U.S. Department of Housing",
	"nar.realtor":      "National Association of Realtors",
	"zillow.com":       "Major real estate marketplace",
	"redfin.com":       "Major real estate brokerage",
	"realtor.com":      "Official realtor marketplace",
	"freddiemac.com":   "Federal mortgage corporation",
	"fanniemae.com":    "Federal mortgage corporation",
	"housingwire.com":  "Real estate industry news",
	"inman.com":        "Real estate industry news",
	"greatschools.org": "School ratings nonprofit",
	"niche.com":        "Neighborhood and school rankings",
	"walkscore.com":    "Walkability metrics",
}

// CredibilityNote returns the annotation for a source domain
func CredibilityNote(domain string) string {
	if note, ok := credibilityNotes[util.NormalizeDomain(domain)]; ok {
		return note
	}
	return defaultCredibility
}

// FlattenClaims returns every outline claim in outline order
func FlattenClaims(outline []model.OutlineSection) []model.DataClaim {
	claims := []model.DataClaim{}
	for _, sec := range outline {
		claims = append(claims, sec.DataClaims...)
	}
	return claims
}

// DeriveSources groups claims by source URL in first-seen order. Claims
// without a URL are skipped; an unparsable URL is used as its own domain.
func DeriveSources(claims []model.DataClaim) []model.Source {
	sources := []model.Source{}
	index := map[string]int{}
	for _, c := range claims {
		if c.SourceURL == "" {
			continue
		}
		if i, ok := index[c.SourceURL]; ok {
			sources[i].UsedForClaims = append(sources[i].UsedForClaims, c.Claim)
			continue
		}
		domain := util.DomainOr(c.SourceURL, c.SourceURL)
		title := c.SourceTitle
		if title == "" {
			title = domain
		}
		index[c.SourceURL] = len(sources)
		sources = append(sources, model.Source{
			URL:             c.SourceURL,
			Title:           title,
			Domain:          domain,
			UsedForClaims:   []string{c.Claim},
			CredibilityNote: CredibilityNote(domain),
		})
	}
	return sources
}
