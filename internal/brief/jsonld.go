package brief

import (
	"strings"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/util"
)

const schemaContext = "https://schema.org"

// timestamp layout of datePublished/dateModified
const isoMillis = "2006-01-02T15:04:05.000Z"

// StructuredDataFor builds the three schema.org fragments of b
func StructuredDataFor(b *model.ContentBrief) model.StructuredData {
	return model.StructuredData{
		Article:        ArticleSchema(b),
		FAQPage:        FAQSchema(b),
		BreadcrumbList: BreadcrumbSchema(b),
	}
}

// ArticleSchema returns the schema.org Article fragment
func ArticleSchema(b *model.ContentBrief) map[string]any {
	published := b.Metadata.GeneratedAt.UTC().Format(isoMillis)

	sections := make([]string, 0, len(b.Outline))
	words := 0
	for _, sec := range b.Outline {
		sections = append(sections, sec.H2)
		// estimated: three words of body per key-point word
		words += len(strings.Fields(strings.Join(sec.KeyPoints, " "))) * 3
	}

	return map[string]any{
		"@context":      schemaContext,
		"@type":         "Article",
		"headline":      b.Title,
		"description":   b.MetaDescription,
		"keywords":      strings.Join(b.TargetKeywords, ", "),
		"datePublished": published,
		"dateModified":  published,
		"author": map[string]any{
			"@type": "Organization",
			"name":  "GeoAgent Market Intelligence",
		},
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  "GeoAgent",
		},
		"about": map[string]any{
			"@type": "Place",
			"name":  b.Metadata.Location,
		},
		"mainEntityOfPage": map[string]any{"@type": "WebPage"},
		"articleSection":   sections,
		"wordCount":        words,
	}
}

// FAQSchema returns the FAQPage fragment, empty when the brief has no FAQ
func FAQSchema(b *model.ContentBrief) map[string]any {
	if len(b.FAQSection) == 0 {
		return map[string]any{}
	}
	entities := make([]map[string]any, 0, len(b.FAQSection))
	for _, faq := range b.FAQSection {
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  faq.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  faq.Answer,
			},
		})
	}
	return map[string]any{
		"@context":   schemaContext,
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

// BreadcrumbSchema returns Home > location > title
func BreadcrumbSchema(b *model.ContentBrief) map[string]any {
	return map[string]any{
		"@context": schemaContext,
		"@type":    "BreadcrumbList",
		"itemListElement": []map[string]any{
			{"@type": "ListItem", "position": 1, "name": "Home", "item": "/"},
			{"@type": "ListItem", "position": 2, "name": b.Metadata.Location, "item": "/" + util.Slug(b.Metadata.Location)},
			{"@type": "ListItem", "position": 3, "name": b.Title},
		},
	}
}
