package brief

import (
	"encoding/json"
	"fmt"
	"strings"
)

const briefShape = `{
  "title": "H1 title, 50-70 characters, containing the location",
  "metaDescription": "120-160 characters with one concrete data point",
  "targetKeywords": ["primary keyword", "secondary keyword", "long-tail keyword"],
  "outline": [
    {
      "h2": "Section heading",
      "h3s": ["Subsection"],
      "keyPoints": ["Point backed by a number"],
      "dataClaims": [
        {
          "claim": "Factual statement with a number",
          "value": "The number or metric",
          "sourceUrl": "A URL present in the research data",
          "sourceTitle": "Source name",
          "confidence": "high | medium"
        }
      ]
    }
  ],
  "faqSection": [
    {"question": "A question a buyer or seller would ask", "answer": "Answer citing specific numbers", "sourceUrl": "URL if known"}
  ],
  "competitorGaps": ["Something existing coverage of this topic lacks"],
  "llmCitabilityTips": ["Concrete advice for making the page quotable by AI answers"]
}`

// BuildPrompt renders the generation prompt for one brief
func BuildPrompt(p Params) (string, error) {
	research, err := json.MarshalIndent(p.Context, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode research context: %w", err)
	}

	var b strings.Builder
	b.WriteString("You plan content for Generative Engine Optimization: pages that AI answer engines such as ChatGPT, Perplexity and Google AI Overviews choose to quote.\n\n")
	fmt.Fprintf(&b, "Location: %s\n", p.Location)
	fmt.Fprintf(&b, "Topic: %s\n", p.Topic)
	fmt.Fprintf(&b, "Content type: %s\n", p.ContentType.Label())
	if len(p.TargetKeywords) > 0 {
		fmt.Fprintf(&b, "Keywords requested by the editor: %s\n", strings.Join(p.TargetKeywords, ", "))
	}
	b.WriteString("\nResearch gathered in the knowledge graph:\n")
	b.Write(research)
	b.WriteString("\n\nReturn one JSON object shaped like this:\n")
	b.WriteString(briefShape)
	b.WriteString(`

Requirements:
- every data claim cites a sourceUrl that appears in the research above
- 6 to 8 data claims spread across the outline
- 4 to 6 outline sections, including a neighborhood or area comparison when the data allows
- 3 to 5 FAQ entries whose answers quote figures, not generic advice
- 2 or 3 competitor gaps
- the title names the location

Output the JSON object only, without markdown fences.`)
	return b.String(), nil
}
