package extractor

import (
	"fmt"
)

// DefaultMaxContentChars is how much page content is embedded in the prompt.
const DefaultMaxContentChars = 5000

const promptTemplate = `Analyze this company website content from %s and extract information in JSON format:

{
  "department": "Primary industry (healthcare, banking, education, technology, etc.)",
  "products": ["list of products"],
  "services": ["list of services"],
  "customer_segments": ["B2B", "B2C", or both],
  "summary": "Brief summary of company vision/mission",
  "key_technologies": ["technologies they use or mention"],
  "target_market": "Who they serve",
  "unique_value_proposition": "What makes them different",
  "pain_points": ["problems they claim to solve"]
}

Website content (first %d chars):
%s`

// BuildPrompt embeds sourceURL and the first maxChars characters of content
// in the extraction prompt.
func BuildPrompt(content, sourceURL string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	return fmt.Sprintf(promptTemplate, sourceURL, maxChars, Truncate(content, maxChars))
}

// Truncate returns at most n characters (runes) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
