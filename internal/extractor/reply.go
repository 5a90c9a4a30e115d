package extractor

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

const fence = "```"

// UnwrapReply strips surrounding whitespace and markdown code fences from a
// model reply. A leading fence may carry a language tag (```json).
func UnwrapReply(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, fence) {
		text = strings.TrimPrefix(text, fence)
		text = strings.TrimLeftFunc(text, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
	}
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}

// ParseProfile unwraps a model reply and decodes it as a JSON object.
func ParseProfile(reply string) (enricher.Profile, error) {
	body := UnwrapReply(reply)

	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, &enricher.ParseError{Text: body, Cause: err}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &enricher.ParseError{Text: body}
	}
	return enricher.Profile(obj), nil
}
