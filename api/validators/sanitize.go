package validators

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// SanitizeString strips markup and trims input, truncating to maxLen runes
// when maxLen > 0.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(html.UnescapeString(strict.Sanitize(input)))
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			return string(runes[:maxLen])
		}
	}
	return cleaned
}

// SanitizeOptional applies SanitizeString to a non-nil pointer.
func SanitizeOptional(input *string, maxLen int) *string {
	if input == nil {
		return nil
	}
	cleaned := SanitizeString(*input, maxLen)
	return &cleaned
}
