// Package speech prepares library text for a TTS voice.
//
// Documents pasted into the library often carry citation markers, smart
// punctuation and ragged whitespace that a voice reads out literally.
// Normalizer strips or rewrites those before the text is handed to the
// playback driver. URLs and e-mail addresses pass through untouched.
package speech

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Regex patterns.
const (
	urlRegexPattern        = `https?://\S+`
	emailRegexPattern      = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	referenceRegexPattern  = `\[\d+(?:[,\-–]\s*\d+)*\]|[¹²³⁴⁵⁶⁷⁸⁹⁰]+`
	citationRegexPattern   = `\s*\([A-Z][^()]*\d{4}[a-z]?\)`
	repeatedPunctPattern   = `([!?.,;:])[!?,;:]+`
	whitespaceRegexPattern = `\s+`
	placeholderFormat      = "\x00%d\x00"
)

// Normalizer rewrites text for speech. It is safe for concurrent use.
type Normalizer struct {
	urlPattern           *regexp.Regexp
	emailPattern         *regexp.Regexp
	referencePattern     *regexp.Regexp
	citationPattern      *regexp.Regexp
	repeatedPunctPattern *regexp.Regexp
	whitespacePattern    *regexp.Regexp
	abbreviations        *strings.Replacer
	punctuation          *strings.Replacer
}

// NewNormalizer compiles the patterns once for reuse.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		urlPattern:           regexp.MustCompile(urlRegexPattern),
		emailPattern:         regexp.MustCompile(emailRegexPattern),
		referencePattern:     regexp.MustCompile(referenceRegexPattern),
		citationPattern:      regexp.MustCompile(citationRegexPattern),
		repeatedPunctPattern: regexp.MustCompile(repeatedPunctPattern),
		whitespacePattern:    regexp.MustCompile(whitespaceRegexPattern),
		abbreviations: strings.NewReplacer(
			"Mr. ", "Mister ",
			"Mrs. ", "Misses ",
			"Dr. ", "Doctor ",
			"St. ", "Saint ",
			"e.g. ", "for example ",
			"i.e. ", "that is ",
			"etc.", "et cetera",
		),
		punctuation: strings.NewReplacer(
			"—", " - ",
			"–", "-",
			"‒", "-",
			"…", "...",
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize returns text cleaned for reading aloud.
func (n *Normalizer) Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// Pasted text may carry decomposed accents that some voices spell out.
	preserved, tokens := n.preserveTokens(norm.NFC.String(text))

	cleaned := n.referencePattern.ReplaceAllString(preserved, "")
	cleaned = n.citationPattern.ReplaceAllString(cleaned, "")
	cleaned = n.abbreviations.Replace(cleaned)
	cleaned = n.punctuation.Replace(cleaned)
	cleaned = n.repeatedPunctPattern.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(n.whitespacePattern.ReplaceAllString(cleaned, " "))

	for i, token := range tokens {
		cleaned = strings.Replace(cleaned, fmt.Sprintf(placeholderFormat, i), token, 1)
	}

	return cleaned
}

// preserveTokens swaps URLs and e-mail addresses for placeholders so the
// cleanup passes cannot mangle them.
func (n *Normalizer) preserveTokens(text string) (string, []string) {
	var tokens []string

	replace := func(match string) string {
		placeholder := fmt.Sprintf(placeholderFormat, len(tokens))
		tokens = append(tokens, match)

		return placeholder
	}

	text = n.urlPattern.ReplaceAllStringFunc(text, replace)
	text = n.emailPattern.ReplaceAllStringFunc(text, replace)

	return text, tokens
}
