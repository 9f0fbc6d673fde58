// Package textnorm holds the text preprocessing shared by the triage
// components: NFC normalization, entity-marker stripping, accent folding and
// unicode-aware whole-word search.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	urlExpr    = regexp.MustCompile(`(?i)https?\S+|www\S+`)
	markerExpr = regexp.MustCompile(`[@#][\p{L}\p{N}_]+`)
	phoneExpr  = regexp.MustCompile(`\b\d{2,5}[-\s]?\d{4,5}[-\s]?\d{4}\b`)
	spaceExpr  = regexp.MustCompile(`\s+`)
	foldChain  = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// NFC returns the canonical composed form so "é" and "é" compare equal.
func NFC(text string) string {
	return norm.NFC.String(text)
}

// Lower is NFC followed by unicode lowercasing.
func Lower(text string) string {
	return strings.ToLower(NFC(text))
}

// StripURLs removes http(s) and www tokens.
func StripURLs(text string) string {
	return urlExpr.ReplaceAllString(text, " ")
}

// StripMarkers removes @mention and #hashtag tokens.
func StripMarkers(text string) string {
	return markerExpr.ReplaceAllString(text, " ")
}

// StripPhones removes phone-like digit runs.
func StripPhones(text string) string {
	return phoneExpr.ReplaceAllString(text, " ")
}

// CollapseSpaces squeezes whitespace runs and trims the ends.
func CollapseSpaces(text string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(text, " "))
}

// ForSentiment prepares text for the sentiment backends. Urgency matching
// does not use it: it works on the lowercased original.
func ForSentiment(text string) string {
	t := NFC(text)
	t = StripURLs(t)
	t = StripMarkers(t)
	t = StripPhones(t)
	return strings.ToLower(CollapseSpaces(t))
}

// ForClassification lowercases, strips entity markers and punctuation but
// keeps accented letters.
func ForClassification(text string) string {
	t := Lower(text)
	t = StripURLs(t)
	t = StripMarkers(t)
	t = StripPhones(t)
	t = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, t)
	return CollapseSpaces(t)
}

// Fold removes diacritics: "São Paulo" -> "Sao Paulo".
func Fold(text string) string {
	out, _, err := transform.String(foldChain, text)
	if err != nil {
		return text
	}
	return out
}

// Words splits text into letter/digit tokens.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// FindWord returns the byte spans where word occurs in text as a whole word.
// Both arguments are expected in the same case; boundaries are unicode-aware so
// accented endings ("bebê") still delimit correctly.
func FindWord(text, word string) [][2]int {
	if word == "" {
		return nil
	}
	var spans [][2]int
	offset := 0
	for offset <= len(text) {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(word)
		if isBoundary(text, start, end) {
			spans = append(spans, [2]int{start, end})
			offset = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return spans
}

// ContainsWord reports whether word occurs in text as a whole word.
func ContainsWord(text, word string) bool {
	return len(FindWord(text, word)) > 0
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
	}
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Context returns up to window runes on both sides of the [start,end) byte
// span, trimmed.
func Context(text string, start, end, window int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	left := start
	for i := 0; i < window && left > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:left])
		left -= size
	}
	right := end
	for i := 0; i < window && right < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[right:])
		right += size
	}
	return strings.TrimSpace(text[left:right])
}
