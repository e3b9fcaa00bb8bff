package services

import (
	"regexp"
	"strings"
)

var (
	dehyphenRegex       = regexp.MustCompile(`([\p{L}\p{N}_]+)-\s+([\p{L}\p{N}_]+)`)
	specialCharsRegex   = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?\-]`)
	technicalKeepRegex  = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?\-$%@#&+*=<>/]`)
	spaceBeforePunct    = regexp.MustCompile(`\s+([.,;:!?])`)
	whitespaceRunsRegex = regexp.MustCompile(`\s+`)
)

// CleanText normalizes extracted text before chunking and storage: collapses
// whitespace, joins hyphenated line-wrap artifacts, strips characters outside
// the allow-list, and normalizes spacing around punctuation. Empty or
// all-whitespace input yields the empty string.
//
// preserveSpecialChars keeps common technical symbols ($, %, @, #, ...) for
// technical content.
func CleanText(text string, preserveSpecialChars bool) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// Collapse whitespace runs, then join hyphenated word wraps
	text = strings.Join(strings.Fields(text), " ")
	text = dehyphenRegex.ReplaceAllString(text, "$1$2")

	if preserveSpecialChars {
		text = technicalKeepRegex.ReplaceAllString(text, " ")
	} else {
		text = specialCharsRegex.ReplaceAllString(text, " ")
	}

	// Normalize whitespace around punctuation
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = spaceAfterPunct(text)

	text = whitespaceRunsRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// spaceAfterPunct inserts a single space after punctuation not already
// followed by whitespace.
func spaceAfterPunct(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/16)

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if isPunct(r) && i+1 < len(runes) {
			next := runes[i+1]
			if next != ' ' && next != '\t' && next != '\n' && next != '\r' {
				b.WriteRune(' ')
			}
		}
	}

	return b.String()
}

func isPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?':
		return true
	}
	return false
}
