// Package fallback derives a to-do task directly from a transcript when the
// language model returns none for usable speech.
package fallback

import (
	"regexp"
	"strings"
	"unicode"

	"voice-relay/internal/domain"
)

const (
	maxTitleLen   = 120
	truncatedLen  = 117
	ellipsis      = "..."
	minSingleWord = 4
)

var fillers = map[string]struct{}{
	"oh": {}, "uh": {}, "um": {}, "hmm": {}, "huh": {},
	"hello": {}, "hi": {}, "hey": {}, "test": {},
}

// Applied in order, each at most once.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(add|create|set|make|new) (a )?(task|todo) `),
	regexp.MustCompile(`(?i)^(todo|to do) `),
	regexp.MustCompile(`(?i)^(remind me to|i need to|need to) `),
}

// Tasks returns at most one medium-priority task built from the transcript.
// Filler, empty and single short-word transcripts yield nil.
func Tasks(transcript string) []domain.Task {
	cleaned := Normalize(transcript)
	if cleaned == "" || IsFiller(cleaned) {
		return nil
	}

	title := cleaned
	for _, re := range boilerplate {
		title = re.ReplaceAllString(title, "")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = cleaned
	}

	words := strings.Fields(title)
	if len(words) == 0 {
		return nil
	}
	if len(words) == 1 && len(words[0]) < minSingleWord {
		return nil
	}

	if len(title) > maxTitleLen {
		title = strings.TrimRightFunc(title[:truncatedLen], unicode.IsSpace) + ellipsis
	}

	return []domain.Task{{
		Title:    strings.ToUpper(title[:1]) + title[1:],
		Priority: domain.PriorityMedium,
		Notes:    "",
	}}
}

// Normalize replaces everything except ASCII word characters, apostrophes and
// hyphens with spaces, then collapses whitespace. The result is pure ASCII.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '\'', r == '-':
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// IsFiller reports whether s is a non-actionable utterance such as "um" or "hello".
func IsFiller(s string) bool {
	_, ok := fillers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
