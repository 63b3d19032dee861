// Package script turns generated dialogue text into ordered speaker lines.
package script

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/radio-t/webradio/podcast"
)

// ErrEmptyScript is returned when the script has nothing to render
var ErrEmptyScript = errors.New("script has no renderable lines")

// separators between speaker tag and utterance, ascii and full-width
const separators = ":："

var (
	// leading bullets, quote marks and numbered list prefixes, a marker alone on the line included
	listMarkerRe = regexp.MustCompile(`^(?:[•・>]+\s*|[-*+]+(?:\s+|$)|\d+[.)](?:\s+|$))+`)
	boldRe       = regexp.MustCompile(`\*\*(\S(?:.*?\S)?)\*\*`)
	italicRe     = regexp.MustCompile(`(^|[^\w*])\*([^*\s](?:[^*]*[^*\s])?)\*($|[^\w*])`)
	codeRe       = regexp.MustCompile("`([^`]+)`")
)

// markdown characters left around a speaker tag
const tagNoise = "*_` "

// Parse converts a multi-line script into lines, one per non-blank input line.
// Lines without a speaker tag are attributed to the primary speaker, lines
// without text are dropped. Empty input gives an empty result.
func Parse(raw string) []podcast.Line {
	var lines []podcast.Line
	for _, rawLine := range strings.Split(raw, "\n") {
		line, ok := parseLine(rawLine)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseStrict is Parse that reports ErrEmptyScript when no line could be extracted
func ParseStrict(raw string) ([]podcast.Line, error) {
	lines := Parse(raw)
	if len(lines) == 0 {
		return nil, ErrEmptyScript
	}
	return lines, nil
}

func parseLine(raw string) (podcast.Line, bool) {
	cleaned := clean(raw)
	if cleaned == "" {
		return podcast.Line{}, false
	}

	tag, text, found := splitSpeaker(cleaned)
	tag = strings.Trim(tag, tagNoise)
	if !found || tag == "" {
		return podcast.Line{Speaker: podcast.SpeakerPrimary, Text: text}, text != ""
	}
	if text == "" {
		return podcast.Line{}, false
	}
	return podcast.Line{Speaker: ResolveSpeaker(tag), Tag: tag, Text: text}, true
}

// clean strips list markers and paired emphasis from a line, lone '*', '_' and
// '`' are part of the text
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = listMarkerRe.ReplaceAllString(s, "")
	s = boldRe.ReplaceAllString(s, "$1")
	// adjacent spans share a boundary character, each pass unwraps every other one
	for range 3 {
		next := italicRe.ReplaceAllString(s, "${1}${2}${3}")
		if next == s {
			break
		}
		s = next
	}
	s = codeRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// splitSpeaker splits on the first separator only, utterances may contain colons
func splitSpeaker(s string) (tag, text string, found bool) {
	idx := strings.IndexAny(s, separators)
	if idx < 0 {
		return "", s, false
	}
	_, size := utf8.DecodeRuneInString(s[idx:])
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+size:]), true
}

// ResolveSpeaker maps a speaker tag to a speaker, matching is substring based
// and case-sensitive, first speaker wins when both markers are present
func ResolveSpeaker(tag string) podcast.Speaker {
	switch {
	case strings.ContainsAny(tag, "AＡ"):
		return podcast.SpeakerPrimary
	case strings.ContainsAny(tag, "BＢ"):
		return podcast.SpeakerSecondary
	default:
		return podcast.SpeakerUnknown
	}
}
