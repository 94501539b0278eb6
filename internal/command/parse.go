package command

import (
	"regexp"
	"strconv"
	"strings"
)

// Keyword detection. Matching is case-insensitive and on word boundaries, so
// "tap" does not fire inside "whatsapp".
var (
	openKeyword   = regexp.MustCompile(`(?i)\b(?:open|launch)\b`)
	tapKeyword    = regexp.MustCompile(`(?i)\btap\b`)
	swipeKeyword  = regexp.MustCompile(`(?i)\bswipe\b`)
	insertKeyword = regexp.MustCompile(`(?i)\b(?:insert|paste)\b`)
)

// Parameter extraction. Commas may be ASCII or full-width.
var (
	openPattern   = regexp.MustCompile(`(?i)\b(?:open|launch)\b\s*(\S*)`)
	tapPattern    = regexp.MustCompile(`(?i)\btap\s*(\d+)\s*[,，]\s*(\d+)`)
	swipePattern  = regexp.MustCompile(`(?i)\bswipe\s*(\d+)\s*[,，]\s*(\d+)\s+to\s+(\d+)\s*[,，]\s*(\d+)`)
	insertPattern = regexp.MustCompile(`(?i)\b(?:insert|paste)\b(.*)$`)
)

// Parse classifies text and extracts its parameters. It is pure: the same text
// always yields the same Action. An Unrecognized result carries text exactly as
// submitted.
func Parse(text string) Action {
	action := classify(normalize(text))
	if u, ok := action.(Unrecognized); ok {
		u.Text = text
		return u
	}
	return action
}

func classify(normalized string) Action {
	switch {
	case openKeyword.MatchString(normalized):
		return parseOpen(normalized)
	case tapKeyword.MatchString(normalized):
		return parseTap(normalized)
	case swipeKeyword.MatchString(normalized):
		return parseSwipe(normalized)
	case insertKeyword.MatchString(normalized):
		return parseInsert(normalized)
	default:
		return Unrecognized{Reason: ReasonUnknownCommand, Category: KindUnrecognized}
	}
}

// normalize trims the text and collapses every whitespace run into one space.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func parseOpen(text string) Action {
	m := openPattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return Unrecognized{Reason: ReasonMissingTarget, Category: KindOpenApp}
	}
	return OpenApp{Target: m[1]}
}

func parseTap(text string) Action {
	m := tapPattern.FindStringSubmatch(text)
	if m == nil {
		return Unrecognized{Reason: ReasonBadCoordinates, Category: KindTap}
	}
	coords, ok := atoiAll(m[1:])
	if !ok {
		return Unrecognized{Reason: ReasonBadCoordinates, Category: KindTap}
	}
	return Tap{X: coords[0], Y: coords[1]}
}

func parseSwipe(text string) Action {
	m := swipePattern.FindStringSubmatch(text)
	if m == nil {
		return Unrecognized{Reason: ReasonBadCoordinates, Category: KindSwipe}
	}
	coords, ok := atoiAll(m[1:])
	if !ok {
		return Unrecognized{Reason: ReasonBadCoordinates, Category: KindSwipe}
	}
	return Swipe{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
}

func parseInsert(text string) Action {
	m := insertPattern.FindStringSubmatch(text)
	if m == nil {
		return Unrecognized{Reason: ReasonMissingContent, Category: KindInsertText}
	}
	content := strings.TrimSpace(m[1])
	if content == "" {
		return Unrecognized{Reason: ReasonMissingContent, Category: KindInsertText}
	}
	return InsertText{Content: content}
}

// atoiAll converts digit groups to ints. It fails on values that overflow int.
func atoiAll(groups []string) ([]int, bool) {
	out := make([]int, len(groups))
	for i, g := range groups {
		n, err := strconv.Atoi(g)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
