package format

import (
	"regexp"
	"strings"

	"crosspost/internal/domain/content"
)

var (
	reATXHeading = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reSlugStrip  = regexp.MustCompile(`[^\w\s-]`)
	reSlugSpace  = regexp.MustCompile(`\s+`)
)

// ExtractHeadings scans markdown line by line for ATX headings and returns
// them in document order. Ids are derived from the heading text alone, so
// duplicate headings produce duplicate ids. Lines inside fenced code blocks
// are not excluded; a "#" line inside a fence shows up as a heading.
func ExtractHeadings(markdown string) []content.Heading {
	var out []content.Heading
	for _, line := range strings.Split(markdown, "\n") {
		m := reATXHeading.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		out = append(out, content.Heading{
			Level: len(m[1]),
			Text:  text,
			ID:    HeadingSlug(text),
		})
	}
	return out
}

// HeadingSlug lowercases the text, drops everything outside word characters,
// whitespace and hyphens, then collapses whitespace runs to a single hyphen.
func HeadingSlug(text string) string {
	s := strings.ToLower(text)
	s = reSlugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return reSlugSpace.ReplaceAllString(s, "-")
}

// 滚动高亮的提前量（px）
const headingLookAhead = 100

// HeadingPosition pairs a heading id with its rendered vertical offset.
type HeadingPosition struct {
	ID  string
	Top float64
}

// ActiveHeading picks the last heading whose top is at or above the scroll
// offset plus a fixed look-ahead. Positions must be in document order.
// O(n) per call; throttling scroll events is the caller's job.
func ActiveHeading(positions []HeadingPosition, scrollOffset float64) string {
	active := ""
	for _, p := range positions {
		if p.Top <= scrollOffset+headingLookAhead {
			active = p.ID
		}
	}
	return active
}
