package format

import (
	"regexp"
	"unicode/utf8"
)

// XiaohongshuLimit is the platform's per-note plain-text budget.
const XiaohongshuLimit = 1000

// CardStyle carries presentation-only knobs. None of them affect the text
// content or the budget accounting.
type CardStyle struct {
	Name       string
	Background string
	TextColor  string
	FontSize   int
	Padding    int
	PageCount  int
	ShowTitle  bool
	ShowDate   bool
	Watermark  string
}

// Card is the Xiaohongshu note view: the Markdown body is kept renderable
// as-is, the budget is reported, and nothing is truncated. Trimming an
// over-limit note is the author's call, not ours.
type Card struct {
	Title     string
	Body      string
	CharCount int
	Limit     int
	OverLimit bool
	Style     CardStyle
}

var reCardStrip = regexp.MustCompile("[#*`]")

// ToCard measures the content against the note budget and bundles it with
// the given style. The plain-text length counts the content with Markdown
// punctuation characters stripped.
func ToCard(title, markdown string, style CardStyle) Card {
	plain := reCardStrip.ReplaceAllString(markdown, "")
	n := utf8.RuneCountInString(plain)
	return Card{
		Title:     title,
		Body:      markdown,
		CharCount: n,
		Limit:     XiaohongshuLimit,
		OverLimit: n > XiaohongshuLimit,
		Style:     style,
	}
}
