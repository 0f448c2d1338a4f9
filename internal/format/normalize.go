package format

import (
	"regexp"
)

// 占位符：代码块不进正文预算
const codePlaceholder = "[code block]"

var (
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+(.*)$`)
	reBold       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reFencedCode = regexp.MustCompile("(?s)```.*?```")
	reInlineCode = regexp.MustCompile("`([^`\n]*)`")
	reListItem   = regexp.MustCompile(`(?m)^-\s+`)
	reBlockquote = regexp.MustCompile(`(?m)^>\s+(.*)$`)
	reLink       = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
)

// Normalize collapses Markdown syntax into flowing plain text suitable for
// copy-paste targets. The passes are ordered; reordering them causes
// double substitution (e.g. emphasis markers inside already-rewritten
// links). This is a flat substitution pipeline, not a CommonMark parser:
// malformed constructs (unterminated fences, unmatched emphasis) are left
// as-is rather than failing.
func Normalize(markdown string) string {
	s := markdown
	s = reHeading.ReplaceAllString(s, "$1")
	s = reBold.ReplaceAllString(s, "$1")
	s = reItalic.ReplaceAllString(s, "$1")
	s = reFencedCode.ReplaceAllString(s, codePlaceholder)
	s = reInlineCode.ReplaceAllString(s, "$1")
	s = reListItem.ReplaceAllString(s, "• ")
	s = reBlockquote.ReplaceAllString(s, "「$1」")
	// 链接保留目标地址：译成 "text url"
	s = reLink.ReplaceAllString(s, "$1 $2")
	return s
}
