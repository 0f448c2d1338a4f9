package format

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"crosspost/internal/domain/content"
)

const (
	// XPostLimit is the per-post character budget.
	XPostLimit = 280

	// Fixed reservation for the "n/total " prefix. Not digit-exact: a
	// 3-digit total would overrun it, but the 25-post cap keeps prefixes
	// within 6 characters.
	threadNumberReserve = 6

	// Hard stop for degenerate input; whatever is left past this many
	// posts is dropped.
	threadMaxPosts = 25
)

// ThreadOptions controls the split behavior.
type ThreadOptions struct {
	ThreadMode   bool
	AddNumbering bool
}

var reThreadStrip = regexp.MustCompile("[#*`>\\-\\[\\]()]")

// ToThread splits title+body into a sequence of posts that each fit the
// per-post budget. With ThreadMode off (or short input) it emits a single
// hard-truncated post. Otherwise it chunks greedily, preferring to cut at
// the last sentence terminator inside the chunk as long as that keeps more
// than half of the available length. Totals are back-filled once the split
// is complete.
func ToThread(title, markdown string, opt ThreadOptions) []content.ThreadPost {
	text := markdown
	if strings.TrimSpace(title) != "" {
		text = title + "\n\n" + markdown
	}
	text = reThreadStrip.ReplaceAllString(text, "")
	runes := []rune(text)

	if !opt.ThreadMode || len(runes) <= XPostLimit {
		c := string(runes[:min(len(runes), XPostLimit)])
		return []content.ThreadPost{{
			Number:    1,
			Total:     1,
			Content:   c,
			CharCount: utf8.RuneCountInString(c),
		}}
	}

	avail := XPostLimit
	if opt.AddNumbering {
		avail -= threadNumberReserve
	}

	var chunks []string
	for len(runes) > 0 && len(chunks) < threadMaxPosts {
		take := min(len(runes), avail)
		chunk := runes[:take]
		if take < len(runes) {
			if cut := lastSentenceEnd(chunk); cut > avail/2 {
				chunk = chunk[:cut]
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(chunk)))
		runes = []rune(strings.TrimLeft(string(runes[len(chunk):]), " \t\n"))
	}

	total := len(chunks)
	posts := make([]content.ThreadPost, 0, total)
	for i, c := range chunks {
		if opt.AddNumbering {
			c = fmt.Sprintf("%d/%d ", i+1, total) + c
		}
		posts = append(posts, content.ThreadPost{
			Number:    i + 1,
			Total:     total,
			Content:   c,
			CharCount: utf8.RuneCountInString(c),
		})
	}
	return posts
}

// lastSentenceEnd returns the index just past the last sentence terminator
// (or newline) in the chunk, -1 if there is none.
func lastSentenceEnd(chunk []rune) int {
	cut := -1
	for i, r := range chunk {
		switch r {
		case '。', '！', '？', '.', '!', '?', '\n':
			cut = i + 1
		}
	}
	return cut
}
