package content

import "strings"

// Post is the source content unit handed to the formatters: a title, a
// Markdown body and an ordered tag list. Content is arbitrary UTF-8 text
// with no structural guarantee beyond that.
type Post struct {
	Title   string
	Content string
	Tags    []string
}

// Heading is one entry of a document outline. Recomputed in full whenever
// the content changes; ids are derived from the heading text and are NOT
// guaranteed unique.
type Heading struct {
	Level int
	Text  string
	ID    string
}

// ThreadPost is one unit of a split thread. Total is only known once the
// whole split finishes and is back-filled afterwards.
type ThreadPost struct {
	Number    int
	Total     int
	Content   string
	CharCount int
}

func (p *Post) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Tags = normalizeTags(p.Tags)
}

func normalizeTags(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		item = strings.ToLower(item)
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
