package format

import (
	"regexp"
	"strings"
)

const (
	// JikeLimit is the platform's per-post character budget.
	JikeLimit = 2000

	jikeMaxTopics = 3
	jikeEllipsis  = "..."
)

// JikePost is the copyable plain-text payload plus display topics.
type JikePost struct {
	Text   string
	Topics []string
}

var reTopic = regexp.MustCompile(`#(\w+)`)

// ToJike flattens title+body to plain text and hard-truncates to the
// budget, ellipsis included. Topics are scanned out of the original
// markdown (not the flattened text) so tag-looking tokens survive
// normalization; best effort, capped at three.
func ToJike(title, markdown string) JikePost {
	text := markdown
	if strings.TrimSpace(title) != "" {
		text = title + "\n\n" + markdown
	}
	plain := Normalize(text)

	runes := []rune(plain)
	if len(runes) > JikeLimit {
		plain = string(runes[:JikeLimit-len(jikeEllipsis)]) + jikeEllipsis
	}

	var topics []string
	for _, m := range reTopic.FindAllStringSubmatch(markdown, -1) {
		topics = append(topics, m[1])
		if len(topics) == jikeMaxTopics {
			break
		}
	}
	return JikePost{Text: plain, Topics: topics}
}
