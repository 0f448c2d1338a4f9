package format

import (
	"errors"
	"unicode/utf8"

	"crosspost/internal/domain/content"
	"crosspost/internal/render"
)

// Platform identifies a publishing target.
type Platform string

const (
	PlatformBlog        Platform = "blog"
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformWechat      Platform = "wechat"
	PlatformX           Platform = "x"
	PlatformJike        Platform = "jike"
)

var ErrUnknownPlatform = errors.New("format: unknown platform")

// Platforms lists every supported target in display order.
func Platforms() []Platform {
	return []Platform{PlatformBlog, PlatformXiaohongshu, PlatformWechat, PlatformX, PlatformJike}
}

// Budget returns the per-unit character budget of a platform; 0 means
// unbounded. Exposed so callers can render live counters.
func Budget(p Platform) int {
	switch p {
	case PlatformXiaohongshu:
		return XiaohongshuLimit
	case PlatformX:
		return XPostLimit
	case PlatformJike:
		return JikeLimit
	default:
		return 0
	}
}

// Options carries the per-platform knobs a caller may set. Zero value is a
// usable default everywhere.
type Options struct {
	Thread ThreadOptions
	Card   CardStyle
}

// Output is the union of platform payloads; exactly the fields relevant to
// Platform are populated.
type Output struct {
	Platform Platform `json:"platform"`

	HTML     string               `json:"html,omitempty"`
	Headings []content.Heading    `json:"headings,omitempty"`
	Text     string               `json:"text,omitempty"`
	Topics   []string             `json:"topics,omitempty"`
	Card     *Card                `json:"card,omitempty"`
	Thread   []content.ThreadPost `json:"thread,omitempty"`

	Budget     int  `json:"budget"`
	CharCount  int  `json:"charCount"`
	OverBudget bool `json:"overBudget"`
}

// Formatter fans a post out to platform payloads. It only carries the
// goldmark instance for the rich-text paths; everything else is stateless.
type Formatter struct {
	md *render.MarkdownRenderer
}

func New(md *render.MarkdownRenderer) *Formatter {
	return &Formatter{md: md}
}

// ForPlatform derives the payload for one platform. Pure with respect to
// the post: the input is never mutated and repeated calls recompute fully.
// The only error case is an unknown platform; malformed markdown degrades,
// it does not fail.
func (f *Formatter) ForPlatform(p Platform, post content.Post, opt Options) (Output, error) {
	switch p {
	case PlatformBlog:
		html, err := f.md.Render([]byte(post.Content))
		if err != nil {
			return Output{}, err
		}
		return Output{
			Platform:  p,
			HTML:      string(html),
			Headings:  ExtractHeadings(post.Content),
			CharCount: utf8.RuneCountInString(post.Content),
		}, nil

	case PlatformWechat:
		html := ToWechatHTML(post.Content)
		return Output{
			Platform:  p,
			HTML:      html,
			CharCount: utf8.RuneCountInString(post.Content),
		}, nil

	case PlatformXiaohongshu:
		card := ToCard(post.Title, post.Content, opt.Card)
		return Output{
			Platform:   p,
			Card:       &card,
			Budget:     card.Limit,
			CharCount:  card.CharCount,
			OverBudget: card.OverLimit,
		}, nil

	case PlatformX:
		thread := ToThread(post.Title, post.Content, opt.Thread)
		count := 0
		for _, t := range thread {
			count += t.CharCount
		}
		return Output{
			Platform:  p,
			Thread:    thread,
			Budget:    XPostLimit,
			CharCount: count,
		}, nil

	case PlatformJike:
		jk := ToJike(post.Title, post.Content)
		n := utf8.RuneCountInString(jk.Text)
		return Output{
			Platform:   p,
			Text:       jk.Text,
			Topics:     jk.Topics,
			Budget:     JikeLimit,
			CharCount:  n,
			OverBudget: n >= JikeLimit,
		}, nil
	}
	return Output{}, ErrUnknownPlatform
}
