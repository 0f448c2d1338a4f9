package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// 公众号编辑器只认内联样式，不吃外链 CSS
var wechatHeaderStyles = map[int]string{
	1: "font-size:22px;font-weight:bold;margin:24px 0 12px;color:#1a1a1a;",
	2: "font-size:20px;font-weight:bold;margin:20px 0 10px;color:#1a1a1a;",
	3: "font-size:18px;font-weight:bold;margin:18px 0 9px;color:#1a1a1a;",
	4: "font-size:17px;font-weight:bold;margin:16px 0 8px;color:#1a1a1a;",
	5: "font-size:16px;font-weight:bold;margin:14px 0 7px;color:#1a1a1a;",
	6: "font-size:15px;font-weight:bold;margin:12px 0 6px;color:#1a1a1a;",
}

const (
	wechatParagraphStyle = "margin:16px 0;line-height:1.75;color:#3f3f3f;"
	wechatListStyle      = "margin:16px 0;padding-left:24px;"
	wechatItemStyle      = "margin:6px 0;line-height:1.75;"
	wechatQuoteStyle     = "border-left:4px solid #d0d7de;margin:16px 0;padding:8px 16px;color:#57606a;background:#f6f8fa;"
	wechatPreStyle       = "background:#f6f8fa;border-radius:4px;padding:12px;overflow-x:auto;margin:16px 0;"
	wechatCodeStyle      = "background:#f6f8fa;padding:2px 4px;border-radius:3px;font-family:monospace;font-size:14px;"
)

var (
	reWechatMDHeader  = regexp.MustCompile(`(?m)^(#{1,6})\s+(.*)$`)
	reWechatRawHeader = regexp.MustCompile(`(?s)&lt;h([1-6])&gt;(.*?)&lt;/h[1-6]&gt;`)
	reWechatBold      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reWechatItalic    = regexp.MustCompile(`\*([^*]+)\*`)
	reWechatItem      = regexp.MustCompile(`(?m)^-\s+(.*)$`)
	reWechatItemRun   = regexp.MustCompile(`(?:<li style="[^"]*">[^\n]*</li>\n?)+`)
	reWechatQuote     = regexp.MustCompile(`(?m)^&gt;\s+(.*)$`)
	reWechatFence     = regexp.MustCompile("(?s)```(?:[0-9A-Za-z+-]*\n)?(.*?)```")
	reWechatInline    = regexp.MustCompile("`([^`\n]*)`")
)

var wechatPolicy = newWechatPolicy()

// newWechatPolicy is the allow-list of tags the editor accepts. Anything
// outside it is silently dropped during sanitization, never an error.
func newWechatPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "em", "b", "i", "u", "strike", "del",
		"ul", "ol", "li", "blockquote", "pre", "code",
		"a", "img", "span", "div",
	)
	p.AllowAttrs("style", "title", "class").Globally()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	return p
}

// ToWechatHTML converts markdown to the inline-styled HTML fragment the
// WeChat editor accepts, then sanitizes it. The raw input is entity-escaped
// up front, so source HTML (scripts included) can never reach the output as
// live markup; generation is plain ordered string substitution on top of
// the escaped text. Output is always sanitized; callers must not bypass
// this function to render intermediate HTML.
func ToWechatHTML(markdown string) string {
	s := markdown
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")

	// 标题：兼容字面 <hN> 和 Markdown 两种写法
	s = reWechatRawHeader.ReplaceAllStringFunc(s, func(m string) string {
		sub := reWechatRawHeader.FindStringSubmatch(m)
		level := int(sub[1][0] - '0')
		return wechatHeader(level, sub[2])
	})
	s = reWechatMDHeader.ReplaceAllStringFunc(s, func(m string) string {
		sub := reWechatMDHeader.FindStringSubmatch(m)
		return wechatHeader(len(sub[1]), sub[2])
	})

	s = reWechatBold.ReplaceAllString(s, `<strong style="font-weight:bold;">$1</strong>`)
	s = reWechatItalic.ReplaceAllString(s, `<em style="font-style:italic;">$1</em>`)

	s = reWechatItem.ReplaceAllString(s, `<li style="`+wechatItemStyle+`">$1</li>`)
	s = reWechatItemRun.ReplaceAllStringFunc(s, func(run string) string {
		items := strings.ReplaceAll(run, "\n", "")
		return `<ul style="` + wechatListStyle + `">` + items + "</ul>\n"
	})

	s = reWechatQuote.ReplaceAllString(s, `<blockquote style="`+wechatQuoteStyle+`">$1</blockquote>`)

	s = reWechatFence.ReplaceAllString(s, `<pre style="`+wechatPreStyle+`"><code style="font-family:monospace;font-size:14px;">$1</code></pre>`)
	s = reWechatInline.ReplaceAllString(s, `<code style="`+wechatCodeStyle+`">$1</code>`)

	// 段落与换行
	s = strings.ReplaceAll(s, "\n\n", `</p><p style="`+wechatParagraphStyle+`">`)
	s = `<p style="` + wechatParagraphStyle + `">` + s + "</p>"
	s = strings.ReplaceAll(s, "\n", "<br>")

	return wechatPolicy.Sanitize(s)
}

func wechatHeader(level int, text string) string {
	if level < 1 || level > 6 {
		level = 6
	}
	return fmt.Sprintf(`<h%d style="%s">%s</h%d>`, level, wechatHeaderStyles[level], strings.TrimSpace(text), level)
}
