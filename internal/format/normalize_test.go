package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBasics(t *testing.T) {
	assert.Equal(t, "Hello\n\nWorld bold", Normalize("# Hello\n\nWorld **bold**"))
	assert.Equal(t, "em", Normalize("*em*"))
	assert.Equal(t, "Title", Normalize("### Title"))
	assert.Equal(t, "• first\n• second", Normalize("- first\n- second"))
	assert.Equal(t, "「quoted」", Normalize("> quoted"))
	assert.Equal(t, "x", Normalize("`x`"))
}

func TestNormalizeLinksKeepDestination(t *testing.T) {
	got := Normalize("see [docs](https://example.com/docs) for more")
	assert.Equal(t, "see docs https://example.com/docs for more", got)
}

func TestNormalizeCodeBlockPlaceholder(t *testing.T) {
	src := "before\n```go\nfunc main() {}\n```\nafter"
	got := Normalize(src)
	assert.Contains(t, got, "[code block]")
	assert.NotContains(t, got, "func main")
}

func TestNormalizeUnterminatedFenceLeftAlone(t *testing.T) {
	src := "text\n```go\nno closing fence"
	got := Normalize(src)
	// 残缺结构原样保留，不报错
	assert.Contains(t, got, "```go")
	assert.Contains(t, got, "no closing fence")
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"# Hello\n\nWorld **bold**",
		"- a\n- b\n\n> quote\n\n[t](u)",
		"```\ncode\n```",
		"plain text, nothing to do",
		"## 中文标题\n\n正文 *强调* 内容",
	}
	for _, src := range inputs {
		once := Normalize(src)
		assert.Equal(t, once, Normalize(once), "input: %q", src)
	}
}

func TestNormalizeLongDocument(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("## Section\n\nsome **bold** and `code` here\n\n")
	}
	got := Normalize(b.String())
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "## ")
}
