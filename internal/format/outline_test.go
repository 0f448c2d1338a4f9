package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/internal/domain/content"
)

func TestExtractHeadings(t *testing.T) {
	got := ExtractHeadings("## Section One")
	require.Len(t, got, 1)
	assert.Equal(t, content.Heading{Level: 2, Text: "Section One", ID: "section-one"}, got[0])
}

func TestExtractHeadingsLevelsAndOrder(t *testing.T) {
	src := "# Top\n\nbody\n\n## Middle\n\n###### Deep"
	got := ExtractHeadings(src)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Level)
	assert.Equal(t, 2, got[1].Level)
	assert.Equal(t, 6, got[2].Level)
	assert.Equal(t, "top", got[0].ID)
}

func TestExtractHeadingsDuplicateIDsKept(t *testing.T) {
	got := ExtractHeadings("## Setup\n\ntext\n\n## Setup")
	require.Len(t, got, 2)
	// ids 不去重，重复标题产生重复锚点
	assert.Equal(t, got[0].ID, got[1].ID)
}

func TestExtractHeadingsInsideFence(t *testing.T) {
	// 代码块里的 # 行也会被当成标题，这是已知行为
	got := ExtractHeadings("```\n# not a heading\n```")
	require.Len(t, got, 1)
	assert.Equal(t, "not a heading", got[0].Text)
}

func TestHeadingSlug(t *testing.T) {
	assert.Equal(t, "section-one", HeadingSlug("Section One"))
	assert.Equal(t, "hello-world", HeadingSlug("Hello,   World!"))
	assert.Equal(t, "v2-api-design", HeadingSlug("v2 API design"))
	// 纯函数：同样输入永远同样输出
	assert.Equal(t, HeadingSlug("Stable Text"), HeadingSlug("Stable Text"))
}

func TestActiveHeading(t *testing.T) {
	positions := []HeadingPosition{
		{ID: "a", Top: 0},
		{ID: "b", Top: 400},
		{ID: "c", Top: 900},
	}
	assert.Equal(t, "a", ActiveHeading(positions, 0))
	assert.Equal(t, "b", ActiveHeading(positions, 350))
	assert.Equal(t, "c", ActiveHeading(positions, 2000))
	assert.Equal(t, "", ActiveHeading(nil, 100))
}
