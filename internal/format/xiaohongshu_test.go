package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCardCountsStrippedText(t *testing.T) {
	// 预算按去掉 #、*、` 之后的字数算
	c := ToCard("t", "# ab\n**cd**", CardStyle{})
	assert.Equal(t, len(" ab\ncd"), c.CharCount)
	assert.False(t, c.OverLimit)
	assert.Equal(t, XiaohongshuLimit, c.Limit)
}

func TestToCardOverLimitFlagOnly(t *testing.T) {
	body := strings.Repeat("字", 1001)
	c := ToCard("title", body, CardStyle{Name: "default"})
	assert.True(t, c.OverLimit)
	assert.Equal(t, 1001, c.CharCount)
	assert.Equal(t, body, c.Body)
}

func TestToCardStyleDoesNotAffectText(t *testing.T) {
	a := ToCard("t", "body", CardStyle{})
	b := ToCard("t", "body", CardStyle{FontSize: 40, Background: "#000000", Watermark: "w"})
	assert.Equal(t, a.CharCount, b.CharCount)
	assert.Equal(t, a.Body, b.Body)
}
