package card

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultScale is the device-pixel scale used when the caller passes 0.
const DefaultScale = 2.0

const (
	defaultWidth    = 750
	defaultFontSize = 16
)

// Layout is a fully resolved visual tree for one share card: the text to
// draw plus presentation knobs. It is what a formatter plus a style config
// produce; rasterizers never reach back into the source post.
type Layout struct {
	Title      string
	Body       string
	Background string
	TextColor  string
	FontSize   int
	Padding    int
	Watermark  string
	Width      int
}

// Rasterizer turns a laid-out card into image bytes at the given
// device-pixel scale. Implementations are injected so the transformation
// core has no dependency on a particular rendering engine.
type Rasterizer interface {
	Render(layout Layout, scale float64) ([]byte, error)
}

// ImageRasterizer is the built-in pure-Go rasterizer: Go fonts on an RGBA
// canvas, Lanczos-resized to the requested scale, PNG-encoded.
type ImageRasterizer struct{}

func (ImageRasterizer) Render(layout Layout, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	width := layout.Width
	if width <= 0 {
		width = defaultWidth
	}
	size := layout.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	pad := layout.Padding
	if pad < 0 {
		pad = 0
	}

	bodyFace, err := newFace(goregular.TTF, float64(size))
	if err != nil {
		return nil, err
	}
	defer bodyFace.Close()
	titleFace, err := newFace(gobold.TTF, float64(size)*3/2)
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()

	maxLine := width - 2*pad
	var titleLines []string
	if layout.Title != "" {
		titleLines = wrapRunes(titleFace, layout.Title, maxLine)
	}
	var bodyLines []string
	for _, para := range strings.Split(layout.Body, "\n") {
		bodyLines = append(bodyLines, wrapRunes(bodyFace, para, maxLine)...)
	}

	titleLineH := size * 2
	bodyLineH := size * 7 / 4
	height := 2*pad + len(titleLines)*titleLineH + len(bodyLines)*bodyLineH
	if len(titleLines) > 0 {
		height += size / 2 // gap under the title
	}
	if layout.Watermark != "" {
		height += bodyLineH
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(parseHexColor(layout.Background, color.White)), image.Point{}, draw.Src)

	textColor := parseHexColor(layout.TextColor, color.Black)
	y := pad
	for _, line := range titleLines {
		y += titleLineH
		drawLine(img, titleFace, textColor, pad, y, line)
	}
	if len(titleLines) > 0 {
		y += size / 2
	}
	for _, line := range bodyLines {
		y += bodyLineH
		drawLine(img, bodyFace, textColor, pad, y, line)
	}
	if layout.Watermark != "" {
		drawLine(img, bodyFace, color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}, pad, height-pad/2-size/2, layout.Watermark)
	}

	out := image.Image(img)
	if scale != 1 {
		out = imaging.Resize(img, int(float64(width)*scale), 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	fnt, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func drawLine(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// wrapRunes breaks s into lines no wider than maxWidth pixels. Rune-greedy
// on purpose: card bodies are frequently CJK, where word boundaries do not
// exist.
func wrapRunes(face font.Face, s string, maxWidth int) []string {
	if s == "" {
		return []string{""}
	}
	limit := fixed.I(maxWidth)
	var lines []string
	var cur []rune
	w := fixed.I(0)
	for _, r := range s {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			adv, _ = face.GlyphAdvance('?')
		}
		if len(cur) > 0 && w+adv > limit {
			lines = append(lines, string(cur))
			cur = cur[:0]
			w = 0
		}
		cur = append(cur, r)
		w += adv
	}
	return append(lines, string(cur))
}

func parseHexColor(s string, fallback color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return fallback
	}
	var v [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(s[i*2])
		lo, ok2 := hexNibble(s[i*2+1])
		if !ok1 || !ok2 {
			return fallback
		}
		v[i] = hi<<4 | lo
	}
	return color.RGBA{R: v[0], G: v[1], B: v[2], A: 0xff}
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
