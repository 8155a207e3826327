// Package raster renders highlighted source code into PNG images for
// embedding in quiz banks where a plain <pre> block would lose formatting.
//
// Highlighting uses chroma; drawing uses fogleman/gg with the Go Mono face.
package raster

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Options configure a Highlighter.
type Options struct {
	FontSize    float64 // point size, defaults to 16
	LineNumbers bool    // draw a line-number gutter
	DumpDir     string  // when set, every rendered PNG is also written here
}

// DefaultLexer is used when the fence names no lexer or an unknown one.
const DefaultLexer = "pascal"

const margin = 8.0

// dumpSeq numbers debug-dump files across all highlighters in the process.
var dumpSeq atomic.Int64

// Highlighter renders code snippets to PNG. Safe for reuse across runs.
type Highlighter struct {
	opts  Options
	face  font.Face
	style *chroma.Style
}

// New creates a Highlighter with the Go Mono face at the configured size.
func New(opts Options) (*Highlighter, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = 16
	}
	ft, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing builtin font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("building font face: %w", err)
	}
	return &Highlighter{opts: opts, face: face, style: styles.Get("friendly")}, nil
}

// Rasterize highlights source with the named lexer and returns PNG bytes.
// Unknown lexer names fall back to DefaultLexer.
func (h *Highlighter) Rasterize(lexerName, source string) ([]byte, error) {
	if lexerName == "" {
		lexerName = DefaultLexer
	}
	lexer := lexers.Get(lexerName)
	if lexer == nil {
		lexer = lexers.Get(DefaultLexer)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	source = strings.ReplaceAll(source, "\t", "    ")
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil, fmt.Errorf("tokenizing source: %w", err)
	}
	img, err := h.draw(splitTokenLines(iterator.Tokens()))
	if err != nil {
		return nil, err
	}

	if h.opts.DumpDir != "" {
		name := filepath.Join(h.opts.DumpDir, fmt.Sprintf("%d.png", dumpSeq.Add(1)))
		if err := os.WriteFile(name, img, 0o644); err != nil {
			return nil, fmt.Errorf("dumping image: %w", err)
		}
	}
	return img, nil
}

// run is one same-styled span within a line.
type run struct {
	text string
	kind chroma.TokenType
}

// splitTokenLines regroups chroma tokens, whose values may span newlines,
// into per-line runs.
func splitTokenLines(tokens []chroma.Token) [][]run {
	lines := [][]run{{}}
	for _, tok := range tokens {
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, []run{})
			}
			if part == "" {
				continue
			}
			last := len(lines) - 1
			lines[last] = append(lines[last], run{text: part, kind: tok.Type})
		}
	}
	// Drop the trailing empty line left by a final newline.
	if n := len(lines); n > 1 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	return lines
}

func (h *Highlighter) draw(lines [][]run) ([]byte, error) {
	charW := h.advance('M')
	metrics := h.face.Metrics()
	lineH := math.Ceil(fixedToFloat(metrics.Height))
	ascent := fixedToFloat(metrics.Ascent)

	gutter := 0.0
	digits := 0
	if h.opts.LineNumbers {
		digits = len(fmt.Sprint(len(lines)))
		gutter = float64(digits+2) * charW
	}

	maxCols := 1
	for _, line := range lines {
		cols := 0
		for _, r := range line {
			cols += len([]rune(r.text))
		}
		if cols > maxCols {
			maxCols = cols
		}
	}

	width := int(math.Ceil(2*margin + gutter + float64(maxCols)*charW))
	height := int(math.Ceil(2*margin + float64(len(lines))*lineH))

	dc := gg.NewContext(width, height)
	h.setColour(dc, h.style.Get(chroma.Background).Background, 1, 1, 1)
	dc.Clear()
	dc.SetFontFace(h.face)

	for i, line := range lines {
		y := margin + float64(i)*lineH + ascent
		x := margin
		if h.opts.LineNumbers {
			dc.SetRGB255(0x88, 0x88, 0x88)
			dc.DrawString(fmt.Sprintf("%*d", digits, i+1), x, y)
			x += gutter
		}
		for _, r := range line {
			h.setColour(dc, h.style.Get(r.kind).Colour, 0, 0, 0)
			dc.DrawString(r.text, x, y)
			x += float64(len([]rune(r.text))) * charW
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// setColour applies c to the drawing context, or the fallback RGB when the
// style has no colour for the token.
func (h *Highlighter) setColour(dc *gg.Context, c chroma.Colour, r, g, b float64) {
	if c.IsSet() {
		dc.SetRGB255(int(c.Red()), int(c.Green()), int(c.Blue()))
		return
	}
	dc.SetRGB(r, g, b)
}

func (h *Highlighter) advance(r rune) float64 {
	adv, ok := h.face.GlyphAdvance(r)
	if !ok {
		return h.opts.FontSize * 0.6
	}
	return fixedToFloat(adv)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
