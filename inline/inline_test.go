package inline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/brunomnsilva/markdown2moodle/mdparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRasterizer returns fixed bytes, or an error when failing is set.
type stubRasterizer struct {
	failing bool
	calls   []string
}

func (s *stubRasterizer) Rasterize(lexer, source string) ([]byte, error) {
	s.calls = append(s.calls, lexer)
	if s.failing {
		return nil, fmt.Errorf("highlighter unavailable")
	}
	return []byte("PNG-BYTES"), nil
}

func parseDoc(t *testing.T, src string) *mdparser.Document {
	t.Helper()
	doc, err := mdparser.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func questionBody(doc *mdparser.Document) *mdparser.Body {
	return &doc.Categories[0].Questions[0].Body
}

func TestProcessTableBlock(t *testing.T) {
	src := "# Cat\n---\nGiven:\n[table]\nName | Size\nTCP | 20\nUDP | 8\n[/table]\nwhich is smaller?\n- TCP\n- !UDP\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{TableBorder: true}))

	body := questionBody(doc)
	require.Len(t, body.Segments, 1)
	text := body.Segments[0].Text
	assert.Contains(t, text, `<table border="1">`)
	assert.Contains(t, text, "<thead><tr><th>Name</th><th>Size</th></tr></thead>")
	assert.Contains(t, text, "<td>UDP</td><td>8</td>")
	assert.NotContains(t, text, "[table]")
	assert.NotContains(t, text, "[/table]")
}

func TestProcessTableWithoutBorder(t *testing.T) {
	src := "# Cat\n---\n[table]\na | b\n[/table]\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{}))
	assert.Contains(t, questionBody(doc).Segments[0].Text, "<table><thead>")
}

func TestProcessUnclosedTableLeftAlone(t *testing.T) {
	src := "# Cat\n---\n[table]\na | b\nno closing marker\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{}))
	assert.Contains(t, questionBody(doc).Segments[0].Text, "[table]")
}

func TestProcessTableCellsEscaped(t *testing.T) {
	src := "# Cat\n---\n[table]\nexpr | result\na<b | true\n[/table]\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{}))
	assert.Contains(t, questionBody(doc).Segments[0].Text, "<td>a&lt;b</td>")
}

func TestProcessLocalImage(t *testing.T) {
	dir := t.TempDir()
	payload := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "figure.png"), payload, 0o644))

	src := "# Cat\n---\nSee ![fig](figure.png) above.\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{BaseDir: dir}))

	body := questionBody(doc)
	require.Len(t, body.Segments, 3)
	assert.Equal(t, mdparser.SegmentText, body.Segments[0].Kind)

	img := body.Segments[1]
	require.Equal(t, mdparser.SegmentImage, img.Kind)
	assert.Equal(t, "image/png", img.Asset.MIME)
	assert.Equal(t, payload, img.Asset.Consume())

	assert.Equal(t, " above.", body.Segments[2].Text)
}

func TestProcessRemoteImage(t *testing.T) {
	var fetched string
	fetch := func(url string) ([]byte, error) {
		fetched = url
		return []byte("JPEG"), nil
	}

	src := "# Cat\n---\n![](https://example.com/img/shot.jpg?v=2)\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{Fetch: fetch}))

	assert.Equal(t, "https://example.com/img/shot.jpg?v=2", fetched)
	var img *mdparser.Segment
	for i, seg := range questionBody(doc).Segments {
		if seg.Kind == mdparser.SegmentImage {
			img = &questionBody(doc).Segments[i]
		}
	}
	require.NotNil(t, img)
	assert.Equal(t, "image/jpeg", img.Asset.MIME, "jpg normalizes to jpeg, query ignored")
}

func TestProcessMissingImageFatal(t *testing.T) {
	src := "# Cat\n---\n![fig](missing.png)\n- x\n- !y\n"
	doc := parseDoc(t, src)
	err := Process(doc, Config{BaseDir: t.TempDir()})

	var aerr *AssetError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "missing.png", aerr.Target)
}

func TestProcessRasterizesImageFlaggedCode(t *testing.T) {
	src := "# Cat\n---\nQ\n```pascal{img}\nwriteln('hi');\n```\n- x\n- !y\n"
	doc := parseDoc(t, src)
	r := &stubRasterizer{}
	require.NoError(t, Process(doc, Config{Rasterizer: r}))

	assert.Equal(t, []string{"pascal"}, r.calls)
	body := questionBody(doc)
	require.Len(t, body.Segments, 2)
	img := body.Segments[1]
	require.Equal(t, mdparser.SegmentImage, img.Kind)
	assert.Equal(t, "image/png", img.Asset.MIME)
	assert.Equal(t, []byte("PNG-BYTES"), img.Asset.Consume())
}

func TestProcessRasterizerFailureFatal(t *testing.T) {
	src := "# Cat\n---\nQ\n```go{img}\nx := 1\n```\n- x\n- !y\n"
	doc := parseDoc(t, src)
	err := Process(doc, Config{Rasterizer: &stubRasterizer{failing: true}})

	var rerr *RasterError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "go", rerr.Lexer)
}

func TestProcessMissingRasterizerFatal(t *testing.T) {
	src := "# Cat\n---\nQ\n```go{img}\nx := 1\n```\n- x\n- !y\n"
	doc := parseDoc(t, src)
	err := Process(doc, Config{})

	var rerr *RasterError
	require.ErrorAs(t, err, &rerr)
}

func TestProcessPlainCodeUntouched(t *testing.T) {
	src := "# Cat\n---\nQ\n```go\nfib(n) calls fib(n)\n```\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{}))

	code := questionBody(doc).Segments[1]
	require.Equal(t, mdparser.SegmentCode, code.Kind)
	assert.Equal(t, "fib(n) calls fib(n)", code.Code.Text, "plain code is verbatim")
}

func TestDefusePictographs(t *testing.T) {
	got := defusePictographs("complexity of fib(n) is exponential")
	assert.Equal(t, "complexity of fib(​n) is exponential", got)

	// Idempotent.
	assert.Equal(t, got, defusePictographs(got))

	// Only single letters/digits directly after an identifier match.
	assert.Equal(t, "fib(n, m)", defusePictographs("fib(n, m)"))
	assert.Equal(t, "see (a) below", defusePictographs("see (a) below"))
}

func TestDefusePictographsSkipsMathAndCodeSpans(t *testing.T) {
	// Math spans and inline code are left byte-for-byte intact; only the
	// prose around them is defused.
	for _, in := range []string{"$f(x)$", "$$g(1)$$", "`fib(n)`"} {
		assert.Equal(t, in, defusePictographs(in), "input: %q", in)
	}

	got := defusePictographs("fib(n) solves $f(x)$ via `g(1)`")
	assert.Equal(t, "fib(​n) solves $f(x)$ via `g(1)`", got)
}

func TestProcessLeavesMathSpansIntact(t *testing.T) {
	src := "# Cat\n---\nCompute $f(x)$ for fib(n)\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{}))

	text := questionBody(doc).Segments[0].Text
	assert.Contains(t, text, "$f(x)$", "no separator inside the math span")
	assert.Contains(t, text, "fib(​n)")
}

func TestProcessAppliesPictographEvasionToAnswers(t *testing.T) {
	src := "# Cat\n---\nQ\n- f(x) grows\n- !g(1) shrinks\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, Config{}))

	q := doc.Categories[0].Questions[0]
	assert.Contains(t, q.Answers[0].Body.Segments[0].Text, "f(​x)")
	assert.Contains(t, q.Answers[1].Body.Segments[0].Text, "g(​1)")
}

func TestProcessIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "i.png"), []byte{1}, 0o644))

	src := "# Cat\n---\nfib(n) and ![](i.png)\n[table]\na | b\n[/table]\n- x\n- !y\n"
	doc := parseDoc(t, src)
	cfg := Config{BaseDir: dir}
	require.NoError(t, Process(doc, cfg))

	first := append([]mdparser.Segment(nil), questionBody(doc).Segments...)
	require.NoError(t, Process(doc, cfg))
	assert.Equal(t, first, questionBody(doc).Segments)
}

func TestProcessHooks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "i.png"), []byte{1}, 0o644))

	var assets, rasters []string
	cfg := Config{
		BaseDir:    dir,
		Rasterizer: &stubRasterizer{},
		Hooks: Hooks{
			AssetEmbedded:  func(target string) { assets = append(assets, target) },
			CodeRasterized: func(lexer string) { rasters = append(rasters, lexer) },
		},
	}

	src := "# Cat\n---\n![](i.png)\n```go{img}\nx\n```\n- x\n- !y\n"
	doc := parseDoc(t, src)
	require.NoError(t, Process(doc, cfg))

	assert.Equal(t, []string{"i.png"}, assets)
	assert.Equal(t, []string{"go"}, rasters)
}
