// Package inline rewrites parsed quiz bodies in place before serialization:
// custom table blocks become HTML table markup, image references and
// image-flagged code blocks become embedded binary assets, and patterns a
// downstream renderer would auto-replace with pictographs are defused with
// a zero-width separator.
//
// Processing is idempotent per body and never touches the content of code
// blocks rendered as plain text.
package inline

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/brunomnsilva/markdown2moodle/mdparser"
)

// Rasterizer renders highlighted source code into an image. A failure is
// fatal to the whole run.
type Rasterizer interface {
	// Rasterize returns PNG bytes for the given source, highlighted with
	// the named lexer.
	Rasterize(lexer, source string) ([]byte, error)
}

// FetchFunc retrieves the bytes behind a remote image URL.
type FetchFunc func(url string) ([]byte, error)

// Hooks are optional observation callbacks, invoked synchronously.
type Hooks struct {
	AssetEmbedded  func(target string)
	CodeRasterized func(lexer string)
}

// Config carries everything the processor needs. A zero Config is usable
// for documents without images or {img} code blocks.
type Config struct {
	TableBorder bool       // render resolved tables with a border
	BaseDir     string     // directory relative image paths resolve against
	Rasterizer  Rasterizer // required only when {img} blocks are present
	Fetch       FetchFunc  // remote image fetcher, defaults to HTTP GET
	Hooks       Hooks
}

// AssetError reports an image that could not be read or fetched.
type AssetError struct {
	Target string
	Err    error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("resolving image %q: %v", e.Target, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// RasterError reports a failed code rasterization.
type RasterError struct {
	Lexer string
	Err   error
}

func (e *RasterError) Error() string {
	return fmt.Sprintf("rasterizing %q code block: %v", e.Lexer, e.Err)
}

func (e *RasterError) Unwrap() error { return e.Err }

// Process rewrites every body in the document. The first error aborts the
// run; no element is skipped silently.
func Process(doc *mdparser.Document, cfg Config) error {
	var err error
	for _, top := range doc.Categories {
		top.Walk(func(c *mdparser.Category) {
			if err != nil {
				return
			}
			for _, q := range c.Questions {
				if err = processBody(&q.Body, cfg); err != nil {
					return
				}
				for i := range q.Answers {
					if err = processBody(&q.Answers[i].Body, cfg); err != nil {
						return
					}
				}
			}
		})
	}
	return err
}

func processBody(b *mdparser.Body, cfg Config) error {
	out := make([]mdparser.Segment, 0, len(b.Segments))
	for _, seg := range b.Segments {
		switch seg.Kind {
		case mdparser.SegmentCode:
			if !seg.Code.AsImage {
				out = append(out, seg)
				continue
			}
			if cfg.Rasterizer == nil {
				return &RasterError{Lexer: seg.Code.Lexer, Err: fmt.Errorf("no rasterizer configured")}
			}
			png, err := cfg.Rasterizer.Rasterize(seg.Code.Lexer, seg.Code.Text)
			if err != nil {
				return &RasterError{Lexer: seg.Code.Lexer, Err: err}
			}
			if cfg.Hooks.CodeRasterized != nil {
				cfg.Hooks.CodeRasterized(seg.Code.Lexer)
			}
			out = append(out, mdparser.Segment{
				Kind:  mdparser.SegmentImage,
				Asset: mdparser.NewInlineAsset("image/png", png),
			})

		case mdparser.SegmentText:
			segs, err := processText(seg.Text, cfg)
			if err != nil {
				return err
			}
			out = append(out, segs...)

		default:
			out = append(out, seg)
		}
	}
	b.Segments = out
	return nil
}

// processText runs the text rewrite pipeline on one text segment: tables,
// then image extraction, then pictograph evasion on the remaining text.
func processText(text string, cfg Config) ([]mdparser.Segment, error) {
	text = resolveTables(text, cfg.TableBorder)

	var out []mdparser.Segment
	appendText := func(s string) {
		if s == "" {
			return
		}
		out = append(out, mdparser.Segment{Kind: mdparser.SegmentText, Text: defusePictographs(s)})
	}

	for {
		loc := imagePattern.FindStringSubmatchIndex(text)
		if loc == nil {
			break
		}
		appendText(text[:loc[0]])
		target := text[loc[4]:loc[5]]
		asset, err := loadAsset(target, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Hooks.AssetEmbedded != nil {
			cfg.Hooks.AssetEmbedded(target)
		}
		out = append(out, mdparser.Segment{Kind: mdparser.SegmentImage, Asset: asset})
		text = text[loc[1]:]
	}
	appendText(text)
	return out, nil
}

var imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// loadAsset resolves an image reference to its bytes. Relative paths
// resolve against the source document's directory; anything with a scheme
// is fetched remotely.
func loadAsset(target string, cfg Config) (*mdparser.InlineAsset, error) {
	var data []byte
	var err error

	if strings.Contains(target, "://") {
		fetch := cfg.Fetch
		if fetch == nil {
			fetch = httpFetch
		}
		data, err = fetch(target)
	} else {
		name := target
		if !filepath.IsAbs(name) {
			name = filepath.Join(cfg.BaseDir, name)
		}
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, &AssetError{Target: target, Err: err}
	}
	return mdparser.NewInlineAsset(mimeFor(target), data), nil
}

func httpFetch(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// mimeFor derives an image MIME type from the reference's extension.
func mimeFor(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(target), "."))
	switch ext {
	case "":
		ext = "png"
	case "jpg":
		ext = "jpeg"
	}
	return "image/" + ext
}
