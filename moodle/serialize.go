// Package moodle serializes a parsed quiz document into Moodle XML
// quiz-bank documents, one per top-level category.
//
// Generic inline markdown rendering is delegated to goldmark; this package
// only owns the Moodle XML structure, entity escaping, LaTeX delimiters,
// and base64 asset embedding. Embedded assets are consumed during
// serialization, so a processed document serializes once.
package moodle

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brunomnsilva/markdown2moodle/mdparser"
	"github.com/google/uuid"
)

// Artifact is one self-contained output document.
type Artifact struct {
	Category  string // top-level category name
	FileName  string // suggested output file name
	Questions int
	XML       []byte
}

// Serialize walks the document and emits one Artifact per top-level
// category. sourceName is the quiz source path, used only to derive output
// file names. Source order is preserved; category groups never interleave.
func Serialize(doc *mdparser.Document, sourceName string, cfg Config) ([]Artifact, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	artifacts := make([]Artifact, 0, len(doc.Categories))
	for _, top := range doc.Categories {
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" ?><quiz>`)

		count := 0
		var err error
		top.Walk(func(c *mdparser.Category) {
			if err != nil {
				return
			}
			if len(c.Questions) == 0 && c != top {
				return
			}
			sb.WriteString(`<question type="category"><category><text>`)
			sb.WriteString(escapeXML(c.Path))
			sb.WriteString(`</text></category></question>`)
			for _, q := range c.Questions {
				var qxml string
				qxml, err = questionXML(q, count, cfg)
				if err != nil {
					return
				}
				sb.WriteString(qxml)
				count++
			}
		})
		if err != nil {
			return nil, err
		}
		sb.WriteString("</quiz>")

		artifacts = append(artifacts, Artifact{
			Category:  top.Name,
			FileName:  stem + "_" + fileNamePart(top.Name) + ".xml",
			Questions: count,
			XML:       []byte(sb.String()),
		})
	}
	return artifacts, nil
}

// questionXML emits one multichoice question. The question name is the
// zero-padded 1-based index plus a salted digest of the body text, so
// repeated imports of regenerated banks never collide.
func questionXML(q *mdparser.Question, index int, cfg Config) (string, error) {
	body, err := renderBody(&q.Body)
	if err != nil {
		return "", err
	}

	correct := 0
	for _, a := range q.Answers {
		if a.Correct {
			correct++
		}
	}
	if correct == 0 {
		return "", fmt.Errorf("question %q has no correct answer", firstLine(q.Body.Text()))
	}
	correctFraction := round7(100 / float64(correct))
	wrongFraction := 0.0
	if cfg.Penalty > 0 {
		wrongFraction = -round7(100 * cfg.Penalty)
	}

	sum := md5.Sum([]byte(q.Body.Text() + uuid.NewString()))

	var sb strings.Builder
	sb.WriteString(`<question type="multichoice">`)
	sb.WriteString("<name><text>")
	sb.WriteString(fmt.Sprintf("%04d", index+1))
	sb.WriteString(hex.EncodeToString(sum[:]))
	sb.WriteString("</text></name>")
	sb.WriteString(`<questiontext format="html"><text>`)
	sb.WriteString(cdata(body))
	sb.WriteString("</text></questiontext>")

	for i := range q.Answers {
		a := &q.Answers[i]
		fraction := wrongFraction
		if a.Correct {
			fraction = correctFraction
		}
		axml, err := answerXML(a, fraction)
		if err != nil {
			return "", err
		}
		sb.WriteString(axml)
	}

	shuffle := "0"
	if cfg.ShuffleAnswers {
		shuffle = "1"
	}
	sb.WriteString("<shuffleanswers>" + shuffle + "</shuffleanswers>")
	sb.WriteString("<single>" + strconv.FormatBool(correct == 1) + "</single>")
	sb.WriteString("<answernumbering>" + string(cfg.Numbering) + "</answernumbering>")
	sb.WriteString("</question>")
	return sb.String(), nil
}

func answerXML(a *mdparser.Answer, fraction float64) (string, error) {
	body, err := renderBody(&a.Body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(`<answer fraction="` + formatFraction(fraction) + `">`)
	sb.WriteString("<text>" + cdata(body) + "</text>")
	if a.Feedback != "" {
		sb.WriteString(`<feedback><text>` + cdata(a.Feedback) + `</text></feedback>`)
	}
	sb.WriteString("</answer>")
	return sb.String(), nil
}

// renderBody converts a body's segments to the HTML placed inside CDATA:
// text through the markdown renderer, plain code blocks entity-escaped into
// <pre><code>, assets as base64 data URIs consumed from the model.
func renderBody(b *mdparser.Body) (string, error) {
	var sb strings.Builder
	for _, seg := range b.Segments {
		switch seg.Kind {
		case mdparser.SegmentText:
			html, err := renderMarkdown(seg.Text)
			if err != nil {
				return "", err
			}
			sb.WriteString(html)
		case mdparser.SegmentCode:
			sb.WriteString("<pre><code>")
			sb.WriteString(escapeCode(seg.Code.Text))
			sb.WriteString("</code></pre>")
		case mdparser.SegmentImage:
			data := seg.Asset.Consume()
			sb.WriteString(`<img style="display:block;" src="data:`)
			sb.WriteString(seg.Asset.MIME)
			sb.WriteString(";base64,")
			sb.WriteString(base64.StdEncoding.EncodeToString(data))
			sb.WriteString(`" />`)
		}
	}
	return sb.String(), nil
}

func formatFraction(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func round7(f float64) float64 {
	return math.Round(f*1e7) / 1e7
}

// cdata wraps content in a CDATA section, splitting any literal "]]>" so
// the output stays well-formed.
func cdata(content string) string {
	content = strings.ReplaceAll(content, "]]>", "]]]]><![CDATA[>")
	return "<![CDATA[" + content + "]]>"
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeXML(s string) string { return xmlEscaper.Replace(s) }

// escapeCode prepares verbatim code for HTML embedding. '#' is escaped
// first because Moodle's TeX filter treats it specially; the entity order
// matters ('&' before '<' and '>').
func escapeCode(s string) string {
	s = strings.ReplaceAll(s, "#", `\#`)
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return s
}

// fileNamePart sanitizes a category name for an output file name: path
// separators become hyphens and spaces are dropped.
func fileNamePart(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	return strings.ReplaceAll(name, " ", "")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
