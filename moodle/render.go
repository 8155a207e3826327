package moodle

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown is the delegated inline renderer. Hard wraps keep authored line
// breaks; unsafe mode passes through the HTML the inline processor already
// produced (tables, pictograph-defused text is plain).
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithUnsafe(),
	),
)

// renderMarkdown converts one text segment to HTML: inline code spans are
// sanitized and LaTeX delimiters rewritten first, then the segment goes
// through goldmark.
func renderMarkdown(text string) (string, error) {
	text = escapeInlineCode(text)
	text = rewriteLatex(text)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

var (
	doubleDollar = regexp.MustCompile(`\$\$(.+?)\$\$`)
	singleDollar = regexp.MustCompile(`\$([^$\n]+)\$`)
	inlineCode   = regexp.MustCompile("`[^`\n]+`")
)

// escapeInlineCode escapes '#' inside backtick spans, matching the
// treatment of fenced code. Moodle's TeX filter treats a bare '#' inside
// rendered <code> specially; goldmark passes the backslash through
// untouched because code spans take no escapes.
func escapeInlineCode(text string) string {
	return inlineCode.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, "#", `\#`)
	})
}

// rewriteLatex converts $...$ and $$...$$ spans into Moodle's \\(...\\)
// delimiters. Parentheses inside the math are sized with \left and \right.
func rewriteLatex(text string) string {
	replace := func(inner string) string {
		inner = strings.ReplaceAll(inner, "(", `\left(`)
		inner = strings.ReplaceAll(inner, ")", `\right)`)
		return `\\(` + inner + `\\)`
	}
	text = doubleDollar.ReplaceAllStringFunc(text, func(m string) string {
		return replace(strings.TrimSuffix(strings.TrimPrefix(m, "$$"), "$$"))
	})
	text = singleDollar.ReplaceAllStringFunc(text, func(m string) string {
		return replace(strings.TrimSuffix(strings.TrimPrefix(m, "$"), "$"))
	})
	return text
}
