package inline

import (
	"regexp"
	"strings"
)

// Some target renderers auto-replace a single letter or digit in
// parentheses directly after an identifier with a pictograph, mangling
// text like fib(n). A zero-width space after the opening paren defeats the
// substitution without changing what the reader sees.
const zeroWidthSpace = "​"

var pictographPattern = regexp.MustCompile(`([A-Za-z0-9_])\(([A-Za-z0-9])\)`)

// protectedSpan matches ranges the separator must never land in: $$...$$
// and $...$ math spans, which the LaTeX filter consumes verbatim, and
// backtick code spans, whose content readers copy as is.
var protectedSpan = regexp.MustCompile("\\$\\$(?s:.+?)\\$\\$|\\$[^$\n]+\\$|`[^`\n]+`")

// defusePictographs inserts a zero-width separator into every match
// outside math and inline code spans.
// Idempotent: the separator itself never matches the single-char group.
func defusePictographs(text string) string {
	spans := protectedSpan.FindAllStringIndex(text, -1)
	if spans == nil {
		return defuseRun(text)
	}

	var sb strings.Builder
	last := 0
	for _, loc := range spans {
		sb.WriteString(defuseRun(text[last:loc[0]]))
		sb.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(defuseRun(text[last:]))
	return sb.String()
}

func defuseRun(text string) string {
	return pictographPattern.ReplaceAllString(text, "${1}("+zeroWidthSpace+"${2})")
}
