package mdparser

import "strings"

// Classify maps one raw source line to a classified Line.
//
// Classification is mostly state-free; the only context needed is whether
// the parser currently sits inside a code fence. Inside a fence every line
// is verbatim text except the bare closing fence.
//
// A delimiter character ('#', '-', '---') must be followed by whitespace or
// end-of-line to count as a delimiter; otherwise the line is plain text.
// The one exception is '-!', which opens a correct answer.
func Classify(raw string, inFence bool) Line {
	if inFence {
		if isFenceClose(raw) {
			return Line{Kind: LineFenceClose, Raw: raw}
		}
		return Line{Kind: LineText, Raw: raw, Text: raw}
	}
	for _, c := range classifiers {
		if ln, ok := c.match(raw); ok {
			return ln
		}
	}
	return Line{Kind: LineText, Raw: raw, Text: raw}
}

// classifiers is the ordered matching table. Order matters: '---' must be
// tried before '-', and comments and fences shadow everything else.
var classifiers = []struct {
	kind  LineKind
	match func(string) (Line, bool)
}{
	{LineComment, matchComment},
	{LineFenceOpen, matchFenceOpen},
	{LineQuestionStart, matchQuestionStart},
	{LineCategoryHeader, matchCategoryHeader},
	{LineAnswer, matchAnswer},
	{LineBlank, matchBlank},
}

func matchComment(raw string) (Line, bool) {
	t := strings.TrimSpace(raw)
	if len(t) >= 7 && strings.HasPrefix(t, "<!--") && strings.HasSuffix(t, "-->") {
		return Line{Kind: LineComment, Raw: raw}, true
	}
	return Line{}, false
}

func matchFenceOpen(raw string) (Line, bool) {
	if !strings.HasPrefix(raw, "```") {
		return Line{}, false
	}
	tag := strings.TrimSpace(raw[3:])
	asImage := strings.Contains(tag, "{img}")
	lexer := strings.TrimSpace(strings.Replace(tag, "{img}", "", 1))
	return Line{Kind: LineFenceOpen, Raw: raw, Lexer: lexer, AsImage: asImage}, true
}

func isFenceClose(raw string) bool {
	return strings.TrimRight(raw, " \t") == "```"
}

func matchQuestionStart(raw string) (Line, bool) {
	if !strings.HasPrefix(raw, "---") {
		return Line{}, false
	}
	rest := raw[3:]
	if rest != "" && !isSpace(rest[0]) {
		return Line{}, false
	}
	return Line{Kind: LineQuestionStart, Raw: raw, Text: strings.TrimSpace(rest)}, true
}

func matchCategoryHeader(raw string) (Line, bool) {
	i := 0
	for i < len(raw) && raw[i] == '#' {
		i++
	}
	if i == 0 || i >= len(raw) || !isSpace(raw[i]) {
		return Line{}, false
	}
	path := strings.TrimSpace(raw[i:])
	if path == "" {
		return Line{}, false
	}
	return Line{Kind: LineCategoryHeader, Raw: raw, Path: path}, true
}

func matchAnswer(raw string) (Line, bool) {
	if raw == "" || raw[0] != '-' {
		return Line{}, false
	}
	rest := raw[1:]
	switch {
	case rest == "":
		return Line{Kind: LineAnswer, Raw: raw}, true
	case rest[0] == '!':
		return Line{Kind: LineAnswer, Raw: raw, Text: strings.TrimSpace(rest[1:]), Correct: true}, true
	case isSpace(rest[0]):
		text := strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(text, "!") {
			return Line{Kind: LineAnswer, Raw: raw, Text: strings.TrimSpace(text[1:]), Correct: true}, true
		}
		return Line{Kind: LineAnswer, Raw: raw, Text: strings.TrimSpace(text)}, true
	}
	return Line{}, false
}

func matchBlank(raw string) (Line, bool) {
	if strings.TrimSpace(raw) == "" {
		return Line{Kind: LineBlank, Raw: raw}, true
	}
	return Line{}, false
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t'
}
