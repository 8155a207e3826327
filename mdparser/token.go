package mdparser

// LineKind identifies the classification of a single source line.
type LineKind int

const (
	LineText LineKind = iota
	LineBlank
	LineCategoryHeader // #+ <path>, path segments joined with '/'
	LineQuestionStart  // --- with optional trailing content
	LineAnswer         // - <text>, optional '!' marks the answer correct
	LineFenceOpen      // ``` with optional <lexer>{img} suffix
	LineFenceClose     // bare ```
	LineComment        // <!-- ... -->, always discarded
)

var lineKindNames = map[LineKind]string{
	LineText:           "text",
	LineBlank:          "blank line",
	LineCategoryHeader: "category header ('# ...')",
	LineQuestionStart:  "question start ('---')",
	LineAnswer:         "answer ('- ...')",
	LineFenceOpen:      "code fence ('```')",
	LineFenceClose:     "closing code fence ('```')",
	LineComment:        "HTML comment",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Line is a classified source line. Kind determines which payload fields
// are populated.
type Line struct {
	Kind    LineKind
	Raw     string // the original line, always set
	Path    string // LineCategoryHeader: '/'-joined category path
	Text    string // LineQuestionStart (trailing content), LineAnswer, LineText
	Correct bool   // LineAnswer: answer is marked correct
	Lexer   string // LineFenceOpen: lexer tag, may be empty
	AsImage bool   // LineFenceOpen: block carries the {img} modifier
}
