package mdparser

import (
	"fmt"
	"strings"
)

// State identifies a parser state. Exactly one transition is taken per
// source line; a line whose kind has no transition from the current state
// raises a *StructuralError.
type State int

const (
	StateStart State = iota
	StateCategory
	StateQuestionBody
	StateAnswers
	StateCodeFence
)

var stateNames = map[State]string{
	StateStart:        "at start of document",
	StateCategory:     "in category",
	StateQuestionBody: "in question body",
	StateAnswers:      "in answer list",
	StateCodeFence:    "in code fence",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// expectedKinds lists the line kinds accepted in each state, used in
// structural error messages. Blank lines and HTML comments are accepted
// everywhere and omitted.
func expectedKinds(s State) []LineKind {
	switch s {
	case StateStart:
		return []LineKind{LineCategoryHeader}
	case StateCategory:
		return []LineKind{LineCategoryHeader, LineQuestionStart}
	case StateQuestionBody:
		return []LineKind{LineText, LineAnswer, LineFenceOpen}
	case StateAnswers:
		return []LineKind{LineAnswer, LineText, LineQuestionStart, LineCategoryHeader, LineFenceOpen}
	case StateCodeFence:
		return []LineKind{LineText, LineFenceClose}
	}
	return nil
}

// Parse parses quiz markdown source and returns a Document.
// Returns a *StructuralError, *UnterminatedFenceError, *EmptyAnswerSetError,
// or *NoCorrectAnswerError on failure.
func Parse(src []byte) (*Document, error) {
	p := &parser{doc: &Document{}, state: StateStart}

	lines := strings.Split(string(src), "\n")
	for i, raw := range lines {
		p.line = i + 1
		raw = strings.TrimSuffix(raw, "\r")
		if err := p.feed(Classify(raw, p.state == StateCodeFence)); err != nil {
			return nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// openKind tags which body currently receives text, if any.
type openKind int

const (
	openNone     openKind = iota
	openQuestion          // the pending question's body
	openAnswer            // one answer of the pending question, by index
)

type openBody struct {
	kind   openKind
	answer int // index into question.Answers when kind == openAnswer
}

// fenceFrame remembers everything needed to resume after a code fence
// closes: the state to return to, the body owning the block, and the
// opening fence's tag.
type fenceFrame struct {
	ret     State
	owner   openBody
	lexer   string
	asImage bool
	lines   []string
	opened  int // line the fence was opened on
}

// parser is the single mutable builder context. The document owns all
// nodes unidirectionally; the open body is tracked by tag and index, never
// by back-pointer.
type parser struct {
	doc      *Document
	cat      *Category // most recently opened category
	question *Question // pending question, not yet attached to cat
	open     openBody
	fence    *fenceFrame
	state    State
	line     int
}

func (p *parser) feed(ln Line) error {
	// Comments are discarded in every state without a transition.
	if ln.Kind == LineComment {
		return nil
	}

	switch p.state {
	case StateStart:
		return p.feedStart(ln)
	case StateCategory:
		return p.feedCategory(ln)
	case StateQuestionBody:
		return p.feedQuestionBody(ln)
	case StateAnswers:
		return p.feedAnswers(ln)
	case StateCodeFence:
		return p.feedCodeFence(ln)
	}
	return p.structural(ln)
}

func (p *parser) feedStart(ln Line) error {
	switch ln.Kind {
	case LineBlank:
		return nil
	case LineCategoryHeader:
		p.openCategory(ln.Path)
		return nil
	}
	return p.structural(ln)
}

func (p *parser) feedCategory(ln Line) error {
	switch ln.Kind {
	case LineBlank, LineText:
		// Prose between a category header and the first question carries
		// no meaning and is dropped.
		return nil
	case LineCategoryHeader:
		p.openCategory(ln.Path)
		return nil
	case LineQuestionStart:
		p.startQuestion(ln.Text)
		return nil
	}
	return p.structural(ln)
}

func (p *parser) feedQuestionBody(ln Line) error {
	switch ln.Kind {
	case LineText:
		p.question.Body.AppendLine(ln.Text)
		return nil
	case LineBlank:
		p.question.Body.AppendLine("")
		return nil
	case LineAnswer:
		p.appendAnswer(ln)
		p.state = StateAnswers
		return nil
	case LineFenceOpen:
		p.pushFence(ln)
		return nil
	}
	return p.structural(ln)
}

func (p *parser) feedAnswers(ln Line) error {
	switch ln.Kind {
	case LineBlank:
		return nil
	case LineAnswer:
		p.appendAnswer(ln)
		return nil
	case LineText:
		// Continuation line of the current answer.
		p.openBodyRef().AppendLine(ln.Text)
		return nil
	case LineFenceOpen:
		p.pushFence(ln)
		return nil
	case LineQuestionStart:
		if err := p.finalizeQuestion(); err != nil {
			return err
		}
		p.startQuestion(ln.Text)
		return nil
	case LineCategoryHeader:
		if err := p.finalizeQuestion(); err != nil {
			return err
		}
		p.openCategory(ln.Path)
		return nil
	}
	return p.structural(ln)
}

func (p *parser) feedCodeFence(ln Line) error {
	switch ln.Kind {
	case LineFenceClose:
		f := p.fence
		block := &FencedCodeBlock{
			Lexer:   f.lexer,
			Text:    strings.Join(f.lines, "\n"),
			AsImage: f.asImage,
		}
		p.open = f.owner
		p.openBodyRef().AppendCode(block)
		p.state = f.ret
		p.fence = nil
		return nil
	default:
		// Everything else is verbatim, including lines that would be
		// delimiters outside the fence.
		p.fence.lines = append(p.fence.lines, ln.Raw)
		return nil
	}
}

// openCategory opens or reuses the category at path and resets the
// question accumulator.
func (p *parser) openCategory(path string) {
	p.cat = p.doc.EnsureCategory(path)
	p.question = nil
	p.open = openBody{}
	p.state = StateCategory
}

// startQuestion opens a new pending question; trailing becomes its first
// body line.
func (p *parser) startQuestion(trailing string) {
	p.question = &Question{}
	if trailing != "" {
		p.question.Body.AppendLine(trailing)
	}
	p.open = openBody{kind: openQuestion}
	p.state = StateQuestionBody
}

func (p *parser) appendAnswer(ln Line) {
	p.question.Answers = append(p.question.Answers, Answer{Correct: ln.Correct})
	idx := len(p.question.Answers) - 1
	if ln.Text != "" {
		p.question.Answers[idx].Body.AppendLine(ln.Text)
	}
	p.open = openBody{kind: openAnswer, answer: idx}
}

func (p *parser) pushFence(ln Line) {
	p.fence = &fenceFrame{
		ret:     p.state,
		owner:   p.open,
		lexer:   ln.Lexer,
		asImage: ln.AsImage,
		opened:  p.line,
	}
	p.state = StateCodeFence
}

// openBodyRef resolves the currently open body from the builder context.
func (p *parser) openBodyRef() *Body {
	if p.open.kind == openAnswer {
		return &p.question.Answers[p.open.answer].Body
	}
	return &p.question.Body
}

// finalizeQuestion validates the pending question and attaches it to the
// current category. A question needs at least two answers and at least one
// marked correct.
func (p *parser) finalizeQuestion() error {
	if p.question == nil {
		return nil
	}
	q := p.question
	excerpt := bodyExcerpt(&q.Body)

	if len(q.Answers) < 2 {
		return &EmptyAnswerSetError{
			ParseError: ParseError{
				Message: fmt.Sprintf("question %q has %d answer(s), at least 2 required", excerpt, len(q.Answers)),
				Line:    p.line,
			},
			Question: excerpt,
		}
	}
	correct := 0
	for _, a := range q.Answers {
		if a.Correct {
			correct++
		}
	}
	if correct == 0 {
		return &NoCorrectAnswerError{
			ParseError: ParseError{
				Message: fmt.Sprintf("question %q has no correct answer", excerpt),
				Line:    p.line,
			},
			Question: excerpt,
		}
	}

	p.cat.Questions = append(p.cat.Questions, q)
	p.question = nil
	p.open = openBody{}
	return nil
}

// finish handles end-of-input: an open fence is an error, an open question
// finalizes normally.
func (p *parser) finish() error {
	if p.state == StateCodeFence {
		return &UnterminatedFenceError{ParseError{
			Message: "unterminated code fence",
			Line:    p.fence.opened,
		}}
	}
	return p.finalizeQuestion()
}

func (p *parser) structural(ln Line) error {
	return &StructuralError{
		ParseError: ParseError{Line: p.line},
		State:      p.state,
		Got:        ln.Kind,
		Expected:   expectedKinds(p.state),
	}
}

// bodyExcerpt returns a short identifying excerpt of a body for error
// messages.
func bodyExcerpt(b *Body) string {
	text := b.Text()
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return text
}
