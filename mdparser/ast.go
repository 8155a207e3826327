package mdparser

import "strings"

// Document is the complete parsed representation of a quiz source file.
type Document struct {
	Categories []*Category // top-level categories in declaration order

	byPath map[string]*Category
}

// Category is a named, possibly nested grouping of questions. Name is the
// last path segment; Path is the full '/'-joined path from the root.
type Category struct {
	Name      string
	Path      string
	Children  []*Category
	Questions []*Question
}

// Question is a gradable prompt: a rich-text body plus an ordered list of
// answers. Answers are held by value; any "current answer" reference during
// parsing is an index into this slice.
type Question struct {
	Body    Body
	Answers []Answer
}

// Answer is one selectable option of a question. Feedback is a reserved
// extension point; the input grammar has no syntax for it yet.
type Answer struct {
	Body     Body
	Correct  bool
	Feedback string
}

// SegmentKind discriminates the Segment tagged union.
type SegmentKind int

const (
	SegmentText  SegmentKind = iota // markdown text lines
	SegmentCode                     // fenced code block
	SegmentImage                    // embedded binary asset
)

// Segment is one piece of a body. Kind determines which field is populated.
type Segment struct {
	Kind  SegmentKind
	Text  string           // SegmentText
	Code  *FencedCodeBlock // SegmentCode
	Asset *InlineAsset     // SegmentImage
}

// Body is rich-text content owned by a question or an answer: an ordered
// sequence of text, code, and asset segments.
type Body struct {
	Segments []Segment
}

// AppendLine appends one source line to the body, merging consecutive text
// lines into a single text segment.
func (b *Body) AppendLine(line string) {
	if n := len(b.Segments); n > 0 && b.Segments[n-1].Kind == SegmentText {
		b.Segments[n-1].Text += "\n" + line
		return
	}
	b.Segments = append(b.Segments, Segment{Kind: SegmentText, Text: line})
}

// AppendCode attaches a fenced code block to the body.
func (b *Body) AppendCode(c *FencedCodeBlock) {
	b.Segments = append(b.Segments, Segment{Kind: SegmentCode, Code: c})
}

// Text returns the concatenated plain-text content of the body, code blocks
// included. Used for question naming and diagnostics, not for rendering.
func (b *Body) Text() string {
	var sb strings.Builder
	for _, s := range b.Segments {
		switch s.Kind {
		case SegmentText:
			sb.WriteString(s.Text)
		case SegmentCode:
			sb.WriteString(s.Code.Text)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// FencedCodeBlock is a delimited block of verbatim source text.
type FencedCodeBlock struct {
	Lexer   string // lexer tag from the opening fence, may be empty
	Text    string // verbatim content, lines joined with '\n'
	AsImage bool   // render as a rasterized image instead of plain text
}

// InlineAsset is a binary payload embedded in a body. The payload is
// consumed exactly once, during serialization, and not retained afterward.
type InlineAsset struct {
	MIME string
	data []byte
}

// NewInlineAsset wraps a binary payload with its MIME type.
func NewInlineAsset(mime string, data []byte) *InlineAsset {
	return &InlineAsset{MIME: mime, data: data}
}

// Consume returns the payload and releases it. Subsequent calls return nil.
func (a *InlineAsset) Consume() []byte {
	d := a.data
	a.data = nil
	return d
}

// Consumed reports whether the payload has already been taken.
func (a *InlineAsset) Consumed() bool { return a.data == nil }

// EnsureCategory returns the category with the given '/'-joined path,
// creating it and every missing ancestor. Paths are unique within a
// document; referencing an existing path returns the existing node.
func (d *Document) EnsureCategory(path string) *Category {
	if d.byPath == nil {
		d.byPath = make(map[string]*Category)
	}
	if c, ok := d.byPath[path]; ok {
		return c
	}

	var parent *Category
	var cur *Category
	segments := strings.Split(path, "/")
	for i, name := range segments {
		full := strings.Join(segments[:i+1], "/")
		if c, ok := d.byPath[full]; ok {
			parent, cur = c, c
			continue
		}
		cur = &Category{Name: name, Path: full}
		d.byPath[full] = cur
		if parent == nil {
			d.Categories = append(d.Categories, cur)
		} else {
			parent.Children = append(parent.Children, cur)
		}
		parent = cur
	}
	return cur
}

// CategoryByPath returns the category with the given path, or nil.
func (d *Document) CategoryByPath(path string) *Category {
	return d.byPath[path]
}

// Walk visits c and every descendant category in pre-order.
func (c *Category) Walk(fn func(*Category)) {
	fn(c)
	for _, child := range c.Children {
		child.Walk(fn)
	}
}

// QuestionCount returns the total number of questions in the document.
func (d *Document) QuestionCount() int {
	n := 0
	for _, top := range d.Categories {
		top.Walk(func(c *Category) { n += len(c.Questions) })
	}
	return n
}
