package mdparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinimalQuiz(t *testing.T) {
	src := `# Cat
---
Q1
- A
- !B
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, doc.Categories, 1)

	cat := doc.Categories[0]
	assert.Equal(t, "Cat", cat.Name)
	require.Len(t, cat.Questions, 1)

	q := cat.Questions[0]
	assert.Equal(t, "Q1", q.Body.Text())
	require.Len(t, q.Answers, 2)
	assert.Equal(t, "A", q.Answers[0].Body.Text())
	assert.False(t, q.Answers[0].Correct)
	assert.Equal(t, "B", q.Answers[1].Body.Text())
	assert.True(t, q.Answers[1].Correct)
}

func TestParseQuestionTrailingContent(t *testing.T) {
	src := `# Cat
--- What is TCP?
- !A protocol
- A sandwich
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	q := doc.Categories[0].Questions[0]
	assert.Equal(t, "What is TCP?", q.Body.Text())
}

func TestParseDuplicateCategoryPathsMerge(t *testing.T) {
	src := `# Cat
---
Q1
- y
- !x

# Other
---
Q2
- y
- !x

# Cat
---
Q3
- y
- !x
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, doc.Categories, 2)

	cat := doc.CategoryByPath("Cat")
	require.NotNil(t, cat)
	assert.Len(t, cat.Questions, 2)
	assert.Len(t, doc.CategoryByPath("Other").Questions, 1)
}

func TestParseNestedCategoryCreatesAncestors(t *testing.T) {
	src := `# A/B/C
---
Q1
- y
- !x
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, doc.Categories, 1)

	a := doc.Categories[0]
	assert.Equal(t, "A", a.Name)
	assert.Empty(t, a.Questions)
	require.Len(t, a.Children, 1)

	b := a.Children[0]
	assert.Equal(t, "A/B", b.Path)
	require.Len(t, b.Children, 1)

	c := b.Children[0]
	assert.Equal(t, "A/B/C", c.Path)
	assert.Len(t, c.Questions, 1)

	// Reopening an ancestor reuses the existing node.
	assert.Same(t, a, doc.EnsureCategory("A"))
}

func TestParseGluedCorrectAnswerByState(t *testing.T) {
	// Inside an answer list '-!B' is a correct answer.
	src := `# Cat
---
Q
- A
-!B
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	q := doc.Categories[0].Questions[0]
	require.Len(t, q.Answers, 2)
	assert.True(t, q.Answers[1].Correct)

	// Directly after a category header, with no open question, the same
	// line has no valid transition.
	_, err = Parse([]byte("# Cat\n-!B\n"))
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 2, serr.Line)
	assert.Equal(t, LineAnswer, serr.Got)
	assert.Contains(t, serr.Expected, LineQuestionStart)
}

func TestParseCodeFenceInQuestionBody(t *testing.T) {
	src := "# Cat\n---\nWhat does this print?\n```go\nfmt.Println(\"# not a header\")\n---\n```\n- nothing\n- !something\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	q := doc.Categories[0].Questions[0]
	require.Len(t, q.Body.Segments, 2)
	assert.Equal(t, SegmentText, q.Body.Segments[0].Kind)

	code := q.Body.Segments[1]
	require.Equal(t, SegmentCode, code.Kind)
	assert.Equal(t, "go", code.Code.Lexer)
	assert.False(t, code.Code.AsImage)
	assert.Equal(t, "fmt.Println(\"# not a header\")\n---", code.Code.Text)
}

func TestParseCodeFenceInAnswer(t *testing.T) {
	src := "# Cat\n---\nQ\n- !this one\n```\nx := 1\n```\n- other\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	q := doc.Categories[0].Questions[0]
	require.Len(t, q.Answers, 2)

	first := q.Answers[0]
	require.Len(t, first.Body.Segments, 2)
	assert.Equal(t, SegmentCode, first.Body.Segments[1].Kind)
	assert.Equal(t, "x := 1", first.Body.Segments[1].Code.Text)
}

func TestParseUnterminatedFence(t *testing.T) {
	src := "# Cat\n---\nQ\n```pascal{img}\nwriteln('hi');\n"
	_, err := Parse([]byte(src))

	var ferr *UnterminatedFenceError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, 4, ferr.Line, "error points at the opening fence")
}

func TestParseHTMLCommentDiscarded(t *testing.T) {
	src := "# Cat\n---\nQ1\n<!-- note -->\n- A\n<!-- another note -->\n- !B\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	q := doc.Categories[0].Questions[0]
	assert.Equal(t, "Q1", q.Body.Text())
	assert.NotContains(t, q.Body.Text(), "note")
	require.Len(t, q.Answers, 2)
}

func TestParseTextBetweenHeaderAndQuestionIgnored(t *testing.T) {
	src := "# Cat\nsome prose that is dropped\n---\nQ\n- A\n- !B\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	q := doc.Categories[0].Questions[0]
	assert.Equal(t, "Q", q.Body.Text())
}

func TestParseAnswerContinuationLines(t *testing.T) {
	src := "# Cat\n---\nQ\n- first answer\n  continued here\n- !B\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	q := doc.Categories[0].Questions[0]
	assert.Equal(t, "first answer\n  continued here", q.Answers[0].Body.Text())
}

func TestParseHeaderInsideQuestionBodyFails(t *testing.T) {
	src := "# Cat\n---\nQ\n# Nope\n"
	_, err := Parse([]byte(src))

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 4, serr.Line)
	assert.Equal(t, LineCategoryHeader, serr.Got)
}

func TestParseQuestionStartInsideBodyFails(t *testing.T) {
	src := "# Cat\n---\nQ\n---\n"
	_, err := Parse([]byte(src))

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, LineQuestionStart, serr.Got)
}

func TestParseQuestionBeforeCategoryFails(t *testing.T) {
	_, err := Parse([]byte("---\nQ\n- A\n- !B\n"))

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, serr.Line)
	assert.Equal(t, []LineKind{LineCategoryHeader}, serr.Expected)
}

func TestParseSingleAnswerRejected(t *testing.T) {
	_, err := Parse([]byte("# Cat\n---\nQ\n- !only\n"))

	var eerr *EmptyAnswerSetError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "Q", eerr.Question)
}

func TestParseNoCorrectAnswerRejected(t *testing.T) {
	_, err := Parse([]byte("# Cat\n---\nQ\n- A\n- B\n"))

	var nerr *NoCorrectAnswerError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Q", nerr.Question)
}

func TestParseNoCorrectAnswerAtBoundary(t *testing.T) {
	// The broken question is detected when the next one opens, not at EOF.
	src := "# Cat\n---\nQ1\n- A\n- B\n---\nQ2\n- C\n- !D\n"
	_, err := Parse([]byte(src))

	var nerr *NoCorrectAnswerError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, 6, nerr.Line)
}

func TestParseCRLFInput(t *testing.T) {
	src := "# Cat\r\n---\r\nQ1\r\n- A\r\n- !B\r\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Q1", doc.Categories[0].Questions[0].Body.Text())
}

func TestParseMultilineQuestionBody(t *testing.T) {
	src := "# Cat\n---\nfirst line\n\nsecond paragraph\n- A\n- !B\n"
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	q := doc.Categories[0].Questions[0]
	require.Len(t, q.Body.Segments, 1)
	assert.Equal(t, "first line\n\nsecond paragraph", q.Body.Segments[0].Text)
}

func TestParseErrorImplementsSourceLine(t *testing.T) {
	_, err := Parse([]byte("---\n"))
	var perr Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.SourceLine())
}

func TestInlineAssetConsumeOnce(t *testing.T) {
	a := NewInlineAsset("image/png", []byte{1, 2, 3})
	assert.False(t, a.Consumed())
	assert.Equal(t, []byte{1, 2, 3}, a.Consume())
	assert.True(t, a.Consumed())
	assert.Nil(t, a.Consume())
}
