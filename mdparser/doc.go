// Package mdparser parses the extended markdown quiz dialect into a
// hierarchical quiz document.
//
// The dialect: '#'-prefixed headers open '/'-joined category paths, '---'
// opens a question, '- ' lines are answers ('!' marks the correct ones),
// triple-backtick fences delimit verbatim code (an '{img}' suffix requests
// rasterization), and HTML comments are discarded.
//
// The parser is structured as two layers:
//
//   - Classify: maps each physical line to a kind plus captured payload
//     using a small ordered matching table.
//   - Parse: a finite-state machine that consumes classified lines, takes
//     exactly one transition per line, and fails with a positioned error
//     when no transition applies.
//
// Usage:
//
//	doc, err := mdparser.Parse(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(doc.Categories), doc.QuestionCount())
//
// All nodes are built in one top-to-bottom pass. The inline package may
// rewrite bodies in place afterward; nothing mutates once serialization
// starts.
package mdparser
