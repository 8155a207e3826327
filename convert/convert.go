// Package convert drives one conversion run: parse the quiz source,
// rewrite inline content, serialize to Moodle XML. Progress is observable
// through an EventEmitter.
package convert

import (
	"time"

	"github.com/brunomnsilva/markdown2moodle/inline"
	"github.com/brunomnsilva/markdown2moodle/mdparser"
	"github.com/brunomnsilva/markdown2moodle/moodle"
	"github.com/google/uuid"
)

// Options configure one run. Independent runs share no mutable state and
// may use the same Options value.
type Options struct {
	Inline  inline.Config
	Moodle  moodle.Config
	Emitter *EventEmitter // optional
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string
	Document  *mdparser.Document
	Artifacts []moodle.Artifact
}

// Run converts one quiz source document. sourceName is used for output
// file naming and diagnostics only; reading the source is the caller's
// concern. The first error aborts the run.
func Run(src []byte, sourceName string, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	opts.Emitter.Emit(RunStartedEvent(sourceName, runID))

	fail := func(err error) (*Result, error) {
		opts.Emitter.Emit(RunFailedEvent(err.Error(), time.Since(start)))
		return nil, err
	}

	doc, err := mdparser.Parse(src)
	if err != nil {
		return fail(err)
	}
	opts.Emitter.Emit(DocumentParsedEvent(len(doc.Categories), doc.QuestionCount()))

	if err := inline.Process(doc, withEventHooks(opts.Inline, opts.Emitter)); err != nil {
		return fail(err)
	}

	artifacts, err := moodle.Serialize(doc, sourceName, opts.Moodle)
	if err != nil {
		return fail(err)
	}
	for _, a := range artifacts {
		opts.Emitter.Emit(CategorySerializedEvent(a.Category, a.Questions))
	}

	opts.Emitter.Emit(RunCompletedEvent(time.Since(start), len(artifacts)))
	return &Result{RunID: runID, Document: doc, Artifacts: artifacts}, nil
}

// withEventHooks chains event emission onto any hooks the caller set.
func withEventHooks(cfg inline.Config, emitter *EventEmitter) inline.Config {
	if emitter == nil {
		return cfg
	}
	prev := cfg.Hooks
	cfg.Hooks = inline.Hooks{
		AssetEmbedded: func(target string) {
			if prev.AssetEmbedded != nil {
				prev.AssetEmbedded(target)
			}
			emitter.Emit(AssetEmbeddedEvent(target))
		},
		CodeRasterized: func(lexer string) {
			if prev.CodeRasterized != nil {
				prev.CodeRasterized(lexer)
			}
			emitter.Emit(CodeRasterizedEvent(lexer))
		},
	}
	return cfg
}
