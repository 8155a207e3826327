package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brunomnsilva/markdown2moodle/convert"
	"github.com/brunomnsilva/markdown2moodle/inline"
	"github.com/brunomnsilva/markdown2moodle/mdparser"
	"github.com/brunomnsilva/markdown2moodle/moodle"
	"github.com/brunomnsilva/markdown2moodle/raster"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var convertCmd = &cobra.Command{
	Use:   "convert <quiz.md>",
	Short: "Convert a markdown quiz to Moodle XML",
	Long:  "Parse a markdown quiz file and write one Moodle XML quiz-bank file per top-level category, next to the source file unless --out-dir is given.",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().String("out-dir", "", "Output directory (default: directory of the source file)")
	convertCmd.Flags().Bool("json", false, "Print a JSON object of category to XML on stdout instead of writing files")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	mdFile := args[0]
	verbose := viper.GetBool("verbose")
	jsonOut, _ := cmd.Flags().GetBool("json")
	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" {
		outDir = filepath.Dir(mdFile)
	}

	src, err := os.ReadFile(mdFile)
	if err != nil {
		return fail(fmt.Errorf("reading quiz file: %w", err))
	}

	highlighter, err := raster.New(raster.Options{
		FontSize:    viper.GetFloat64("font_size"),
		LineNumbers: viper.GetBool("line_numbers"),
		DumpDir:     viper.GetString("dump_images"),
	})
	if err != nil {
		return fail(err)
	}

	emitter := convert.NewEventEmitter()
	if verbose {
		emitter.On(terminalEventListener())
	}

	opts := convert.Options{
		Inline: inline.Config{
			TableBorder: viper.GetBool("table_border"),
			BaseDir:     filepath.Dir(mdFile),
			Rasterizer:  highlighter,
		},
		Moodle: moodle.Config{
			Numbering:      moodle.Numbering(viper.GetString("answer_numbering")),
			ShuffleAnswers: viper.GetBool("shuffle"),
			Penalty:        viper.GetFloat64("penalty"),
		},
		Emitter: emitter,
	}

	result, err := convert.Run(src, mdFile, opts)
	if err != nil {
		return fail(err)
	}

	if jsonOut {
		byCategory := make(map[string]string, len(result.Artifacts))
		for _, a := range result.Artifacts {
			byCategory[a.Category] = string(a.XML)
		}
		out, err := json.MarshalIndent(byCategory, "", "  ")
		if err != nil {
			return fail(err)
		}
		fmt.Println(string(out))
		return nil
	}

	for _, a := range result.Artifacts {
		path := filepath.Join(outDir, a.FileName)
		if err := os.WriteFile(path, a.XML, 0o644); err != nil {
			return fail(fmt.Errorf("writing %s: %w", path, err))
		}
		emitter.Emit(convert.ArtifactWrittenEvent(path, len(a.XML)))
		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	}
	fmt.Fprintln(os.Stderr, "XML file(s) successfully generated")
	return nil
}

// fail prints the diagnostic and returns err so the process exits non-zero.
// Parse errors carry a source position and render as
// "Error at line <N>: <message>".
func fail(err error) error {
	var perr mdparser.Error
	if errors.As(err, &perr) {
		// perr.Error() is "line <N>: <message>".
		fmt.Fprintf(os.Stderr, "Error at %s\n", perr.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// terminalEventListener prints conversion progress to stderr.
func terminalEventListener() func(convert.Event) {
	return func(e convert.Event) {
		switch e.Type {
		case convert.EventRunStarted:
			source, _ := e.Data["source"].(string)
			fmt.Fprintf(os.Stderr, "[convert] Starting: %s\n", source)

		case convert.EventDocumentParsed:
			categories, _ := e.Data["categories"].(int)
			questions, _ := e.Data["questions"].(int)
			fmt.Fprintf(os.Stderr, "[parse] %d top-level categories, %d questions\n", categories, questions)

		case convert.EventAssetEmbedded:
			target, _ := e.Data["target"].(string)
			fmt.Fprintf(os.Stderr, "[asset] embedded %s\n", target)

		case convert.EventCodeRasterized:
			lexer, _ := e.Data["lexer"].(string)
			if lexer == "" {
				lexer = raster.DefaultLexer
			}
			fmt.Fprintf(os.Stderr, "[raster] %s code block\n", lexer)

		case convert.EventCategorySerialized:
			category, _ := e.Data["category"].(string)
			questions, _ := e.Data["questions"].(int)
			fmt.Fprintf(os.Stderr, "[xml] category %q (%d questions)\n", category, questions)

		case convert.EventArtifactWritten:
			path, _ := e.Data["path"].(string)
			size, _ := e.Data["size"].(int)
			fmt.Fprintf(os.Stderr, "[write] %s (%d bytes)\n", path, size)

		case convert.EventRunFailed:
			errMsg, _ := e.Data["error"].(string)
			fmt.Fprintf(os.Stderr, "[convert] Failed: %s\n", errMsg)

		case convert.EventRunCompleted:
			count, _ := e.Data["artifact_count"].(int)
			fmt.Fprintf(os.Stderr, "[convert] Completed, %d artifact(s)\n", count)
		}
	}
}
