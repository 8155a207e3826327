package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "md2moodle",
	Short:         "Markdown quiz to Moodle XML converter",
	Long:          "md2moodle parses quizzes written in an extended markdown dialect and produces Moodle XML quiz-bank files, one per top-level category.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("answer-numbering", "abc", "Answer numbering style: none, abc, ABCD or 123")
	rootCmd.PersistentFlags().Bool("shuffle", true, "Let Moodle shuffle answers")
	rootCmd.PersistentFlags().Float64("penalty", 0, "Wrong-answer penalty weight in [0,1]")
	rootCmd.PersistentFlags().Bool("table-border", false, "Render resolved tables with a border")
	rootCmd.PersistentFlags().Float64("font-size", 16, "Font size for rasterized code blocks")
	rootCmd.PersistentFlags().Bool("line-numbers", false, "Draw line numbers in rasterized code blocks")
	rootCmd.PersistentFlags().String("dump-images", "", "Also write rasterized images to this directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose progress output")

	_ = viper.BindPFlag("answer_numbering", rootCmd.PersistentFlags().Lookup("answer-numbering"))
	_ = viper.BindPFlag("shuffle", rootCmd.PersistentFlags().Lookup("shuffle"))
	_ = viper.BindPFlag("penalty", rootCmd.PersistentFlags().Lookup("penalty"))
	_ = viper.BindPFlag("table_border", rootCmd.PersistentFlags().Lookup("table-border"))
	_ = viper.BindPFlag("font_size", rootCmd.PersistentFlags().Lookup("font-size"))
	_ = viper.BindPFlag("line_numbers", rootCmd.PersistentFlags().Lookup("line-numbers"))
	_ = viper.BindPFlag("dump_images", rootCmd.PersistentFlags().Lookup("dump-images"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	viper.SetEnvPrefix("MD2MOODLE")
	viper.AutomaticEnv()
}
