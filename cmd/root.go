package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"scribeai/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "scribeai",
	Short: "ScribeAI - OCR and summarization for handwritten notes",
	Long: `ScribeAI turns scanned or handwritten PDF documents into clean text and a
structured summary.

Run "scribeai serve" to start the web application, or use the ocr,
summarize and process commands to run the pipeline from the terminal.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("ScribeAI CLI executed")

		fmt.Println("Welcome to ScribeAI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
	rootCmd.PersistentFlags().Int("timeout", 300, "Processing timeout in seconds")
}
