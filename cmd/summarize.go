package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scribeai/internal/logger"
	"scribeai/internal/summarizer"
	"scribeai/internal/textclean"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [text-file|-]",
	Short: "Clean a text file and summarize it with Gemini",
	Long: `Clean OCR text and produce a structured JSON summary with an executive
summary, bullet points, key topics and entities.

Reads from stdin when the argument is "-" or missing. Needs GEMINI_API_KEY.`,
	Example: `  scribeai ocr notes.pdf | scribeai summarize
  scribeai summarize notes.txt -o summary.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	summarizeCmd.Flags().Bool("raw", false, "Skip text cleaning")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("summarize")

	outputPath, _ := cmd.Flags().GetString("output")
	raw, _ := cmd.Flags().GetBool("raw")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	var (
		input []byte
		err   error
	)
	if len(args) == 0 || args[0] == "-" {
		input, err = io.ReadAll(cmd.InOrStdin())
	} else {
		input, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	text := string(input)
	if !raw {
		text = textclean.Clean(text)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to summarize")
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	s, err := summarizer.EnvFactory(ctx)
	if err != nil {
		return explainError(err, log)
	}

	result, err := s.Summarize(ctx, text)
	if err != nil {
		return explainError(err, log)
	}

	data, err := marshalIndent(result)
	if err != nil {
		return err
	}
	return writeOutput(data, outputPath, log)
}
