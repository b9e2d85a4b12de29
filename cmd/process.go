package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scribeai/internal/config"
	"scribeai/internal/logger"
	"scribeai/internal/ocr"
	"scribeai/internal/pipeline"
	"scribeai/internal/storage"
	"scribeai/internal/summarizer"
)

var processCmd = &cobra.Command{
	Use:   "process [pdf-file]",
	Short: "Run the full OCR, cleaning and summarization pipeline on a PDF",
	Long: `Run the same pipeline as the web application and print the analysis as
JSON. The PDF is copied into the upload directory first, so the source file
is left in place.`,
	Example: `  scribeai process notes.pdf
  scribeai process notes.pdf --provider vision -o analysis.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	processCmd.Flags().StringP("provider", "p", string(ocr.ProviderGemini), "OCR provider: gemini, documentai or vision")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	outputPath, _ := cmd.Flags().GetString("output")
	provider, _ := cmd.Flags().GetString("provider")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]
	fileInfo, err := validatePDFFile(pdfPath, log)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	f, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	upload, err := store.Save(filepath.Base(pdfPath), fileInfo.Size(), f)
	f.Close()
	if err != nil {
		return err
	}
	// The pipeline removes the copy on success; this covers failures.
	defer store.Remove(upload.Path)

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	processor := pipeline.NewProcessor(store, ocr.EnvFactory{}, summarizer.EnvFactory)
	result, err := processor.Process(ctx, pipeline.Request{
		FilePath:    upload.Path,
		OCRProvider: provider,
	})
	if err != nil {
		return explainError(err, log)
	}

	data, err := marshalIndent(result)
	if err != nil {
		return err
	}
	return writeOutput(data, outputPath, log)
}
