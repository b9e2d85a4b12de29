package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribeai/internal/logger"
	"scribeai/internal/ocr"
	"scribeai/internal/pipeline"
	"scribeai/pkg/models"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [pdf-file]",
	Short: "Extract text from a PDF with one of the OCR providers",
	Long: `Run OCR on a PDF file and print the extracted text.

Providers:
  gemini      Multimodal model via OpenRouter (default). Needs OPENROUTER_API_KEY.
  documentai  Google Cloud Document AI. Needs GOOGLE_PROJECT_ID and
              DOCUMENT_AI_PROCESSOR_ID plus Google credentials.
  vision      Google Cloud Vision. Needs Google credentials, max 5 pages.

Google credentials come from GOOGLE_CREDENTIALS (inline JSON),
GOOGLE_APPLICATION_CREDENTIALS (file path) or application default credentials.`,
	Example: `  # Extract text from notes.pdf to stdout
  scribeai ocr notes.pdf

  # Use Document AI and write per-page JSON to a file
  scribeai ocr notes.pdf --provider documentai --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Provider           string        `json:"provider"`
	RawText            string        `json:"rawText"`
	Pages              []models.Page `json:"pages"`
	Confidence         float64       `json:"confidence"`
	ProcessingDuration string        `json:"processing_duration"`
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().StringP("provider", "p", string(ocr.ProviderGemini), "OCR provider: gemini, documentai or vision")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	providerFlag, _ := cmd.Flags().GetString("provider")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]
	name := ocr.ParseProviderName(providerFlag)

	log.Info().
		Str("file", pdfPath).
		Str("provider", string(name)).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	fileInfo, err := validatePDFFile(pdfPath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}

	provider, err := ocr.EnvFactory{}.NewProvider(ctx, name, nil)
	if err != nil {
		return explainError(err, log)
	}
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR provider")
		}
	}()

	startTime := time.Now()
	result, err := provider.Extract(ctx, pdf)
	if err != nil {
		return explainError(err, log)
	}
	duration := time.Since(startTime)

	confidence := pipeline.AverageConfidence(result.Pages)
	log.Info().
		Int("page_count", len(result.Pages)).
		Float64("confidence", confidence).
		Dur("duration", duration).
		Int("text_length", len(result.RawText)).
		Msg("OCR processing completed successfully")

	var data []byte
	if jsonOutput {
		data, err = marshalIndent(OCROutput{
			Provider:           string(name),
			RawText:            result.RawText,
			Pages:              result.Pages,
			Confidence:         confidence,
			ProcessingDuration: duration.String(),
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
		})
		if err != nil {
			return err
		}
	} else {
		data = []byte(strings.TrimRight(result.RawText, "\n") + "\n")
	}

	return writeOutput(data, outputPath, log)
}
