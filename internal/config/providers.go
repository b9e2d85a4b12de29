package config

// ProviderSettings carries the credentials and endpoints of the remote OCR and
// summarization services. It is resolved per request so that a changed
// environment takes effect without a restart.
type ProviderSettings struct {
	// Google Document AI
	GoogleProjectID       string
	GoogleLocation        string
	DocumentAIProcessorID string

	// Google credentials: inline JSON wins over a file path; both empty
	// means application default credentials.
	GoogleCredentialsJSON string
	GoogleCredentialsFile string

	// OpenRouter multimodal OCR
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string

	// Gemini summarization through its OpenAI-compatible endpoint
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// AppURL is sent to OpenRouter as the HTTP-Referer.
	AppURL string
}

const (
	DefaultGoogleLocation    = "us"
	DefaultOpenRouterModel   = "google/gemini-2.0-flash-lite-001"
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultAppURL            = "http://localhost:3000"
)

// LoadProviders reads ProviderSettings from the environment. Missing keys are
// left empty; each adapter decides what it requires.
func LoadProviders() ProviderSettings {
	return ProviderSettings{
		GoogleProjectID:       firstEnv("GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		GoogleLocation:        getEnv("GOOGLE_LOCATION", getEnv("GOOGLE_CLOUD_LOCATION", DefaultGoogleLocation)),
		DocumentAIProcessorID: firstEnv("DOCUMENT_AI_PROCESSOR_ID", "GOOGLE_PROCESSOR_ID"),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		OpenRouterAPIKey:      getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:       getEnv("OPENROUTER_MODEL", DefaultOpenRouterModel),
		OpenRouterBaseURL:     getEnv("OPENROUTER_BASE_URL", DefaultOpenRouterBaseURL),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", DefaultGeminiBaseURL),
		AppURL:                getEnv("APP_URL", DefaultAppURL),
	}
}
