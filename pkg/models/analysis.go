package models

// Page is one page of OCR output.
type Page struct {
	PageNumber int     `json:"pageNumber"` // 1-based, contiguous
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
}

// OCRResult is the normalized output of any OCR provider.
type OCRResult struct {
	RawText string `json:"rawText"`
	Pages   []Page `json:"pages"`
}

// Entities groups the named things a summary picked out of the text.
type Entities struct {
	Dates         []string `json:"dates"`
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Amounts       []string `json:"amounts"`
}

// SummaryResult is the structured analysis produced by the summarizer.
type SummaryResult struct {
	ExecutiveSummary string   `json:"executiveSummary"`
	BulletPoints     []string `json:"bulletPoints"`
	KeyTopics        []string `json:"keyTopics"`
	Entities         Entities `json:"entities"`
}

// AnalysisResponse is returned by the process endpoint. It is never persisted.
type AnalysisResponse struct {
	RawText      string        `json:"rawText"`
	CleanExtract string        `json:"cleanExtract"`
	Pages        []Page        `json:"pages"`
	WordCount    int           `json:"wordCount"`
	Confidence   float64       `json:"confidence"`
	Summary      SummaryResult `json:"summary"`
}

// EmptySummary returns a summary with every list initialized, so it encodes
// as [] rather than null.
func EmptySummary() SummaryResult {
	return SummaryResult{
		BulletPoints: []string{},
		KeyTopics:    []string{},
		Entities:     EmptyEntities(),
	}
}

// EmptyEntities returns Entities with every list initialized.
func EmptyEntities() Entities {
	return Entities{
		Dates:         []string{},
		People:        []string{},
		Organizations: []string{},
		Amounts:       []string{},
	}
}
