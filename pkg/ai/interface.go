package ai

import "context"

// CategoryOption is a user-defined category offered to the model during
// classification.
type CategoryOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AnalysisRequest carries one email through a single combined analysis call:
// classification, summarization, priority scoring and flag detection.
type AnalysisRequest struct {
	Subject    string
	From       string
	Body       string
	Categories []CategoryOption
}

// EmailAnalysis is the structured result of analyzing one email.
// CategoryID is nil when the model picked no known category.
type EmailAnalysis struct {
	CategoryID     *string  `json:"category_id"`
	Summary        string   `json:"summary"`
	PriorityScore  int      `json:"priority_score"`
	ImportantFlags []string `json:"important_flags"`
}

// Analyzer is the interface for AI email analysis.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type Analyzer interface {
	AnalyzeEmail(ctx context.Context, req *AnalysisRequest) (*EmailAnalysis, error)
	GenerateSynonyms(ctx context.Context, word string) ([]string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
