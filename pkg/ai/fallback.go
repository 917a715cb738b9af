package ai

import (
	"context"
	"fmt"
	"log"
)

// FallbackService implements smart AI provider routing with fallback.
// Gemini is tried first (better quality), Ollama covers quota exhaustion
// and keeps analysis working offline.
type FallbackService struct {
	gemini Analyzer
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini Analyzer, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// AnalyzeEmail tries Gemini first, falls back to Ollama on quota error
func (f *FallbackService) AnalyzeEmail(ctx context.Context, req *AnalysisRequest) (*EmailAnalysis, error) {
	if f.gemini != nil {
		result, err := f.gemini.AnalyzeEmail(ctx, req)
		if err == nil {
			return result, nil
		}

		if IsRateLimited(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
		if f.ollama == nil {
			// Nothing to fall back to, surface the original error so the
			// caller can decide whether to retry.
			return nil, err
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.AnalyzeEmail(ctx, req)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.AnalyzeEmail(ctx, req)
		}

		return nil, fmt.Errorf("ollama analysis failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for analysis")
}

// GenerateSynonyms tries Gemini first (better quality), falls back to Ollama
func (f *FallbackService) GenerateSynonyms(ctx context.Context, word string) ([]string, error) {
	if f.gemini != nil {
		result, err := f.gemini.GenerateSynonyms(ctx, word)
		if err == nil {
			return result, nil
		}

		if IsRateLimited(err) {
			log.Printf("[AI] Gemini quota exhausted for synonyms: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error for synonyms: %v, falling back to Ollama", err)
		}
		if f.ollama == nil {
			return nil, err
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.GenerateSynonyms(ctx, word)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed for synonyms: %v, retrying Gemini", err)
			return f.gemini.GenerateSynonyms(ctx, word)
		}

		return nil, fmt.Errorf("ollama synonyms generation failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for synonyms generation")
}
