package ai

import (
	"context"
	"errors"
	"testing"
)

type stubAnalyzer struct {
	result *EmailAnalysis
	err    error
	calls  int
}

func (s *stubAnalyzer) AnalyzeEmail(ctx context.Context, req *AnalysisRequest) (*EmailAnalysis, error) {
	s.calls++
	return s.result, s.err
}
func (s *stubAnalyzer) GenerateSynonyms(ctx context.Context, word string) ([]string, error) {
	s.calls++
	return nil, s.err
}

func TestFallbackUsesGeminiResult(t *testing.T) {
	gemini := &stubAnalyzer{result: &EmailAnalysis{Summary: "ok"}}
	f := NewFallbackService(gemini, nil)

	got, err := f.AnalyzeEmail(context.Background(), &AnalysisRequest{Subject: "s"})
	if err != nil {
		t.Fatalf("AnalyzeEmail() error = %v", err)
	}
	if got.Summary != "ok" {
		t.Errorf("Summary = %q, want ok", got.Summary)
	}
	if gemini.calls != 1 {
		t.Errorf("gemini calls = %d, want 1", gemini.calls)
	}
}

func TestFallbackPropagatesRateLimitWithoutOllama(t *testing.T) {
	// With no fallback provider, the rate-limit error must reach the
	// caller intact so the backoff executor can classify it.
	quotaErr := errors.New("429 too many requests")
	gemini := &stubAnalyzer{err: quotaErr}
	f := NewFallbackService(gemini, nil)

	_, err := f.AnalyzeEmail(context.Background(), &AnalysisRequest{Subject: "s"})
	if !errors.Is(err, quotaErr) {
		t.Fatalf("error = %v, want original quota error", err)
	}
	if !IsRateLimited(err) {
		t.Error("propagated error lost its rate-limit classification")
	}
}

func TestFallbackNoProviders(t *testing.T) {
	f := NewFallbackService(nil, nil)
	if _, err := f.AnalyzeEmail(context.Background(), &AnalysisRequest{}); err == nil {
		t.Fatal("expected error with no providers configured")
	}
}
