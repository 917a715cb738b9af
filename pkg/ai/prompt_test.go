package ai

import (
	"strings"
	"testing"
)

func TestParseAnalysis(t *testing.T) {
	valid := map[string]bool{"cat-1": true, "cat-2": true}

	tests := []struct {
		name         string
		text         string
		wantCategory string // "" means nil
		wantSummary  string
		wantScore    int
		wantFlags    []string
	}{
		{
			name:         "well formed",
			text:         `{"category_id": "cat-1", "summary": "An invoice is due.", "priority_score": 80, "important_flags": ["payment", "deadline"]}`,
			wantCategory: "cat-1",
			wantSummary:  "An invoice is due.",
			wantScore:    80,
			wantFlags:    []string{"payment", "deadline"},
		},
		{
			name:        "markdown fenced",
			text:        "```json\n{\"category_id\": null, \"summary\": \"Weekly digest.\", \"priority_score\": 20, \"important_flags\": []}\n```",
			wantSummary: "Weekly digest.",
			wantScore:   20,
			wantFlags:   []string{},
		},
		{
			name:        "prose around json",
			text:        `Here is the analysis: {"summary": "Meeting moved.", "priority_score": 65} hope that helps`,
			wantSummary: "Meeting moved.",
			wantScore:   65,
			wantFlags:   []string{},
		},
		{
			name:      "unparseable degrades to neutral",
			text:      "I cannot analyze this email.",
			wantScore: 50,
			wantFlags: []string{},
		},
		{
			name:      "empty input",
			text:      "",
			wantScore: 50,
			wantFlags: []string{},
		},
		{
			name:        "score clamped high",
			text:        `{"summary": "urgent", "priority_score": 900}`,
			wantSummary: "urgent",
			wantScore:   100,
			wantFlags:   []string{},
		},
		{
			name:        "score clamped low",
			text:        `{"summary": "spam", "priority_score": -5}`,
			wantSummary: "spam",
			wantScore:   0,
			wantFlags:   []string{},
		},
		{
			name:        "missing score defaults to 50",
			text:        `{"summary": "no score here"}`,
			wantSummary: "no score here",
			wantScore:   50,
			wantFlags:   []string{},
		},
		{
			name:        "unknown category dropped",
			text:        `{"category_id": "made-up", "summary": "x", "priority_score": 10}`,
			wantSummary: "x",
			wantScore:   10,
			wantFlags:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnalysis(tt.text, valid)

			if tt.wantCategory == "" {
				if got.CategoryID != nil {
					t.Errorf("CategoryID = %q, want nil", *got.CategoryID)
				}
			} else if got.CategoryID == nil || *got.CategoryID != tt.wantCategory {
				t.Errorf("CategoryID = %v, want %q", got.CategoryID, tt.wantCategory)
			}
			if got.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.wantSummary)
			}
			if got.PriorityScore != tt.wantScore {
				t.Errorf("PriorityScore = %d, want %d", got.PriorityScore, tt.wantScore)
			}
			if len(got.ImportantFlags) != len(tt.wantFlags) {
				t.Fatalf("ImportantFlags = %v, want %v", got.ImportantFlags, tt.wantFlags)
			}
			for i := range tt.wantFlags {
				if got.ImportantFlags[i] != tt.wantFlags[i] {
					t.Errorf("ImportantFlags = %v, want %v", got.ImportantFlags, tt.wantFlags)
				}
			}
		})
	}
}

func TestParseAnalysisFlagsNeverNil(t *testing.T) {
	got := ParseAnalysis(`{"summary": "s", "priority_score": 30}`, nil)
	if got.ImportantFlags == nil {
		t.Fatal("ImportantFlags must be an empty slice, not nil")
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	req := &AnalysisRequest{
		Subject: "Your order shipped",
		From:    "shop@example.com",
		Body:    "Tracking number 1Z999",
		Categories: []CategoryOption{
			{ID: "cat-1", Name: "Shopping", Description: "Order confirmations"},
			{ID: "cat-2", Name: "Work"},
		},
	}

	prompt := buildAnalysisPrompt(req)
	for _, want := range []string{"cat-1", "Shopping", "Order confirmations", "cat-2", "Your order shipped", "shop@example.com", "Tracking number 1Z999"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPromptTruncatesBody(t *testing.T) {
	req := &AnalysisRequest{
		Subject: "s",
		Body:    strings.Repeat("a", maxBodyChars+500),
	}
	prompt := buildAnalysisPrompt(req)
	if strings.Contains(prompt, strings.Repeat("a", maxBodyChars+1)) {
		t.Error("body was not truncated")
	}
}
