package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxBodyChars = 4000

// buildAnalysisPrompt renders the combined analysis prompt shared by all
// providers so their outputs stay comparable.
func buildAnalysisPrompt(req *AnalysisRequest) string {
	var categories strings.Builder
	for _, c := range req.Categories {
		if c.Description != "" {
			fmt.Fprintf(&categories, "- id=%q name=%q: %s\n", c.ID, c.Name, c.Description)
		} else {
			fmt.Fprintf(&categories, "- id=%q name=%q\n", c.ID, c.Name)
		}
	}
	if categories.Len() == 0 {
		categories.WriteString("(none defined)\n")
	}

	body := req.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	return fmt.Sprintf(`You are an email triage assistant. Analyze the email below and respond with ONLY a JSON object, no other text.

JSON fields:
- "category_id": the id of the best matching category from the list, or null if none fits
- "summary": one or two sentences capturing what the email is about and any required action
- "priority_score": integer 0-100, where 0 is ignorable and 100 is urgent and personal
- "important_flags": array chosen from ["deadline", "meeting", "payment", "security", "personal", "action_required"], empty if none apply

CATEGORIES:
%s
EMAIL:
From: %s
Subject: %s

%s

JSON OUTPUT:`, categories.String(), req.From, req.Subject, body)
}

// ParseAnalysis extracts a structured analysis from raw model output.
// It never fails: an unparseable response degrades to a neutral analysis
// (score 50, no category, no flags) so one bad completion cannot sink an
// import run. Category ids outside validIDs are dropped, scores are clamped
// to [0, 100].
func ParseAnalysis(text string, validIDs map[string]bool) *EmailAnalysis {
	analysis := &EmailAnalysis{
		PriorityScore:  50,
		ImportantFlags: []string{},
	}

	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return analysis
	}
	text = text[jsonStart : jsonEnd+1]

	var raw struct {
		CategoryID     *string  `json:"category_id"`
		Summary        string   `json:"summary"`
		PriorityScore  *int     `json:"priority_score"`
		ImportantFlags []string `json:"important_flags"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return analysis
	}

	analysis.Summary = strings.TrimSpace(raw.Summary)

	if raw.PriorityScore != nil {
		score := *raw.PriorityScore
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		analysis.PriorityScore = score
	}

	if raw.CategoryID != nil && validIDs[*raw.CategoryID] {
		analysis.CategoryID = raw.CategoryID
	}

	if len(raw.ImportantFlags) > 0 {
		analysis.ImportantFlags = raw.ImportantFlags
	}

	return analysis
}

func validCategoryIDs(categories []CategoryOption) map[string]bool {
	ids := make(map[string]bool, len(categories))
	for _, c := range categories {
		ids[c.ID] = true
	}
	return ids
}
