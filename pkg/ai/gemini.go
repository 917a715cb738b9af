package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GeminiService implements Analyzer using the Gemini REST API.
type GeminiService struct {
	apiKey string
	client *http.Client
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{
		apiKey: apiKey,
		client: &http.Client{},
	}
}

// AnalyzeEmail runs classification, summarization, scoring and flag
// detection in a single generateContent call.
func (g *GeminiService) AnalyzeEmail(ctx context.Context, req *AnalysisRequest) (*EmailAnalysis, error) {
	text, err := g.generate(ctx, buildAnalysisPrompt(req))
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text, validCategoryIDs(req.Categories)), nil
}

// GenerateSynonyms expands a search keyword into related terms for fuzzy
// search. Returns the raw list, capped at 15 by the prompt.
func (g *GeminiService) GenerateSynonyms(ctx context.Context, word string) ([]string, error) {
	prompt := fmt.Sprintf(`List related concepts, specific examples and domain terms for the keyword %q in the context of work email.
Goal: expand a search beyond exact synonyms to closely related terms.
Example: "money" -> ["invoice", "salary", "payment", "transaction", "billing", "cost"]
Return ONLY a JSON array of strings, at most 15 entries.`, word)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseStringArray(text)
}

func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	// gemini-2.5-flash is fast enough for per-email analysis
	url := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent?key=" + g.apiKey

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &Error{Kind: KindRateLimited, Msg: fmt.Sprintf("gemini API error (429): %s", string(respBody))}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindProvider, Msg: fmt.Sprintf("gemini API error (%d): %s", resp.StatusCode, string(respBody))}
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func parseStringArray(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	jsonStart := strings.Index(text, "[")
	jsonEnd := strings.LastIndex(text, "]")
	if jsonStart != -1 && jsonEnd > jsonStart {
		text = text[jsonStart : jsonEnd+1]
	}

	var items []string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		// Some models reply with a bullet list despite the instructions
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "- ")
			line = strings.TrimPrefix(line, "* ")
			if line != "" {
				items = append(items, line)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("failed to parse list: %v", err)
		}
	}
	return items, nil
}
