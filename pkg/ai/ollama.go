package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaService implements Analyzer using an Ollama local LLM
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

// AnalyzeEmail implements Analyzer
func (o *OllamaService) AnalyzeEmail(ctx context.Context, req *AnalysisRequest) (*EmailAnalysis, error) {
	text, err := o.generate(ctx, buildAnalysisPrompt(req), 500)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text, validCategoryIDs(req.Categories)), nil
}

// GenerateSynonyms implements Analyzer
func (o *OllamaService) GenerateSynonyms(ctx context.Context, word string) ([]string, error) {
	prompt := fmt.Sprintf(`List related concepts, specific examples and domain terms for the keyword %q in the context of work email.
Return ONLY a JSON array of strings, at most 15 entries.`, word)

	text, err := o.generate(ctx, prompt, 200)
	if err != nil {
		return nil, err
	}
	return parseStringArray(text)
}

func (o *OllamaService) generate(ctx context.Context, prompt string, numPredict int) (string, error) {
	url := o.baseURL + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.2,
			"num_predict": numPredict,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &Error{Kind: KindRateLimited, Msg: fmt.Sprintf("ollama API error (429): %s", string(respBody))}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindProvider, Msg: fmt.Sprintf("ollama API error (%d): %s", resp.StatusCode, string(respBody))}
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Response, nil
}
