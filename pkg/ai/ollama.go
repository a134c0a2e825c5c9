package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaService implements Provider using a local Ollama instance.
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{baseURL: baseURL, model: model, client: &http.Client{}}
}

// generate sends one prompt through /api/generate and returns the raw
// model text.
func (o *OllamaService) generate(ctx context.Context, prompt string) (string, error) {
	url := o.baseURL + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.2,
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
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Response, nil
}

func (o *OllamaService) Classify(ctx context.Context, text string) (*Classification, error) {
	raw, err := o.generate(ctx, classifyPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseClassification(raw)
}

func (o *OllamaService) ExtractContactFields(ctx context.Context, text string) (*ContactFields, error) {
	raw, err := o.generate(ctx, extractPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseContactFields(raw)
}

func (o *OllamaService) GenerateReply(ctx context.Context, rc *ReplyContext) (*Reply, error) {
	raw, err := o.generate(ctx, replyPrompt(rc))
	if err != nil {
		return nil, err
	}
	return parseReply(raw)
}

func (o *OllamaService) GenerateQuote(ctx context.Context, prompt, businessType string, history []TranscriptEntry) (*QuoteDraft, error) {
	raw, err := o.generate(ctx, quotePrompt(prompt, businessType, history))
	if err != nil {
		return nil, err
	}
	return parseQuoteDraft(raw)
}
