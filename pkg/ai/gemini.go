package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GeminiService implements Provider against the Gemini REST API.
type GeminiService struct {
	apiKey string
	model  string
	client *http.Client
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{
		apiKey: apiKey,
		model:  "gemini-2.5-flash",
		client: &http.Client{},
	}
}

// generate sends one prompt and returns the raw model text.
func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", g.model, g.apiKey)

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
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error (%d): %s", resp.StatusCode, string(respBody))
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

func (g *GeminiService) Classify(ctx context.Context, text string) (*Classification, error) {
	raw, err := g.generate(ctx, classifyPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseClassification(raw)
}

func (g *GeminiService) ExtractContactFields(ctx context.Context, text string) (*ContactFields, error) {
	raw, err := g.generate(ctx, extractPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseContactFields(raw)
}

func (g *GeminiService) GenerateReply(ctx context.Context, rc *ReplyContext) (*Reply, error) {
	raw, err := g.generate(ctx, replyPrompt(rc))
	if err != nil {
		return nil, err
	}
	return parseReply(raw)
}

func (g *GeminiService) GenerateQuote(ctx context.Context, prompt, businessType string, history []TranscriptEntry) (*QuoteDraft, error) {
	raw, err := g.generate(ctx, quotePrompt(prompt, businessType, history))
	if err != nil {
		return nil, err
	}
	return parseQuoteDraft(raw)
}
