package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackProvider routes to Gemini first and falls back to a local
// Ollama instance when Gemini hits quota or network trouble.
type FallbackProvider struct {
	gemini Provider
	ollama Provider
}

func NewFallbackProvider(gemini, ollama Provider) *FallbackProvider {
	return &FallbackProvider{gemini: gemini, ollama: ollama}
}

// isConnectionError checks if the error is a network/connection error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(net.Error); ok {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion.
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// call runs op against Gemini, then Ollama when Gemini fails.
func (f *FallbackProvider) call(name string, op func(Provider) error) error {
	if f.gemini != nil {
		err := op(f.gemini)
		if err == nil {
			return nil
		}
		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted on %s: %v, falling back to Ollama", name, err)
		} else {
			log.Printf("[AI] Gemini error on %s: %v, falling back to Ollama", name, err)
		}
	}
	if f.ollama != nil {
		err := op(f.ollama)
		if err == nil {
			return nil
		}
		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed on %s: %v, retrying Gemini", name, err)
			return op(f.gemini)
		}
		return fmt.Errorf("ollama %s failed: %w", name, err)
	}
	return fmt.Errorf("no AI provider available for %s", name)
}

func (f *FallbackProvider) Classify(ctx context.Context, text string) (*Classification, error) {
	var out *Classification
	err := f.call("classify", func(p Provider) error {
		var e error
		out, e = p.Classify(ctx, text)
		return e
	})
	return out, err
}

func (f *FallbackProvider) ExtractContactFields(ctx context.Context, text string) (*ContactFields, error) {
	var out *ContactFields
	err := f.call("extract", func(p Provider) error {
		var e error
		out, e = p.ExtractContactFields(ctx, text)
		return e
	})
	return out, err
}

func (f *FallbackProvider) GenerateReply(ctx context.Context, rc *ReplyContext) (*Reply, error) {
	var out *Reply
	err := f.call("reply", func(p Provider) error {
		var e error
		out, e = p.GenerateReply(ctx, rc)
		return e
	})
	return out, err
}

func (f *FallbackProvider) GenerateQuote(ctx context.Context, prompt, businessType string, history []TranscriptEntry) (*QuoteDraft, error) {
	var out *QuoteDraft
	err := f.call("quote", func(p Provider) error {
		var e error
		out, e = p.GenerateQuote(ctx, prompt, businessType, history)
		return e
	})
	return out, err
}
