package ai

import (
	"context"

	"fieldcrm-backend/pkg/gcal"
)

// Classification is the AI's categorization of an inbound message.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Intent     string  `json:"intent"`
}

// ContactFields is a partial contact record extracted from free text.
// Empty fields mean "not mentioned" and never overwrite known values.
type ContactFields struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ServiceType string `json:"service_type"`
}

// TranscriptEntry is one role-tagged line of conversation history.
type TranscriptEntry struct {
	Role    string `json:"role"` // "customer" or "assistant"
	Content string `json:"content"`
}

// ReplyContext carries everything the provider needs to draft a reply.
type ReplyContext struct {
	LeadName        string
	LeadEmail       string
	ServiceType     string
	Category        string
	BusinessName    string
	BusinessType    string
	BusinessContext string
	Transcript      []TranscriptEntry
	AvailableSlots  []gcal.Slot
	Inbound         string
	FollowUp        bool // drafting an unprompted follow-up rather than a direct reply
}

// Reply is a generated response draft.
type Reply struct {
	Subject    string  `json:"subject"`
	Body       string  `json:"body"`
	Confidence float64 `json:"confidence"`
}

// QuoteItem is one priced line of a generated quote.
type QuoteItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// QuoteDraft is the AI's quote proposal before persistence.
type QuoteDraft struct {
	Title   string      `json:"title"`
	Items   []QuoteItem `json:"items"`
	TaxRate float64     `json:"tax_rate"`
}

// Provider is the AI collaborator contract. All calls may fail;
// failures surface as errors, never panics. Implement this interface
// to add providers (Gemini, Ollama, OpenAI, etc.).
type Provider interface {
	Classify(ctx context.Context, text string) (*Classification, error)
	ExtractContactFields(ctx context.Context, text string) (*ContactFields, error)
	GenerateReply(ctx context.Context, rc *ReplyContext) (*Reply, error)
	GenerateQuote(ctx context.Context, prompt, businessType string, history []TranscriptEntry) (*QuoteDraft, error)
}

// ProviderType selects the configured AI backend.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
