package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt builders and output parsers shared by all providers, so that
// switching Gemini <-> Ollama changes transport only, not behavior.

func classifyPrompt(text string) string {
	return fmt.Sprintf(`You are an inbox assistant for a small service business. Classify the email below.

Categories: lead (new business inquiry), question (general question), spam, customer (existing customer correspondence), problem (complaint or issue).
Intents: quote (asking for a price), booking (asking to schedule), general.

Return ONLY a JSON object, no other text:
{"category": "...", "confidence": 0.0, "intent": "..."}

EMAIL:
%s

JSON OUTPUT:`, text)
}

func extractPrompt(text string) string {
	return fmt.Sprintf(`Extract contact details from the email below. Use "" for anything not mentioned; never guess.

Return ONLY a JSON object, no other text:
{"name": "", "phone": "", "address": "", "service_type": ""}

EMAIL:
%s

JSON OUTPUT:`, text)
}

func replyPrompt(rc *ReplyContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are replying on behalf of %s", rc.BusinessName)
	if rc.BusinessType != "" {
		fmt.Fprintf(&b, ", a %s business", rc.BusinessType)
	}
	b.WriteString(". Write a short, friendly, professional email.\n")
	if rc.BusinessContext != "" {
		fmt.Fprintf(&b, "\nBUSINESS CONTEXT:\n%s\n", rc.BusinessContext)
	}
	fmt.Fprintf(&b, "\nCUSTOMER: %s <%s>", rc.LeadName, rc.LeadEmail)
	if rc.ServiceType != "" {
		fmt.Fprintf(&b, " (service: %s)", rc.ServiceType)
	}
	b.WriteString("\n")

	if len(rc.Transcript) > 0 {
		b.WriteString("\nCONVERSATION SO FAR:\n")
		for _, e := range rc.Transcript {
			fmt.Fprintf(&b, "[%s] %s\n", e.Role, e.Content)
		}
	}

	if len(rc.AvailableSlots) > 0 {
		b.WriteString("\nAVAILABLE APPOINTMENT SLOTS (offer these exact options):\n")
		for _, s := range rc.AvailableSlots {
			fmt.Fprintf(&b, "- %s\n", s.Formatted)
		}
	}

	if rc.FollowUp {
		b.WriteString("\nThe customer has not replied to their last message. Write a polite follow-up checking in; do not pressure them.\n")
	} else {
		fmt.Fprintf(&b, "\nLATEST CUSTOMER MESSAGE:\n%s\n", rc.Inbound)
	}

	b.WriteString(`
Return ONLY a JSON object, no other text:
{"subject": "...", "body": "...", "confidence": 0.0}

JSON OUTPUT:`)
	return b.String()
}

func quotePrompt(prompt, businessType string, history []TranscriptEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You prepare quotes for a %s business. Draft a quote for the request below.\n", businessType)
	if len(history) > 0 {
		b.WriteString("\nCONVERSATION:\n")
		for _, e := range history {
			fmt.Fprintf(&b, "[%s] %s\n", e.Role, e.Content)
		}
	}
	fmt.Fprintf(&b, "\nREQUEST:\n%s\n", prompt)
	b.WriteString(`
Return ONLY a JSON object, no other text:
{"title": "...", "items": [{"description": "...", "quantity": 1, "unit_price": 0.0}], "tax_rate": 0.0}

JSON OUTPUT:`)
	return b.String()
}

// extractJSON pulls the first JSON object out of a model response,
// tolerating markdown code fences and surrounding prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

func parseClassification(raw string) (*Classification, error) {
	var c Classification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &c); err != nil {
		return nil, fmt.Errorf("failed to parse classification JSON: %v", err)
	}
	if c.Category == "" {
		return nil, fmt.Errorf("classification missing category")
	}
	c.Category = strings.ToLower(strings.TrimSpace(c.Category))
	c.Intent = strings.ToLower(strings.TrimSpace(c.Intent))
	return &c, nil
}

func parseContactFields(raw string) (*ContactFields, error) {
	var f ContactFields
	if err := json.Unmarshal([]byte(extractJSON(raw)), &f); err != nil {
		return nil, fmt.Errorf("failed to parse contact JSON: %v", err)
	}
	return &f, nil
}

func parseReply(raw string) (*Reply, error) {
	var r Reply
	if err := json.Unmarshal([]byte(extractJSON(raw)), &r); err != nil {
		return nil, fmt.Errorf("failed to parse reply JSON: %v", err)
	}
	if r.Body == "" {
		return nil, fmt.Errorf("reply missing body")
	}
	return &r, nil
}

func parseQuoteDraft(raw string) (*QuoteDraft, error) {
	var q QuoteDraft
	if err := json.Unmarshal([]byte(extractJSON(raw)), &q); err != nil {
		return nil, fmt.Errorf("failed to parse quote JSON: %v", err)
	}
	if len(q.Items) == 0 {
		return nil, fmt.Errorf("quote has no items")
	}
	return &q, nil
}
