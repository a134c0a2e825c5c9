package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	messagedomain "fieldcrm-backend/internal/message/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenSaver persists refreshed OAuth tokens for a mailbox address.
type TokenSaver func(address string, token *oauth2.Token) error

// Service is the Gmail mail transport.
type Service struct {
	clientID     string
	clientSecret string
	saveToken    TokenSaver
}

func NewService(clientID, clientSecret string, saveToken TokenSaver) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		saveToken:    saveToken,
	}
}

// notifyTokenSource wraps an oauth2 token source to detect refreshes
// and persist the new tokens.
type notifyTokenSource struct {
	src     oauth2.TokenSource
	acct    *tenantdomain.MailAccount
	current *oauth2.Token
	save    TokenSaver
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.current.AccessToken != t.AccessToken {
		s.current = t
		s.acct.AccessToken = t.AccessToken
		if t.RefreshToken != "" {
			s.acct.RefreshToken = t.RefreshToken
		}
		if s.save != nil {
			if err := s.save(s.acct.Address, t); err != nil {
				log.Printf("[Gmail] Failed to persist refreshed token for %s: %v", s.acct.Address, err)
			}
		}
	}
	return t, nil
}

func (s *Service) gmailService(ctx context.Context, acct *tenantdomain.MailAccount) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  acct.AccessToken,
		RefreshToken: acct.RefreshToken,
		TokenType:    "Bearer",
	}
	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrapped := &notifyTokenSource{
		src:     config.TokenSource(ctx, token),
		acct:    acct,
		current: token,
		save:    s.saveToken,
	}
	client := oauth2.NewClient(ctx, wrapped)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// wrapAuthErr translates provider auth failures into the shared
// invalid-grant sentinel so the engine can react uniformly.
func wrapAuthErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "invalid_grant") {
		return fmt.Errorf("gmail: %s: %w", err.Error(), tenantdomain.ErrInvalidGrant)
	}
	if gErr, ok := err.(*googleapi.Error); ok && gErr.Code == 401 {
		return fmt.Errorf("gmail: unauthorized: %w", tenantdomain.ErrInvalidGrant)
	}
	return err
}

// ListUnread returns provider ids of unread inbox messages.
func (s *Service) ListUnread(ctx context.Context, acct *tenantdomain.MailAccount) ([]string, error) {
	srv, err := s.gmailService(ctx, acct)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Users.Messages.List("me").
		Q("is:unread in:inbox").MaxResults(25).Context(ctx).Do()
	if err != nil {
		return nil, wrapAuthErr(err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches one message with headers and a plain-text body.
func (s *Service) GetMessage(ctx context.Context, acct *tenantdomain.MailAccount, id string) (*messagedomain.InboundEmail, error) {
	srv, err := s.gmailService(ctx, acct)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrapAuthErr(err)
	}

	headers := make(map[string]string)
	for _, h := range msg.Payload.Headers {
		headers[h.Name] = h.Value
	}

	inbound := &messagedomain.InboundEmail{
		ProviderID: msg.Id,
		ThreadID:   msg.ThreadId,
		MessageID:  headers["Message-Id"],
		From:       headers["From"],
		Subject:    headers["Subject"],
		Body:       extractBody(msg.Payload),
		Headers:    headers,
		ReceivedAt: time.UnixMilli(msg.InternalDate),
	}
	if inbound.MessageID == "" {
		inbound.MessageID = headers["Message-ID"]
	}
	return inbound, nil
}

// extractBody walks the MIME tree for the first text/plain part,
// falling back to text/html with tags left in place.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		return decodePart(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if body := extractBody(part); body != "" {
			return body
		}
	}
	if payload.MimeType == "text/html" && payload.Body != nil && payload.Body.Data != "" {
		return decodePart(payload.Body.Data)
	}
	return ""
}

func decodePart(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

// MarkRead removes the UNREAD label.
func (s *Service) MarkRead(ctx context.Context, acct *tenantdomain.MailAccount, id string) error {
	srv, err := s.gmailService(ctx, acct)
	if err != nil {
		return err
	}
	_, err = srv.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	return wrapAuthErr(err)
}

// Send delivers an email, threading it onto an existing conversation
// when threadID/inReplyTo are set. Returns the provider message id.
func (s *Service) Send(ctx context.Context, acct *tenantdomain.MailAccount, to, subject, body, threadID, inReplyTo, references string) (string, error) {
	srv, err := s.gmailService(ctx, acct)
	if err != nil {
		return "", err
	}

	var raw strings.Builder
	fmt.Fprintf(&raw, "From: %s\r\n", acct.Address)
	fmt.Fprintf(&raw, "To: %s\r\n", to)
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	if inReplyTo != "" {
		fmt.Fprintf(&raw, "In-Reply-To: %s\r\n", inReplyTo)
	}
	if references != "" {
		fmt.Fprintf(&raw, "References: %s\r\n", references)
	}
	raw.WriteString("MIME-Version: 1.0\r\n")
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(body)

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw.String())),
		ThreadId: threadID,
	}
	sent, err := srv.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", wrapAuthErr(err)
	}
	return sent.Id, nil
}

// RefreshCredentials forces a token refresh, persisting the result.
// Used as the single bounded retry after an invalid_grant.
func (s *Service) RefreshCredentials(ctx context.Context, acct *tenantdomain.MailAccount) error {
	token := &oauth2.Token{
		AccessToken:  acct.AccessToken,
		RefreshToken: acct.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now(), // force refresh
	}
	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}
	wrapped := &notifyTokenSource{
		src:     config.TokenSource(ctx, token),
		acct:    acct,
		current: &oauth2.Token{},
		save:    s.saveToken,
	}
	if _, err := wrapped.Token(); err != nil {
		return wrapAuthErr(err)
	}
	return nil
}
