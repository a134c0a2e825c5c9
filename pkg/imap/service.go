package imap

import (
	"context"
	"fmt"
	"io"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	messagedomain "fieldcrm-backend/internal/message/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Service is the IMAP/SMTP mail transport for tenants not on Gmail.
// Each call dials a fresh session; the 1-minute poll interval makes
// persistent connections more trouble than they are worth.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) connect(acct *tenantdomain.MailAccount) (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", acct.IMAPHost, acct.IMAPPort)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}
	if err := c.Login(acct.Address, acct.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login: %s: %w", err.Error(), tenantdomain.ErrInvalidGrant)
	}
	return c, nil
}

// ListUnread returns the UIDs of unseen inbox messages as strings.
func (s *Service) ListUnread(ctx context.Context, acct *tenantdomain.MailAccount) ([]string, error) {
	c, err := s.connect(acct)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("imap select: %v", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %v", err)
	}

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}
	return ids, nil
}

// GetMessage fetches one message by UID without marking it seen.
func (s *Service) GetMessage(ctx context.Context, acct *tenantdomain.MailAccount, id string) (*messagedomain.InboundEmail, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid imap uid %q: %v", id, err)
	}

	c, err := s.connect(acct)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("imap select: %v", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))
	section := &imap.BodySectionName{Peek: true}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, []imap.FetchItem{imap.FetchUid, section.FetchItem()}, messages)
	}()

	msg := <-messages
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %v", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("imap message %s not found", id)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("imap message %s has no body", id)
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse message: %v", err)
	}

	headers := make(map[string]string)
	fields := mr.Header.Fields()
	for fields.Next() {
		headers[fields.Key()] = fields.Value()
	}

	var text string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok && text == "" {
			b, _ := io.ReadAll(part.Body)
			text = string(b)
		}
	}

	from := headers["From"]
	date, _ := mr.Header.Date()
	if date.IsZero() {
		date = time.Now()
	}

	providerID := headers["Message-Id"]
	if providerID == "" {
		providerID = headers["Message-ID"]
	}
	if providerID == "" {
		providerID = fmt.Sprintf("%s-uid-%s", acct.Address, id)
	}

	return &messagedomain.InboundEmail{
		ProviderID: providerID,
		MessageID:  providerID,
		From:       from,
		Subject:    headers["Subject"],
		Body:       text,
		Headers:    headers,
		ReceivedAt: date,
	}, nil
}

// MarkRead flags the message seen. The id here is the IMAP UID, but
// poll ingestion keys idempotency on the Message-Id header, so the
// engine passes the UID back via the provider ref it listed.
func (s *Service) MarkRead(ctx context.Context, acct *tenantdomain.MailAccount, id string) error {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid imap uid %q: %v", id, err)
	}

	c, err := s.connect(acct)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("imap select: %v", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	return c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil)
}

// Send delivers via SMTP with PLAIN auth over STARTTLS. Returns a
// synthetic provider id since plain SMTP assigns none.
func (s *Service) Send(ctx context.Context, acct *tenantdomain.MailAccount, to, subject, body, threadID, inReplyTo, references string) (string, error) {
	if strings.ContainsAny(subject, "\r\n") {
		return "", fmt.Errorf("subject contains invalid characters")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", acct.Address)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	if inReplyTo != "" {
		fmt.Fprintf(&msg, "In-Reply-To: %s\r\n", inReplyTo)
	}
	if references != "" {
		fmt.Fprintf(&msg, "References: %s\r\n", references)
	}
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", acct.SMTPHost, acct.SMTPPort)
	auth := smtp.PlainAuth("", acct.Address, acct.Password, acct.SMTPHost)
	if err := smtp.SendMail(addr, auth, acct.Address, []string{to}, []byte(msg.String())); err != nil {
		if strings.Contains(err.Error(), "535") || strings.Contains(strings.ToLower(err.Error()), "authentication") {
			return "", fmt.Errorf("smtp auth: %s: %w", err.Error(), tenantdomain.ErrInvalidGrant)
		}
		return "", fmt.Errorf("smtp send: %v", err)
	}
	return fmt.Sprintf("smtp-%d", time.Now().UnixNano()), nil
}

// RefreshCredentials is a no-op for password-based IMAP accounts;
// a failed login stays failed until the tenant reconnects.
func (s *Service) RefreshCredentials(ctx context.Context, acct *tenantdomain.MailAccount) error {
	return nil
}
