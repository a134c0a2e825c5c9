package usecase

import (
	"context"
	"time"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	quotedomain "fieldcrm-backend/internal/quote/domain"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	"fieldcrm-backend/pkg/ai"
	"fieldcrm-backend/pkg/gcal"

	"github.com/stretchr/testify/mock"
)

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) FindByID(id string) (*tenantdomain.Tenant, error) {
	args := m.Called(id)
	t, _ := args.Get(0).(*tenantdomain.Tenant)
	return t, args.Error(1)
}

func (m *mockTenantRepo) FindActive() ([]*tenantdomain.Tenant, error) {
	args := m.Called()
	ts, _ := args.Get(0).([]*tenantdomain.Tenant)
	return ts, args.Error(1)
}

func (m *mockTenantRepo) Update(t *tenantdomain.Tenant) error {
	return m.Called(t).Error(0)
}

func (m *mockTenantRepo) IncrementAIUsage(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockTenantRepo) ResetAIUsage(id string, at time.Time) error {
	return m.Called(id, at).Error(0)
}

func (m *mockTenantRepo) RecordMailboxFailure(id string) (int, error) {
	args := m.Called(id)
	return args.Int(0), args.Error(1)
}

func (m *mockTenantRepo) ResetMailboxFailures(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockTenantRepo) DisableMailbox(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockTenantRepo) UpdateTokensByAddress(address, accessToken, refreshToken string) error {
	return m.Called(address, accessToken, refreshToken).Error(0)
}

type mockLeadRepo struct {
	mock.Mock
}

func (m *mockLeadRepo) Create(lead *leaddomain.Lead) error {
	return m.Called(lead).Error(0)
}

func (m *mockLeadRepo) Update(lead *leaddomain.Lead) error {
	return m.Called(lead).Error(0)
}

func (m *mockLeadRepo) FindByID(tenantID, id string) (*leaddomain.Lead, error) {
	args := m.Called(tenantID, id)
	l, _ := args.Get(0).(*leaddomain.Lead)
	return l, args.Error(1)
}

func (m *mockLeadRepo) FindByEmail(tenantID, email string) (*leaddomain.Lead, error) {
	args := m.Called(tenantID, email)
	l, _ := args.Get(0).(*leaddomain.Lead)
	return l, args.Error(1)
}

func (m *mockLeadRepo) List(tenantID string, limit, offset int) ([]*leaddomain.Lead, int64, error) {
	args := m.Called(tenantID, limit, offset)
	ls, _ := args.Get(0).([]*leaddomain.Lead)
	return ls, args.Get(1).(int64), args.Error(2)
}

func (m *mockLeadRepo) FindOpen(tenantID string) ([]*leaddomain.Lead, error) {
	args := m.Called(tenantID)
	ls, _ := args.Get(0).([]*leaddomain.Lead)
	return ls, args.Error(1)
}

func (m *mockLeadRepo) FindScheduledBetween(tenantID string, from, to time.Time) ([]*leaddomain.Lead, error) {
	args := m.Called(tenantID, from, to)
	ls, _ := args.Get(0).([]*leaddomain.Lead)
	return ls, args.Error(1)
}

func (m *mockLeadRepo) Touch(id string, at time.Time) error {
	return m.Called(id, at).Error(0)
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(msg *messagedomain.Message) error {
	return m.Called(msg).Error(0)
}

func (m *mockMessageRepo) Update(msg *messagedomain.Message) error {
	return m.Called(msg).Error(0)
}

func (m *mockMessageRepo) Delete(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockMessageRepo) FindByID(id string) (*messagedomain.Message, error) {
	args := m.Called(id)
	msg, _ := args.Get(0).(*messagedomain.Message)
	return msg, args.Error(1)
}

func (m *mockMessageRepo) FindByProviderID(tenantID, providerID string) (*messagedomain.Message, error) {
	args := m.Called(tenantID, providerID)
	msg, _ := args.Get(0).(*messagedomain.Message)
	return msg, args.Error(1)
}

func (m *mockMessageRepo) History(leadID string, limit int) ([]*messagedomain.Message, error) {
	args := m.Called(leadID, limit)
	msgs, _ := args.Get(0).([]*messagedomain.Message)
	return msgs, args.Error(1)
}

func (m *mockMessageRepo) RecentWindow(leadID string, since time.Time) ([]*messagedomain.Message, error) {
	args := m.Called(leadID, since)
	msgs, _ := args.Get(0).([]*messagedomain.Message)
	return msgs, args.Error(1)
}

func (m *mockMessageRepo) LastForLead(leadID string) (*messagedomain.Message, error) {
	args := m.Called(leadID)
	msg, _ := args.Get(0).(*messagedomain.Message)
	return msg, args.Error(1)
}

func (m *mockMessageRepo) HasFollowUpTo(messageID string) (bool, error) {
	args := m.Called(messageID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessageRepo) PendingApproval(tenantID string) ([]*messagedomain.Message, error) {
	args := m.Called(tenantID)
	msgs, _ := args.Get(0).([]*messagedomain.Message)
	return msgs, args.Error(1)
}

type mockSettingsRepo struct {
	mock.Mock
}

func (m *mockSettingsRepo) GetByTenant(tenantID string) (*settingsdomain.AutomationSettings, error) {
	args := m.Called(tenantID)
	s, _ := args.Get(0).(*settingsdomain.AutomationSettings)
	return s, args.Error(1)
}

func (m *mockSettingsRepo) Save(s *settingsdomain.AutomationSettings) error {
	return m.Called(s).Error(0)
}

type mockQuoteRepo struct {
	mock.Mock
}

func (m *mockQuoteRepo) Create(q *quotedomain.Quote) error {
	return m.Called(q).Error(0)
}

func (m *mockQuoteRepo) Update(q *quotedomain.Quote) error {
	return m.Called(q).Error(0)
}

func (m *mockQuoteRepo) FindByID(tenantID, id string) (*quotedomain.Quote, error) {
	args := m.Called(tenantID, id)
	q, _ := args.Get(0).(*quotedomain.Quote)
	return q, args.Error(1)
}

func (m *mockQuoteRepo) ListByTenant(tenantID string, limit, offset int) ([]*quotedomain.Quote, int64, error) {
	args := m.Called(tenantID, limit, offset)
	qs, _ := args.Get(0).([]*quotedomain.Quote)
	return qs, args.Get(1).(int64), args.Error(2)
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) ListUnread(ctx context.Context, acct *tenantdomain.MailAccount) ([]string, error) {
	args := m.Called(ctx, acct)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockTransport) GetMessage(ctx context.Context, acct *tenantdomain.MailAccount, id string) (*messagedomain.InboundEmail, error) {
	args := m.Called(ctx, acct, id)
	e, _ := args.Get(0).(*messagedomain.InboundEmail)
	return e, args.Error(1)
}

func (m *mockTransport) MarkRead(ctx context.Context, acct *tenantdomain.MailAccount, id string) error {
	return m.Called(ctx, acct, id).Error(0)
}

func (m *mockTransport) Send(ctx context.Context, acct *tenantdomain.MailAccount, to, subject, body, threadID, inReplyTo, references string) (string, error) {
	args := m.Called(ctx, acct, to, subject, body, threadID, inReplyTo, references)
	return args.String(0), args.Error(1)
}

func (m *mockTransport) RefreshCredentials(ctx context.Context, acct *tenantdomain.MailAccount) error {
	return m.Called(ctx, acct).Error(0)
}

// staticSelector returns the same transport for every account.
type staticSelector struct {
	transport MailTransport
}

func (s *staticSelector) For(acct *tenantdomain.MailAccount) MailTransport {
	return s.transport
}

type mockCalendar struct {
	mock.Mock
}

func (m *mockCalendar) ListAvailableSlots(ctx context.Context, acct *tenantdomain.MailAccount, calendarID string, durationMinutes, daysAhead, max int) ([]gcal.Slot, error) {
	args := m.Called(ctx, acct, calendarID, durationMinutes, daysAhead, max)
	slots, _ := args.Get(0).([]gcal.Slot)
	return slots, args.Error(1)
}

func (m *mockCalendar) CreateEvent(ctx context.Context, acct *tenantdomain.MailAccount, calendarID, summary, description string, start, end time.Time, attendee string) error {
	return m.Called(ctx, acct, calendarID, summary, description, start, end, attendee).Error(0)
}

type mockAIProvider struct {
	mock.Mock
}

func (m *mockAIProvider) Classify(ctx context.Context, text string) (*ai.Classification, error) {
	args := m.Called(ctx, text)
	c, _ := args.Get(0).(*ai.Classification)
	return c, args.Error(1)
}

func (m *mockAIProvider) ExtractContactFields(ctx context.Context, text string) (*ai.ContactFields, error) {
	args := m.Called(ctx, text)
	f, _ := args.Get(0).(*ai.ContactFields)
	return f, args.Error(1)
}

func (m *mockAIProvider) GenerateReply(ctx context.Context, rc *ai.ReplyContext) (*ai.Reply, error) {
	args := m.Called(ctx, rc)
	r, _ := args.Get(0).(*ai.Reply)
	return r, args.Error(1)
}

func (m *mockAIProvider) GenerateQuote(ctx context.Context, prompt, businessType string, history []ai.TranscriptEntry) (*ai.QuoteDraft, error) {
	args := m.Called(ctx, prompt, businessType, history)
	q, _ := args.Get(0).(*ai.QuoteDraft)
	return q, args.Error(1)
}
