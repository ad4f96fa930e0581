package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slotwise/slotwise/internal/agents"
	apperrors "github.com/slotwise/slotwise/internal/errors"
	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

// ---- Mocks for repositories and collaborators used in unit tests ----

type mockActionCardRepo struct {
	mu      sync.Mutex
	cards   map[string]*models.ActionCard
	nextID  int
	expired int64
	woken   int64
}

func newMockActionCardRepo() *mockActionCardRepo {
	return &mockActionCardRepo{cards: make(map[string]*models.ActionCard)}
}

func (m *mockActionCardRepo) Create(ctx context.Context, card *models.ActionCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if card.ID == "" {
		m.nextID++
		card.ID = fmt.Sprintf("card%d", m.nextID)
	}
	card.CreatedAt = time.Now()
	m.cards[card.ID] = card
	return nil
}

func (m *mockActionCardRepo) GetByID(ctx context.Context, tenantID, id string) (*models.ActionCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok || card.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	copied := *card
	return &copied, nil
}

func (m *mockActionCardRepo) List(ctx context.Context, tenantID string, filter *models.ActionCardFilter) ([]*models.ActionCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ActionCard
	for _, c := range m.cards {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockActionCardRepo) Count(ctx context.Context, tenantID string, filter *models.ActionCardFilter) (int, error) {
	list, _ := m.List(ctx, tenantID, filter)
	return len(list), nil
}

func (m *mockActionCardRepo) CountPending(ctx context.Context, tenantID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.cards {
		if c.TenantID == tenantID && c.Status == models.CardStatusPending {
			count++
		}
	}
	return count, nil
}

func (m *mockActionCardRepo) UpdateStatusIfCurrent(ctx context.Context, tenantID, id string, allowed []models.ActionCardStatus, updates map[string]interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok || card.TenantID != tenantID {
		return 0, nil
	}
	permitted := false
	for _, st := range allowed {
		if card.Status == st {
			permitted = true
		}
	}
	if !permitted {
		return 0, nil
	}
	if v, ok := updates["status"]; ok {
		card.Status = v.(models.ActionCardStatus)
	}
	if v, ok := updates["resolved_by_id"]; ok {
		s := v.(string)
		card.ResolvedByID = &s
	}
	if v, ok := updates["resolved_at"]; ok {
		ts := v.(time.Time)
		card.ResolvedAt = &ts
	}
	if v, ok := updates["snoozed_until"]; ok {
		if v == nil {
			card.SnoozedUntil = nil
		} else {
			ts := v.(time.Time)
			card.SnoozedUntil = &ts
		}
	}
	return 1, nil
}

func (m *mockActionCardRepo) FindOpenByDedupKey(ctx context.Context, tenantID, cardType, dedupKey string) (*models.ActionCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.TenantID != tenantID || c.Type != cardType || c.DedupKey == nil || *c.DedupKey != dedupKey {
			continue
		}
		if c.Status == models.CardStatusPending || c.Status == models.CardStatusSnoozed {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockActionCardRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.cards {
		if c.Status == models.CardStatusPending && c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
			c.Status = models.CardStatusExpired
			n++
		}
	}
	m.expired += n
	return n, nil
}

func (m *mockActionCardRepo) UnsnoozeDue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.cards {
		if c.Status == models.CardStatusSnoozed && c.SnoozedUntil != nil && !c.SnoozedUntil.After(now) {
			c.Status = models.CardStatusPending
			c.SnoozedUntil = nil
			n++
		}
	}
	m.woken += n
	return n, nil
}

type mockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (m *mockNotifier) Notify(event string, card *models.ActionCard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockNotifier) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []*AuditEntry
	delay   time.Duration
	done    chan struct{}
}

func (m *mockAuditService) RecordCardAction(ctx context.Context, entry *AuditEntry) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return nil
}

type mockAgentConfigRepo struct {
	configs []*models.AgentConfig
	// listed blocks ListEnabled until released when set, and counts calls.
	mu        sync.Mutex
	listCalls int
	block     chan struct{}
}

func (m *mockAgentConfigRepo) Get(ctx context.Context, tenantID, agentType string) (*models.AgentConfig, error) {
	for _, c := range m.configs {
		if c.TenantID == tenantID && c.AgentType == agentType {
			return c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAgentConfigRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.AgentConfig, error) {
	var out []*models.AgentConfig
	for _, c := range m.configs {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockAgentConfigRepo) ListEnabled(ctx context.Context) ([]*models.AgentConfig, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.block != nil {
		<-m.block
	}
	var out []*models.AgentConfig
	for _, c := range m.configs {
		if c.IsEnabled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockAgentConfigRepo) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *mockAgentConfigRepo) Upsert(ctx context.Context, tenantID, agentType string, patch *models.AgentConfigPatch) (*models.AgentConfig, error) {
	for _, c := range m.configs {
		if c.TenantID == tenantID && c.AgentType == agentType {
			if patch != nil && patch.IsEnabled != nil {
				c.IsEnabled = *patch.IsEnabled
			}
			if patch != nil && patch.Config != nil {
				c.Config = patch.Config
			}
			return c, nil
		}
	}
	cfg := &models.AgentConfig{ID: "cfg_mock", TenantID: tenantID, AgentType: agentType, AutonomyLevel: models.AutonomyAssisted}
	if patch != nil && patch.IsEnabled != nil {
		cfg.IsEnabled = *patch.IsEnabled
	}
	if patch != nil && patch.Config != nil {
		cfg.Config = patch.Config
	}
	m.configs = append(m.configs, cfg)
	return cfg, nil
}

type mockAgentRunRepo struct {
	mu     sync.Mutex
	runs   []*models.AgentRun
	recent bool
}

func (m *mockAgentRunRepo) Create(ctx context.Context, run *models.AgentRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = fmt.Sprintf("run%d", len(m.runs)+1)
	run.StartedAt = time.Now()
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockAgentRunRepo) Finalize(ctx context.Context, id string, status models.AgentRunStatus, cardsCreated int, errMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			r.Status = status
			r.CardsCreated = cardsCreated
			r.Error = errMsg
			now := time.Now()
			r.CompletedAt = &now
		}
	}
	return nil
}

func (m *mockAgentRunRepo) HasRecentRun(ctx context.Context, tenantID, agentType string, since time.Time) (bool, error) {
	return m.recent, nil
}

func (m *mockAgentRunRepo) List(ctx context.Context, tenantID string, agentType string, limit int) ([]*models.AgentRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AgentRun(nil), m.runs...), nil
}

func (m *mockAgentRunRepo) Runs() []*models.AgentRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AgentRun(nil), m.runs...)
}

type mockFeedbackRepo struct {
	upserted []*models.AgentFeedback
	stats    *models.FeedbackStats
}

func (m *mockFeedbackRepo) Upsert(ctx context.Context, fb *models.AgentFeedback) error {
	for i, prev := range m.upserted {
		if prev.ActionCardID == fb.ActionCardID && prev.StaffID == fb.StaffID {
			m.upserted[i] = fb
			return nil
		}
	}
	m.upserted = append(m.upserted, fb)
	return nil
}

func (m *mockFeedbackRepo) Stats(ctx context.Context, tenantID, agentTypePrefix string) (*models.FeedbackStats, error) {
	if m.stats != nil {
		return m.stats, nil
	}
	return &models.FeedbackStats{}, nil
}

type mockTenantRepo struct {
	tenants []*models.Tenant
}

func (m *mockTenantRepo) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	return m.tenants, nil
}

type mockBookingRepo struct {
	depositPending []*models.Booking
	byStaffDay     map[string][]*models.Booking
}

func (m *mockBookingRepo) ListForCustomer(ctx context.Context, tenantID, customerID string, since time.Time) ([]*models.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListForStaffDay(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.Booking, error) {
	if m.byStaffDay == nil {
		return nil, nil
	}
	return m.byStaffDay[staffID+":"+dayStart.Format("2006-01-02")], nil
}

func (m *mockBookingRepo) ListDepositPending(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]*models.Booking, error) {
	return m.depositPending, nil
}

func (m *mockBookingRepo) CustomersWithBookingsSince(ctx context.Context, tenantID string, since time.Time, minBookings int) ([]string, error) {
	return nil, nil
}

type mockScheduleRepo struct {
	staff []*models.Staff
	hours map[int][]*models.WorkingHours // keyed by weekday
	off   []*models.TimeOff
}

func (m *mockScheduleRepo) ListActiveStaff(ctx context.Context, tenantID string) ([]*models.Staff, error) {
	return m.staff, nil
}

func (m *mockScheduleRepo) WorkingHoursFor(ctx context.Context, tenantID, staffID string, weekday int) ([]*models.WorkingHours, error) {
	if m.hours == nil {
		return nil, nil
	}
	return m.hours[weekday], nil
}

func (m *mockScheduleRepo) TimeOffFor(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.TimeOff, error) {
	return m.off, nil
}

type mockConversationRepo struct {
	awaiting []*models.Conversation
}

func (m *mockConversationRepo) ListAwaitingReply(ctx context.Context, tenantID string, inboundBefore time.Time) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, c := range m.awaiting {
		if c.LastInboundAt != nil && !c.LastInboundAt.After(inboundBefore) {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockCustomerRepo struct {
	customers map[string]*models.Customer
}

func (m *mockCustomerRepo) ListBatch(ctx context.Context, tenantID string, limit int) ([]*models.Customer, error) {
	return nil, nil
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Customer, error) {
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrNotFound
}

// fakeAgent is a controllable agent implementation for orchestration tests.
type fakeAgent struct {
	mu       sync.Mutex
	typ      string
	cards    int
	err      error
	valid    bool
	calls    int
	lastCfg  map[string]interface{}
	lastTnt  string
	execHook func()
}

func newFakeAgent(typ string) *fakeAgent {
	return &fakeAgent{typ: typ, valid: true}
}

func (f *fakeAgent) Type() string { return f.typ }

func (f *fakeAgent) Execute(ctx context.Context, tenantID string, config map[string]interface{}) (int, error) {
	f.mu.Lock()
	f.calls++
	f.lastCfg = config
	f.lastTnt = tenantID
	hook := f.execHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.cards, f.err
}

func (f *fakeAgent) ValidateConfig(config map[string]interface{}) bool { return f.valid }

func (f *fakeAgent) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// compile-time checks that mocks satisfy interfaces
var _ repositories.ActionCardRepository = (*mockActionCardRepo)(nil)
var _ repositories.AgentConfigRepository = (*mockAgentConfigRepo)(nil)
var _ repositories.AgentRunRepository = (*mockAgentRunRepo)(nil)
var _ repositories.AgentFeedbackRepository = (*mockFeedbackRepo)(nil)
var _ repositories.TenantRepository = (*mockTenantRepo)(nil)
var _ repositories.BookingRepository = (*mockBookingRepo)(nil)
var _ repositories.ScheduleRepository = (*mockScheduleRepo)(nil)
var _ repositories.ConversationRepository = (*mockConversationRepo)(nil)
var _ repositories.CustomerRepository = (*mockCustomerRepo)(nil)
var _ Notifier = (*mockNotifier)(nil)
var _ AuditService = (*mockAuditService)(nil)
var _ agents.Agent = (*fakeAgent)(nil)
