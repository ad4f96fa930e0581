package agents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

// ---- Mocks for repositories and collaborators used in agent tests ----

type mockCardCreator struct {
	created []*models.ActionCard
	open    map[string]*models.ActionCard // keyed by type+":"+dedupKey
	fail    error
}

func (m *mockCardCreator) Create(ctx context.Context, card *models.ActionCard) (*models.ActionCard, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	card.ID = "card_mock"
	card.Status = models.CardStatusPending
	m.created = append(m.created, card)
	return card, nil
}

func (m *mockCardCreator) FindOpenByDedupKey(ctx context.Context, tenantID, cardType, dedupKey string) (*models.ActionCard, error) {
	if m.open == nil {
		return nil, nil
	}
	return m.open[cardType+":"+dedupKey], nil
}

type mockCustomerRepo struct {
	customers []*models.Customer
}

func (m *mockCustomerRepo) ListBatch(ctx context.Context, tenantID string, limit int) ([]*models.Customer, error) {
	if limit > 0 && limit < len(m.customers) {
		return m.customers[:limit], nil
	}
	return m.customers, nil
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Customer, error) {
	for _, c := range m.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return &models.Customer{ID: id, TenantID: tenantID, Name: id}, nil
}

type mockDuplicateRepo struct {
	created []*models.DuplicateCandidate
	open    map[string]*models.DuplicateCandidate // keyed by a+":"+b
}

func (m *mockDuplicateRepo) Create(ctx context.Context, c *models.DuplicateCandidate) error {
	c.ID = "dup_mock"
	m.created = append(m.created, c)
	return nil
}

func (m *mockDuplicateRepo) FindOpenPair(ctx context.Context, tenantID, a, b string) (*models.DuplicateCandidate, error) {
	pa, pb := models.OrderPair(a, b)
	if m.open == nil {
		return nil, nil
	}
	return m.open[pa+":"+pb], nil
}

func (m *mockDuplicateRepo) Resolve(ctx context.Context, tenantID, id string, status models.DuplicateCandidateStatus) error {
	return nil
}

type mockBookingRepo struct {
	byCustomer map[string][]*models.Booking
	recurring  []string
}

func (m *mockBookingRepo) ListForCustomer(ctx context.Context, tenantID, customerID string, since time.Time) ([]*models.Booking, error) {
	return m.byCustomer[customerID], nil
}

func (m *mockBookingRepo) ListForStaffDay(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListDepositPending(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]*models.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) CustomersWithBookingsSince(ctx context.Context, tenantID string, since time.Time, minBookings int) ([]string, error) {
	return m.recurring, nil
}

type mockScheduleRepo struct {
	staff []*models.Staff
}

func (m *mockScheduleRepo) ListActiveStaff(ctx context.Context, tenantID string) ([]*models.Staff, error) {
	return m.staff, nil
}

func (m *mockScheduleRepo) WorkingHoursFor(ctx context.Context, tenantID, staffID string, weekday int) ([]*models.WorkingHours, error) {
	return nil, nil
}

func (m *mockScheduleRepo) TimeOffFor(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.TimeOff, error) {
	return nil, nil
}

type mockAvailability struct {
	free  map[string][]models.Interval // keyed by staffID+":"+day
	slots map[string][]models.Slot     // keyed by day
}

func (m *mockAvailability) FreeIntervals(ctx context.Context, tenantID, staffID string, day time.Time) ([]models.Interval, error) {
	return m.free[staffID+":"+dayKey(day)], nil
}

func (m *mockAvailability) OpenSlots(ctx context.Context, tenantID string, day time.Time, duration time.Duration, staffID string) ([]models.Slot, error) {
	return m.slots[dayKey(day)], nil
}

type mockWaitlistRepo struct {
	entries []*models.WaitlistEntry
}

func (m *mockWaitlistRepo) ListActive(ctx context.Context, tenantID string) ([]*models.WaitlistEntry, error) {
	return m.entries, nil
}

type mockQuoteRepo struct {
	quotes []*models.Quote
}

func (m *mockQuoteRepo) ListStalled(ctx context.Context, tenantID string, sentBefore time.Time, minAmount decimal.Decimal) ([]*models.Quote, error) {
	var out []*models.Quote
	for _, q := range m.quotes {
		if !q.SentAt.After(sentBefore) && q.Amount.GreaterThanOrEqual(minAmount) {
			out = append(out, q)
		}
	}
	return out, nil
}

// compile-time checks that mocks satisfy interfaces
var _ CardCreator = (*mockCardCreator)(nil)
var _ AvailabilityReader = (*mockAvailability)(nil)
var _ repositories.CustomerRepository = (*mockCustomerRepo)(nil)
var _ repositories.DuplicateCandidateRepository = (*mockDuplicateRepo)(nil)
var _ repositories.BookingRepository = (*mockBookingRepo)(nil)
var _ repositories.ScheduleRepository = (*mockScheduleRepo)(nil)
var _ repositories.WaitlistRepository = (*mockWaitlistRepo)(nil)
var _ repositories.QuoteRepository = (*mockQuoteRepo)(nil)
