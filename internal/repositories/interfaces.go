package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotwise/slotwise/internal/models"
)

// ActionCardRepository defines the interface for action card data operations
type ActionCardRepository interface {
	Create(ctx context.Context, card *models.ActionCard) error
	GetByID(ctx context.Context, tenantID, id string) (*models.ActionCard, error)
	List(ctx context.Context, tenantID string, filter *models.ActionCardFilter) ([]*models.ActionCard, error)
	Count(ctx context.Context, tenantID string, filter *models.ActionCardFilter) (int, error)
	CountPending(ctx context.Context, tenantID string) (int, error)
	// UpdateStatusIfCurrent atomically applies updates to the card only if
	// its status is one of the allowed values, returning the number of
	// affected rows (0 means not found or status mismatch).
	UpdateStatusIfCurrent(ctx context.Context, tenantID, id string, allowed []models.ActionCardStatus, updates map[string]interface{}) (int64, error)
	// FindOpenByDedupKey returns a PENDING or SNOOZED card carrying the
	// dedup key, or nil if none exists.
	FindOpenByDedupKey(ctx context.Context, tenantID, cardType, dedupKey string) (*models.ActionCard, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	UnsnoozeDue(ctx context.Context, now time.Time) (int64, error)
}

// AgentConfigRepository defines the interface for agent config data operations
type AgentConfigRepository interface {
	Get(ctx context.Context, tenantID, agentType string) (*models.AgentConfig, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.AgentConfig, error)
	ListEnabled(ctx context.Context) ([]*models.AgentConfig, error)
	Upsert(ctx context.Context, tenantID, agentType string, patch *models.AgentConfigPatch) (*models.AgentConfig, error)
}

// AgentRunRepository defines the interface for agent run data operations
type AgentRunRepository interface {
	Create(ctx context.Context, run *models.AgentRun) error
	Finalize(ctx context.Context, id string, status models.AgentRunStatus, cardsCreated int, errMsg *string) error
	HasRecentRun(ctx context.Context, tenantID, agentType string, since time.Time) (bool, error)
	List(ctx context.Context, tenantID string, agentType string, limit int) ([]*models.AgentRun, error)
}

// AgentFeedbackRepository defines the interface for feedback data operations
type AgentFeedbackRepository interface {
	Upsert(ctx context.Context, fb *models.AgentFeedback) error
	Stats(ctx context.Context, tenantID, agentTypePrefix string) (*models.FeedbackStats, error)
}

// DuplicateCandidateRepository defines the interface for duplicate pair tracking
type DuplicateCandidateRepository interface {
	Create(ctx context.Context, c *models.DuplicateCandidate) error
	// FindOpenPair looks up a PENDING candidate for the unordered pair.
	FindOpenPair(ctx context.Context, tenantID, customerA, customerB string) (*models.DuplicateCandidate, error)
	Resolve(ctx context.Context, tenantID, id string, status models.DuplicateCandidateStatus) error
}

// TenantRepository lists the tenants the ambient detector iterates.
type TenantRepository interface {
	ListActive(ctx context.Context) ([]*models.Tenant, error)
}

// CustomerRepository reads customer records for the detection agents
type CustomerRepository interface {
	ListBatch(ctx context.Context, tenantID string, limit int) ([]*models.Customer, error)
	GetByID(ctx context.Context, tenantID, id string) (*models.Customer, error)
}

// BookingRepository reads bookings for the detection agents
type BookingRepository interface {
	ListForCustomer(ctx context.Context, tenantID, customerID string, since time.Time) ([]*models.Booking, error)
	ListForStaffDay(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.Booking, error)
	ListDepositPending(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]*models.Booking, error)
	CustomersWithBookingsSince(ctx context.Context, tenantID string, since time.Time, minBookings int) ([]string, error)
}

// ScheduleRepository reads staff rosters, working hours and time off
type ScheduleRepository interface {
	ListActiveStaff(ctx context.Context, tenantID string) ([]*models.Staff, error)
	WorkingHoursFor(ctx context.Context, tenantID, staffID string, weekday int) ([]*models.WorkingHours, error)
	TimeOffFor(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.TimeOff, error)
}

// WaitlistRepository reads waitlist entries for the slot matcher
type WaitlistRepository interface {
	ListActive(ctx context.Context, tenantID string) ([]*models.WaitlistEntry, error)
}

// QuoteRepository reads quotes for the stalled-quote agent
type QuoteRepository interface {
	ListStalled(ctx context.Context, tenantID string, sentBefore time.Time, minAmount decimal.Decimal) ([]*models.Quote, error)
}

// ConversationRepository reads conversation threads for the overdue-reply heuristic
type ConversationRepository interface {
	ListAwaitingReply(ctx context.Context, tenantID string, inboundBefore time.Time) ([]*models.Conversation, error)
}
