package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/slotwise/slotwise/internal/db"
	apperrors "github.com/slotwise/slotwise/internal/errors"
	"github.com/slotwise/slotwise/internal/models"
)

// Read-only gorm repositories over the operational tables the detection
// agents scan. The engine never writes these; the booking platform owns
// them.

type tenantRepository struct {
	db *db.DB
}

func NewTenantRepository(database *db.DB) TenantRepository {
	return &tenantRepository{db: database}
}

func (r *tenantRepository) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&tenants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

type customerRepository struct {
	db *db.DB
}

func NewCustomerRepository(database *db.DB) CustomerRepository {
	return &customerRepository{db: database}
}

func (r *customerRepository) ListBatch(ctx context.Context, tenantID string, limit int) ([]*models.Customer, error) {
	var customers []*models.Customer
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (r *customerRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).
		First(&c, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

type bookingRepository struct {
	db *db.DB
}

func NewBookingRepository(database *db.DB) BookingRepository {
	return &bookingRepository{db: database}
}

func (r *bookingRepository) ListForCustomer(ctx context.Context, tenantID, customerID string, since time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND start_time >= ? AND status <> ?",
			tenantID, customerID, since, models.BookingCancelled).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list customer bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListForStaffDay(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND staff_id = ? AND start_time < ? AND end_time > ? AND status <> ?",
			tenantID, staffID, dayEnd, dayStart, models.BookingCancelled).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list staff bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListDepositPending(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deposit_required = ? AND deposit_paid = ? AND status = ? AND start_time BETWEEN ? AND ?",
			tenantID, true, false, models.BookingConfirmed, windowStart, windowEnd).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deposit-pending bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) CustomersWithBookingsSince(ctx context.Context, tenantID string, since time.Time, minBookings int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("customer_id").
		Where("tenant_id = ? AND start_time >= ? AND status <> ?", tenantID, since, models.BookingCancelled).
		Group("customer_id").
		Having("COUNT(*) >= ?", minBookings).
		Find(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring customers: %w", err)
	}
	return ids, nil
}

type scheduleRepository struct {
	db *db.DB
}

func NewScheduleRepository(database *db.DB) ScheduleRepository {
	return &scheduleRepository{db: database}
}

func (r *scheduleRepository) ListActiveStaff(ctx context.Context, tenantID string) ([]*models.Staff, error) {
	var staff []*models.Staff
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("id ASC").
		Find(&staff).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (r *scheduleRepository) WorkingHoursFor(ctx context.Context, tenantID, staffID string, weekday int) ([]*models.WorkingHours, error) {
	var hours []*models.WorkingHours
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND staff_id = ? AND weekday = ?", tenantID, staffID, weekday).
		Order("start_minute ASC").
		Find(&hours).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list working hours: %w", err)
	}
	return hours, nil
}

func (r *scheduleRepository) TimeOffFor(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.TimeOff, error) {
	var off []*models.TimeOff
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND staff_id = ? AND start_time < ? AND end_time > ?",
			tenantID, staffID, dayEnd, dayStart).
		Order("start_time ASC").
		Find(&off).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list time off: %w", err)
	}
	return off, nil
}

type waitlistRepository struct {
	db *db.DB
}

func NewWaitlistRepository(database *db.DB) WaitlistRepository {
	return &waitlistRepository{db: database}
}

func (r *waitlistRepository) ListActive(ctx context.Context, tenantID string) ([]*models.WaitlistEntry, error) {
	var entries []*models.WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.WaitlistActive).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	return entries, nil
}

type quoteRepository struct {
	db *db.DB
}

func NewQuoteRepository(database *db.DB) QuoteRepository {
	return &quoteRepository{db: database}
}

func (r *quoteRepository) ListStalled(ctx context.Context, tenantID string, sentBefore time.Time, minAmount decimal.Decimal) ([]*models.Quote, error) {
	var quotes []*models.Quote
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND sent_at <= ? AND amount >= ?",
			tenantID, models.QuotePending, sentBefore, minAmount).
		Order("amount DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stalled quotes: %w", err)
	}
	return quotes, nil
}

type conversationRepository struct {
	db *db.DB
}

func NewConversationRepository(database *db.DB) ConversationRepository {
	return &conversationRepository{db: database}
}

func (r *conversationRepository) ListAwaitingReply(ctx context.Context, tenantID string, inboundBefore time.Time) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND last_inbound_at IS NOT NULL AND last_inbound_at <= ?", tenantID, inboundBefore).
		Where("last_outbound_at IS NULL OR last_outbound_at < last_inbound_at").
		Order("last_inbound_at ASC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations awaiting reply: %w", err)
	}
	return convs, nil
}
