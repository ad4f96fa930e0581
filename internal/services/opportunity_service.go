package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

// Card types produced by the ambient detector.
const (
	CardTypeDepositPending = "DEPOSIT_PENDING"
	CardTypeOverdueReply   = "OVERDUE_REPLY"
	CardTypeOpenSlot       = "OPEN_SLOT"
)

const (
	opportunityTickSpec = "@every 5m"
	opportunityBudget   = 30 * time.Second

	depositLookahead      = 48 * time.Hour
	depositUrgentWindow   = 24 * time.Hour
	overdueReplyAfter     = 3 * time.Hour
	openSlotLookaheadDays = 3
	openSlotMinFreeMin    = 240
)

// OpportunityService is the ambient detector: a second orchestrator with
// the same mutex-and-budget shape as the agent scheduler, but iterating
// tenants and running always-on heuristics directly instead of going
// through the registry.
type OpportunityService struct {
	mu         sync.Mutex
	processing bool

	tenants       repositories.TenantRepository
	bookings      repositories.BookingRepository
	conversations repositories.ConversationRepository
	customers     repositories.CustomerRepository
	schedule      repositories.ScheduleRepository
	availability  AvailabilityService
	cards         ActionCardService
	logger        *zap.Logger

	budget time.Duration
	now    func() time.Time

	cron *cron.Cron
}

// NewOpportunityService creates a new opportunity detector
func NewOpportunityService(
	tenants repositories.TenantRepository,
	bookings repositories.BookingRepository,
	conversations repositories.ConversationRepository,
	customers repositories.CustomerRepository,
	schedule repositories.ScheduleRepository,
	availability AvailabilityService,
	cards ActionCardService,
	logger *zap.Logger,
) *OpportunityService {
	return &OpportunityService{
		tenants:       tenants,
		bookings:      bookings,
		conversations: conversations,
		customers:     customers,
		schedule:      schedule,
		availability:  availability,
		cards:         cards,
		logger:        logger,
		budget:        opportunityBudget,
		now:           time.Now,
	}
}

// Start begins the periodic tick.
func (s *OpportunityService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(opportunityTickSpec, func() {
		s.Tick(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("opportunity detector started", zap.String("tick", opportunityTickSpec))
	return nil
}

// Stop halts the ticker.
func (s *OpportunityService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Tick scans every active tenant once, stopping early when the budget
// runs out. Overlapping ticks are no-ops.
func (s *OpportunityService) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return
	}
	s.processing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	tickStart := s.now()

	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list tenants", zap.Error(err))
		return
	}

	for _, tenant := range tenants {
		if s.now().Sub(tickStart) > s.budget {
			s.logger.Warn("opportunity tick budget exceeded, deferring remaining tenants",
				zap.Duration("budget", s.budget))
			return
		}
		s.scanTenant(ctx, tenant.ID)
	}
}

func (s *OpportunityService) scanTenant(ctx context.Context, tenantID string) {
	if err := s.detectDepositPending(ctx, tenantID); err != nil {
		s.logger.Warn("deposit-pending scan failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
	if err := s.detectOverdueReplies(ctx, tenantID); err != nil {
		s.logger.Warn("overdue-reply scan failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
	if err := s.detectOpenSlots(ctx, tenantID); err != nil {
		s.logger.Warn("open-slot scan failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

func (s *OpportunityService) detectDepositPending(ctx context.Context, tenantID string) error {
	now := s.now()
	bookings, err := s.bookings.ListDepositPending(ctx, tenantID, now, now.Add(depositLookahead))
	if err != nil {
		return err
	}
	for _, b := range bookings {
		existing, err := s.cards.FindOpenByDedupKey(ctx, tenantID, CardTypeDepositPending, b.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		priority := 75
		category := models.CategoryNeedsApproval
		if b.StartTime.Sub(now) <= depositUrgentWindow {
			priority = 95
			category = models.CategoryUrgentToday
		}

		customerName := b.CustomerID
		if customer, err := s.customers.GetByID(ctx, tenantID, b.CustomerID); err == nil {
			customerName = customer.Name
		}

		metadata, _ := json.Marshal(map[string]interface{}{
			"booking_id":     b.ID,
			"start_time":     b.StartTime,
			"deposit_amount": b.DepositAmount.String(),
		})
		cta, _ := json.Marshal([]models.CTAButton{
			{Label: "Send payment link", Action: "send_deposit_link", Variant: "primary"},
			{Label: "Cancel booking", Action: "cancel_booking", Variant: "danger"},
		})
		bookingID := b.ID
		expires := b.StartTime

		_, err = s.cards.Create(ctx, &models.ActionCard{
			TenantID:        tenantID,
			Type:            CardTypeDepositPending,
			Category:        category,
			Priority:        priority,
			Title:           fmt.Sprintf("Deposit unpaid for %s's booking", customerName),
			Description:     fmt.Sprintf("Booking starts %s and the deposit is still outstanding.", b.StartTime.Format("Mon Jan 2 15:04")),
			SuggestedAction: "Chase the deposit or release the slot.",
			BookingID:       &bookingID,
			DedupKey:        &bookingID,
			ExpiresAt:       &expires,
			Metadata:        metadata,
			CTAConfig:       cta,
		})
		if err != nil {
			s.logger.Warn("deposit card failed, continuing",
				zap.String("tenant_id", tenantID),
				zap.String("booking_id", b.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *OpportunityService) detectOverdueReplies(ctx context.Context, tenantID string) error {
	now := s.now()
	convs, err := s.conversations.ListAwaitingReply(ctx, tenantID, now.Add(-overdueReplyAfter))
	if err != nil {
		return err
	}
	for _, c := range convs {
		existing, err := s.cards.FindOpenByDedupKey(ctx, tenantID, CardTypeOverdueReply, c.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		waiting := now.Sub(*c.LastInboundAt)
		customerName := c.CustomerID
		if customer, err := s.customers.GetByID(ctx, tenantID, c.CustomerID); err == nil {
			customerName = customer.Name
		}

		metadata, _ := json.Marshal(map[string]interface{}{
			"conversation_id": c.ID,
			"channel":         c.Channel,
			"waiting_minutes": int(waiting.Minutes()),
		})
		cta, _ := json.Marshal([]models.CTAButton{
			{Label: "Open conversation", Action: "open_conversation", Variant: "primary"},
		})
		convID := c.ID

		_, err = s.cards.Create(ctx, &models.ActionCard{
			TenantID:        tenantID,
			Type:            CardTypeOverdueReply,
			Category:        models.CategoryUrgentToday,
			Priority:        85,
			Title:           fmt.Sprintf("%s has been waiting %.0f hours for a reply", customerName, waiting.Hours()),
			Description:     fmt.Sprintf("Last inbound message on %s is still unanswered.", c.Channel),
			SuggestedAction: "Reply now before the customer goes quiet.",
			ConversationID:  &convID,
			CustomerID:      &c.CustomerID,
			DedupKey:        &convID,
			Metadata:        metadata,
			CTAConfig:       cta,
		})
		if err != nil {
			s.logger.Warn("overdue-reply card failed, continuing",
				zap.String("tenant_id", tenantID),
				zap.String("conversation_id", c.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *OpportunityService) detectOpenSlots(ctx context.Context, tenantID string) error {
	staff, err := s.schedule.ListActiveStaff(ctx, tenantID)
	if err != nil {
		return err
	}
	now := s.now()
	for d := 1; d <= openSlotLookaheadDays; d++ {
		day := now.AddDate(0, 0, d)
		totalFree := 0
		for _, st := range staff {
			free, err := s.availability.FreeIntervals(ctx, tenantID, st.ID, day)
			if err != nil {
				return err
			}
			for _, iv := range free {
				totalFree += iv.Minutes()
			}
		}
		if totalFree < openSlotMinFreeMin {
			continue
		}

		key := day.Format("2006-01-02")
		existing, err := s.cards.FindOpenByDedupKey(ctx, tenantID, CardTypeOpenSlot, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		metadata, _ := json.Marshal(map[string]interface{}{
			"date":              key,
			"free_minutes":      totalFree,
			"staff_count":       len(staff),
			"lookahead_day_idx": d,
		})
		cta, _ := json.Marshal([]models.CTAButton{
			{Label: "Promote open slots", Action: "promote_slots", Variant: "primary"},
		})

		_, err = s.cards.Create(ctx, &models.ActionCard{
			TenantID:        tenantID,
			Type:            CardTypeOpenSlot,
			Category:        models.CategoryOpportunity,
			Priority:        55,
			Title:           fmt.Sprintf("%s looks unusually empty", day.Format("Monday Jan 2")),
			Description:     fmt.Sprintf("%d free minutes across the team with the day approaching.", totalFree),
			SuggestedAction: "Run a promotion or message the waitlist to fill the day.",
			DedupKey:        &key,
			Metadata:        metadata,
			CTAConfig:       cta,
		})
		if err != nil {
			s.logger.Warn("open-slot card failed, continuing",
				zap.String("tenant_id", tenantID),
				zap.String("date", key),
				zap.Error(err))
		}
	}
	return nil
}
