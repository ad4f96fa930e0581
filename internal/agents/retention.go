package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

const (
	retentionDefaultLookbackDays = 365
	retentionDefaultMinBookings  = 3
	retentionDefaultMultiplier   = 1.5
	retentionDefaultMaxCards     = 10

	retentionBasePriority = 60
	retentionMaxPriority  = 90
)

// RetentionAgent flags recurring customers whose usual booking cadence
// has lapsed: days since their last booking exceed their mean
// inter-booking interval times the overdue multiplier.
type RetentionAgent struct {
	customers repositories.CustomerRepository
	bookings  repositories.BookingRepository
	cards     CardCreator
	logger    *zap.Logger
	now       func() time.Time
}

func NewRetentionAgent(customers repositories.CustomerRepository, bookings repositories.BookingRepository, cards CardCreator, logger *zap.Logger) *RetentionAgent {
	return &RetentionAgent{customers: customers, bookings: bookings, cards: cards, logger: logger, now: time.Now}
}

func (a *RetentionAgent) Type() string { return models.AgentTypeRetention }

func (a *RetentionAgent) ValidateConfig(config map[string]interface{}) bool {
	if config == nil {
		return true
	}
	return intInRange(config, "lookbackDays", 30, 1095) &&
		intInRange(config, "minBookings", 2, 50) &&
		floatInRange(config, "overdueMultiplier", 1, 10) &&
		intInRange(config, "maxCardsPerRun", 1, 50)
}

type lapsedCustomer struct {
	customerID    string
	meanGapDays   float64
	daysSinceLast float64
	overdueRatio  float64
	lastBooking   time.Time
}

// CadenceOverdue computes the mean inter-booking gap from a sorted
// booking history and reports whether the customer is overdue. It
// returns zeroes when fewer than two bookings exist.
func CadenceOverdue(starts []time.Time, now time.Time, multiplier float64) (meanGapDays, daysSinceLast, ratio float64, overdue bool) {
	if len(starts) < 2 {
		return 0, 0, 0, false
	}
	totalGap := starts[len(starts)-1].Sub(starts[0])
	meanGap := totalGap / time.Duration(len(starts)-1)
	if meanGap <= 0 {
		return 0, 0, 0, false
	}
	meanGapDays = meanGap.Hours() / 24
	daysSinceLast = now.Sub(starts[len(starts)-1]).Hours() / 24
	ratio = daysSinceLast / meanGapDays
	return meanGapDays, daysSinceLast, ratio, daysSinceLast > meanGapDays*multiplier
}

func (a *RetentionAgent) Execute(ctx context.Context, tenantID string, config map[string]interface{}) (int, error) {
	lookbackDays := cfgInt(config, "lookbackDays", retentionDefaultLookbackDays)
	minBookings := cfgInt(config, "minBookings", retentionDefaultMinBookings)
	multiplier := cfgFloat(config, "overdueMultiplier", retentionDefaultMultiplier)
	maxCards := cfgInt(config, "maxCardsPerRun", retentionDefaultMaxCards)

	now := a.now()
	since := now.AddDate(0, 0, -lookbackDays)

	customerIDs, err := a.bookings.CustomersWithBookingsSince(ctx, tenantID, since, minBookings)
	if err != nil {
		return 0, fmt.Errorf("load recurring customers: %w", err)
	}

	var lapsed []lapsedCustomer
	for _, customerID := range customerIDs {
		bookings, err := a.bookings.ListForCustomer(ctx, tenantID, customerID, since)
		if err != nil {
			a.logger.Warn("booking history failed, skipping customer",
				zap.String("tenant_id", tenantID),
				zap.String("customer_id", customerID),
				zap.Error(err))
			continue
		}
		// Only past bookings count toward cadence.
		starts := make([]time.Time, 0, len(bookings))
		for _, b := range bookings {
			if b.StartTime.Before(now) {
				starts = append(starts, b.StartTime)
			}
		}
		if len(starts) < minBookings {
			continue
		}
		meanGap, daysSince, ratio, overdue := CadenceOverdue(starts, now, multiplier)
		if !overdue {
			continue
		}
		lapsed = append(lapsed, lapsedCustomer{
			customerID:    customerID,
			meanGapDays:   meanGap,
			daysSinceLast: daysSince,
			overdueRatio:  ratio,
			lastBooking:   starts[len(starts)-1],
		})
	}
	sort.SliceStable(lapsed, func(i, j int) bool {
		return lapsed[i].overdueRatio > lapsed[j].overdueRatio
	})

	created := 0
	for _, lc := range lapsed {
		if created >= maxCards {
			break
		}
		flagged, err := a.flag(ctx, tenantID, lc)
		if err != nil {
			a.logger.Warn("retention card failed, continuing",
				zap.String("tenant_id", tenantID),
				zap.String("customer_id", lc.customerID),
				zap.Error(err))
			continue
		}
		if flagged {
			created++
		}
	}
	return created, nil
}

// flag reports whether it created a card; an open card for the same
// customer suppresses creation without consuming the run budget.
func (a *RetentionAgent) flag(ctx context.Context, tenantID string, lc lapsedCustomer) (bool, error) {
	key := lc.customerID
	existing, err := a.cards.FindOpenByDedupKey(ctx, tenantID, models.AgentTypeRetention, key)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	customer, err := a.customers.GetByID(ctx, tenantID, lc.customerID)
	if err != nil {
		return false, err
	}

	priority := retentionBasePriority + int((lc.overdueRatio-1)*15)
	if priority > retentionMaxPriority {
		priority = retentionMaxPriority
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"mean_gap_days":   lc.meanGapDays,
		"days_since_last": lc.daysSinceLast,
		"overdue_ratio":   lc.overdueRatio,
		"last_booking_at": lc.lastBooking,
	})
	cta, _ := json.Marshal([]models.CTAButton{
		{Label: "Send check-in message", Action: "send_retention_message", Variant: "primary"},
		{Label: "Book appointment", Action: "open_booking", Variant: "secondary"},
	})

	_, err = a.cards.Create(ctx, &models.ActionCard{
		TenantID: tenantID,
		Type:     models.AgentTypeRetention,
		Category: models.CategoryOpportunity,
		Priority: priority,
		Title:    fmt.Sprintf("%s is overdue for a visit", customer.Name),
		Description: fmt.Sprintf("Usually books every %.0f days but hasn't been in for %.0f days.",
			lc.meanGapDays, lc.daysSinceLast),
		SuggestedAction: "Reach out with a friendly reminder or a rebooking offer.",
		CustomerID:      strPtr(lc.customerID),
		DedupKey:        strPtr(key),
		Metadata:        metadata,
		CTAConfig:       cta,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
