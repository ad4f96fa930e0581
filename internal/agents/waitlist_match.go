package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

const (
	waitlistDefaultLookaheadDays = 14
	waitlistDefaultTopSlots      = 3
	waitlistDefaultMaxCards      = 10

	waitlistPriority = 70
)

// WaitlistMatchAgent scans upcoming availability for slots satisfying
// each active waitlist entry's service, staff, date-range and time-window
// preferences.
type WaitlistMatchAgent struct {
	waitlist     repositories.WaitlistRepository
	customers    repositories.CustomerRepository
	availability AvailabilityReader
	cards        CardCreator
	logger       *zap.Logger
	now          func() time.Time
}

func NewWaitlistMatchAgent(waitlist repositories.WaitlistRepository, customers repositories.CustomerRepository, availability AvailabilityReader, cards CardCreator, logger *zap.Logger) *WaitlistMatchAgent {
	return &WaitlistMatchAgent{waitlist: waitlist, customers: customers, availability: availability, cards: cards, logger: logger, now: time.Now}
}

func (a *WaitlistMatchAgent) Type() string { return models.AgentTypeWaitlist }

func (a *WaitlistMatchAgent) ValidateConfig(config map[string]interface{}) bool {
	if config == nil {
		return true
	}
	return intInRange(config, "lookaheadDays", 1, 90) &&
		intInRange(config, "topSlots", 1, 10) &&
		intInRange(config, "maxCardsPerRun", 1, 50)
}

// SlotMatchesWindow checks a slot against an entry's minutes-from-midnight
// time window. A zero WindowEnd means no time-of-day preference.
func SlotMatchesWindow(slot models.Slot, entry *models.WaitlistEntry) bool {
	if entry.WindowEnd == 0 {
		return true
	}
	startMin := slot.Start.Hour()*60 + slot.Start.Minute()
	endMin := startMin + int(slot.End.Sub(slot.Start)/time.Minute)
	return startMin >= entry.WindowStart && endMin <= entry.WindowEnd
}

func (a *WaitlistMatchAgent) Execute(ctx context.Context, tenantID string, config map[string]interface{}) (int, error) {
	lookaheadDays := cfgInt(config, "lookaheadDays", waitlistDefaultLookaheadDays)
	topSlots := cfgInt(config, "topSlots", waitlistDefaultTopSlots)
	maxCards := cfgInt(config, "maxCardsPerRun", waitlistDefaultMaxCards)

	entries, err := a.waitlist.ListActive(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("load waitlist: %w", err)
	}

	created := 0
	for _, entry := range entries {
		if created >= maxCards {
			break
		}
		n, err := a.matchEntry(ctx, tenantID, entry, lookaheadDays, topSlots)
		if err != nil {
			a.logger.Warn("waitlist match failed, continuing",
				zap.String("tenant_id", tenantID),
				zap.String("entry_id", entry.ID),
				zap.Error(err))
			continue
		}
		created += n
	}
	return created, nil
}

func (a *WaitlistMatchAgent) matchEntry(ctx context.Context, tenantID string, entry *models.WaitlistEntry, lookaheadDays, topSlots int) (int, error) {
	key := entry.ID
	existing, err := a.cards.FindOpenByDedupKey(ctx, tenantID, models.AgentTypeWaitlist, key)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, nil
	}

	now := a.now()
	duration := time.Duration(entry.DurationMinutes) * time.Minute
	preferredStaff := ""
	if entry.PreferredStaffID != nil {
		preferredStaff = *entry.PreferredStaffID
	}

	var found []models.Slot
	for d := 0; d < lookaheadDays && len(found) < topSlots; d++ {
		day := now.AddDate(0, 0, d)
		if day.Before(entry.DateFrom.AddDate(0, 0, -1)) || day.After(entry.DateTo) {
			continue
		}
		slots, err := a.availability.OpenSlots(ctx, tenantID, day, duration, preferredStaff)
		if err != nil {
			return 0, err
		}
		for _, slot := range slots {
			if !SlotMatchesWindow(slot, entry) {
				continue
			}
			found = append(found, slot)
			if len(found) >= topSlots {
				break
			}
		}
	}
	if len(found) == 0 {
		return 0, nil
	}

	customer, err := a.customers.GetByID(ctx, tenantID, entry.CustomerID)
	if err != nil {
		return 0, err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"waitlist_entry_id": entry.ID,
		"service_name":      entry.ServiceName,
		"slot_count":        len(found),
	})
	preview, _ := json.Marshal(found)
	cta, _ := json.Marshal([]models.CTAButton{
		{Label: "Offer slots", Action: "offer_waitlist_slots", Variant: "primary"},
		{Label: "Remove from waitlist", Action: "cancel_waitlist_entry", Variant: "secondary"},
	})

	_, err = a.cards.Create(ctx, &models.ActionCard{
		TenantID:        tenantID,
		Type:            models.AgentTypeWaitlist,
		Category:        models.CategoryOpportunity,
		Priority:        waitlistPriority,
		Title:           fmt.Sprintf("Slots available for %s (%s)", customer.Name, entry.ServiceName),
		Description:     fmt.Sprintf("%d matching opening(s) found within the customer's preferences.", len(found)),
		SuggestedAction: "Offer the openings to the customer before they go elsewhere.",
		CustomerID:      strPtr(entry.CustomerID),
		DedupKey:        strPtr(key),
		Metadata:        metadata,
		Preview:         preview,
		CTAConfig:       cta,
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}
