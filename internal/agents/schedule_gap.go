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
	gapDefaultLookaheadDays = 7
	gapDefaultMinMinutes    = 60
	gapDefaultMaxCards      = 5

	gapBasePriority = 50
	gapMaxPriority  = 75
)

// ScheduleGapAgent surfaces large unbooked holes in each staff member's
// day over a lookahead window so staff can fill or compact them.
type ScheduleGapAgent struct {
	schedule     repositories.ScheduleRepository
	availability AvailabilityReader
	cards        CardCreator
	logger       *zap.Logger
	now          func() time.Time
}

func NewScheduleGapAgent(schedule repositories.ScheduleRepository, availability AvailabilityReader, cards CardCreator, logger *zap.Logger) *ScheduleGapAgent {
	return &ScheduleGapAgent{schedule: schedule, availability: availability, cards: cards, logger: logger, now: time.Now}
}

func (a *ScheduleGapAgent) Type() string { return models.AgentTypeScheduleGap }

func (a *ScheduleGapAgent) ValidateConfig(config map[string]interface{}) bool {
	if config == nil {
		return true
	}
	return intInRange(config, "lookaheadDays", 1, 60) &&
		intInRange(config, "minGapMinutes", 15, 480) &&
		intInRange(config, "maxCardsPerRun", 1, 50)
}

// FilterGaps keeps only free intervals at least minMinutes long.
func FilterGaps(free []models.Interval, minMinutes int) []models.Interval {
	var gaps []models.Interval
	for _, iv := range free {
		if iv.Minutes() >= minMinutes {
			gaps = append(gaps, iv)
		}
	}
	return gaps
}

func (a *ScheduleGapAgent) Execute(ctx context.Context, tenantID string, config map[string]interface{}) (int, error) {
	lookaheadDays := cfgInt(config, "lookaheadDays", gapDefaultLookaheadDays)
	minMinutes := cfgInt(config, "minGapMinutes", gapDefaultMinMinutes)
	maxCards := cfgInt(config, "maxCardsPerRun", gapDefaultMaxCards)

	staff, err := a.schedule.ListActiveStaff(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("load staff: %w", err)
	}

	now := a.now()
	created := 0
	for _, s := range staff {
		for d := 0; d < lookaheadDays; d++ {
			if created >= maxCards {
				return created, nil
			}
			day := now.AddDate(0, 0, d)
			n, err := a.scanDay(ctx, tenantID, s, day, minMinutes)
			if err != nil {
				a.logger.Warn("schedule gap scan failed, continuing",
					zap.String("tenant_id", tenantID),
					zap.String("staff_id", s.ID),
					zap.String("day", dayKey(day)),
					zap.Error(err))
				continue
			}
			created += n
		}
	}
	return created, nil
}

func (a *ScheduleGapAgent) scanDay(ctx context.Context, tenantID string, staff *models.Staff, day time.Time, minMinutes int) (int, error) {
	free, err := a.availability.FreeIntervals(ctx, tenantID, staff.ID, day)
	if err != nil {
		return 0, err
	}
	gaps := FilterGaps(free, minMinutes)
	if len(gaps) == 0 {
		return 0, nil
	}

	key := dedupKey(staff.ID, dayKey(day))
	existing, err := a.cards.FindOpenByDedupKey(ctx, tenantID, models.AgentTypeScheduleGap, key)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, nil
	}

	totalMinutes := 0
	for _, g := range gaps {
		totalMinutes += g.Minutes()
	}
	priority := gapBasePriority + totalMinutes/60 + len(gaps)*2
	if priority > gapMaxPriority {
		priority = gapMaxPriority
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"staff_id":          staff.ID,
		"date":              dayKey(day),
		"gap_count":         len(gaps),
		"total_gap_minutes": totalMinutes,
	})
	preview, _ := json.Marshal(gaps)
	cta, _ := json.Marshal([]models.CTAButton{
		{Label: "Offer slots to waitlist", Action: "offer_waitlist", Variant: "primary"},
		{Label: "View schedule", Action: "open_schedule", Variant: "secondary"},
	})

	_, err = a.cards.Create(ctx, &models.ActionCard{
		TenantID: tenantID,
		Type:     models.AgentTypeScheduleGap,
		Category: models.CategoryOpportunity,
		Priority: priority,
		Title:    fmt.Sprintf("%s has %d open gap(s) on %s", staff.Name, len(gaps), day.Format("Mon Jan 2")),
		Description: fmt.Sprintf("%d minutes of unbooked time across %d gap(s) of %d+ minutes.",
			totalMinutes, len(gaps), minMinutes),
		SuggestedAction: "Fill the gaps from the waitlist or compact the day's bookings.",
		StaffID:         strPtr(staff.ID),
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
