package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

const (
	quoteDefaultStaleDays = 7
	quoteDefaultMinAmount = 100
	quoteDefaultMaxCards  = 10

	quoteBasePriority = 55
	quoteMaxPriority  = 80
)

// StalledQuoteAgent flags pending quotes that have sat unanswered past
// the staleness threshold, largest amounts first.
type StalledQuoteAgent struct {
	quotes    repositories.QuoteRepository
	customers repositories.CustomerRepository
	cards     CardCreator
	logger    *zap.Logger
	now       func() time.Time
}

func NewStalledQuoteAgent(quotes repositories.QuoteRepository, customers repositories.CustomerRepository, cards CardCreator, logger *zap.Logger) *StalledQuoteAgent {
	return &StalledQuoteAgent{quotes: quotes, customers: customers, cards: cards, logger: logger, now: time.Now}
}

func (a *StalledQuoteAgent) Type() string { return models.AgentTypeStalledQuote }

func (a *StalledQuoteAgent) ValidateConfig(config map[string]interface{}) bool {
	if config == nil {
		return true
	}
	return intInRange(config, "staleDays", 1, 90) &&
		floatInRange(config, "minAmount", 0, 1e9) &&
		intInRange(config, "maxCardsPerRun", 1, 50)
}

func (a *StalledQuoteAgent) Execute(ctx context.Context, tenantID string, config map[string]interface{}) (int, error) {
	staleDays := cfgInt(config, "staleDays", quoteDefaultStaleDays)
	minAmount := decimal.NewFromFloat(cfgFloat(config, "minAmount", quoteDefaultMinAmount))
	maxCards := cfgInt(config, "maxCardsPerRun", quoteDefaultMaxCards)

	now := a.now()
	sentBefore := now.AddDate(0, 0, -staleDays)

	quotes, err := a.quotes.ListStalled(ctx, tenantID, sentBefore, minAmount)
	if err != nil {
		return 0, fmt.Errorf("load stalled quotes: %w", err)
	}

	created := 0
	for _, q := range quotes {
		if created >= maxCards {
			break
		}
		flagged, err := a.flag(ctx, tenantID, q, now)
		if err != nil {
			a.logger.Warn("stalled quote card failed, continuing",
				zap.String("tenant_id", tenantID),
				zap.String("quote_id", q.ID),
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
// quote suppresses creation without consuming the run budget.
func (a *StalledQuoteAgent) flag(ctx context.Context, tenantID string, q *models.Quote, now time.Time) (bool, error) {
	existing, err := a.cards.FindOpenByDedupKey(ctx, tenantID, models.AgentTypeStalledQuote, q.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	customer, err := a.customers.GetByID(ctx, tenantID, q.CustomerID)
	if err != nil {
		return false, err
	}

	daysStalled := int(now.Sub(q.SentAt).Hours() / 24)
	priority := quoteBasePriority + daysStalled
	if priority > quoteMaxPriority {
		priority = quoteMaxPriority
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"quote_id":     q.ID,
		"amount":       q.Amount.String(),
		"sent_at":      q.SentAt,
		"days_stalled": daysStalled,
	})
	cta, _ := json.Marshal([]models.CTAButton{
		{Label: "Send follow-up", Action: "follow_up_quote", Variant: "primary"},
		{Label: "Mark declined", Action: "decline_quote", Variant: "secondary"},
	})

	_, err = a.cards.Create(ctx, &models.ActionCard{
		TenantID:        tenantID,
		Type:            models.AgentTypeStalledQuote,
		Category:        models.CategoryOpportunity,
		Priority:        priority,
		Title:           fmt.Sprintf("Quote for %s (%s) has gone quiet", customer.Name, q.Amount.StringFixed(2)),
		Description:     fmt.Sprintf("Sent %d days ago with no response.", daysStalled),
		SuggestedAction: "Follow up before the customer loses interest.",
		CustomerID:      strPtr(q.CustomerID),
		DedupKey:        strPtr(q.ID),
		Metadata:        metadata,
		CTAConfig:       cta,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
