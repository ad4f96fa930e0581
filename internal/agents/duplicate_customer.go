package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

const (
	dupDefaultBatchSize     = 200
	dupDefaultMaxCards      = 5
	dupDefaultMinConfidence = 0.6
)

// DuplicateCustomerAgent flags likely duplicate customer records by
// pairwise comparison of phone, email and name.
type DuplicateCustomerAgent struct {
	customers  repositories.CustomerRepository
	candidates repositories.DuplicateCandidateRepository
	cards      CardCreator
	logger     *zap.Logger
}

func NewDuplicateCustomerAgent(customers repositories.CustomerRepository, candidates repositories.DuplicateCandidateRepository, cards CardCreator, logger *zap.Logger) *DuplicateCustomerAgent {
	return &DuplicateCustomerAgent{customers: customers, candidates: candidates, cards: cards, logger: logger}
}

func (a *DuplicateCustomerAgent) Type() string { return models.AgentTypeDuplicateCustomer }

func (a *DuplicateCustomerAgent) ValidateConfig(config map[string]interface{}) bool {
	if config == nil {
		return true
	}
	return intInRange(config, "batchSize", 1, 1000) &&
		intInRange(config, "maxCardsPerRun", 1, 50) &&
		floatInRange(config, "minConfidence", 0, 1)
}

type duplicateMatch struct {
	a, b        *models.Customer
	confidence  float64
	matchFields []string
}

// CompareCustomers scores one pair. Phone-normalized equality contributes
// 0.5, case-insensitive email equality 0.4, fuzzy name similarity 0.3.
// A match requires at least two fields and the confidence floor.
func CompareCustomers(x, y *models.Customer, minConfidence float64) (float64, []string) {
	var confidence float64
	var fields []string

	if x.Phone != nil && y.Phone != nil {
		px, py := NormalizePhone(*x.Phone), NormalizePhone(*y.Phone)
		if px != "" && px == py {
			confidence += 0.5
			fields = append(fields, "phone")
		}
	}
	if x.Email != nil && y.Email != nil {
		ex, ey := strings.ToLower(strings.TrimSpace(*x.Email)), strings.ToLower(strings.TrimSpace(*y.Email))
		if ex != "" && ex == ey {
			confidence += 0.4
			fields = append(fields, "email")
		}
	}
	if NamesSimilar(x.Name, y.Name) {
		confidence += 0.3
		fields = append(fields, "name")
	}

	if len(fields) < 2 || confidence < minConfidence {
		return 0, nil
	}
	return confidence, fields
}

func (a *DuplicateCustomerAgent) Execute(ctx context.Context, tenantID string, config map[string]interface{}) (int, error) {
	batchSize := cfgInt(config, "batchSize", dupDefaultBatchSize)
	maxCards := cfgInt(config, "maxCardsPerRun", dupDefaultMaxCards)
	minConfidence := cfgFloat(config, "minConfidence", dupDefaultMinConfidence)

	customers, err := a.customers.ListBatch(ctx, tenantID, batchSize)
	if err != nil {
		return 0, fmt.Errorf("load customer batch: %w", err)
	}

	var matches []duplicateMatch
	for i := 0; i < len(customers); i++ {
		for j := i + 1; j < len(customers); j++ {
			confidence, fields := CompareCustomers(customers[i], customers[j], minConfidence)
			if fields == nil {
				continue
			}
			matches = append(matches, duplicateMatch{
				a:           customers[i],
				b:           customers[j],
				confidence:  confidence,
				matchFields: fields,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].confidence > matches[j].confidence
	})

	created := 0
	for _, m := range matches {
		if created >= maxCards {
			break
		}
		flagged, err := a.flag(ctx, tenantID, m)
		if err != nil {
			a.logger.Warn("duplicate candidate failed, continuing",
				zap.String("tenant_id", tenantID),
				zap.String("customer_a", m.a.ID),
				zap.String("customer_b", m.b.ID),
				zap.Error(err))
			continue
		}
		if flagged {
			created++
		}
	}
	return created, nil
}

// flag reports whether it created a card; a pending candidate for the
// same pair suppresses creation without consuming the run budget.
func (a *DuplicateCustomerAgent) flag(ctx context.Context, tenantID string, m duplicateMatch) (bool, error) {
	existing, err := a.candidates.FindOpenPair(ctx, tenantID, m.a.ID, m.b.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	candidate := &models.DuplicateCandidate{
		TenantID:    tenantID,
		CustomerAID: m.a.ID,
		CustomerBID: m.b.ID,
		Confidence:  m.confidence,
		MatchFields: m.matchFields,
		Status:      models.DuplicatePending,
	}
	if err := a.candidates.Create(ctx, candidate); err != nil {
		return false, err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"candidate_id":  candidate.ID,
		"customer_a_id": m.a.ID,
		"customer_b_id": m.b.ID,
		"confidence":    m.confidence,
		"match_fields":  m.matchFields,
	})
	pairA, pairB := models.OrderPair(m.a.ID, m.b.ID)
	cta, _ := json.Marshal([]models.CTAButton{
		{Label: "Review & merge", Action: "merge_customers", Variant: "primary"},
		{Label: "Keep separate", Action: "reject_duplicate", Variant: "secondary"},
	})

	_, err = a.cards.Create(ctx, &models.ActionCard{
		TenantID:        tenantID,
		Type:            models.AgentTypeDuplicateCustomer,
		Category:        models.CategoryHygiene,
		Priority:        int(40 + m.confidence*30),
		Title:           fmt.Sprintf("Possible duplicate: %s / %s", m.a.Name, m.b.Name),
		Description:     fmt.Sprintf("These customer records match on %s with %.0f%% confidence.", strings.Join(m.matchFields, ", "), m.confidence*100),
		SuggestedAction: "Review both records and merge them if they belong to the same person.",
		CustomerID:      strPtr(m.a.ID),
		DedupKey:        strPtr(dedupKey(pairA, pairB)),
		Metadata:        metadata,
		CTAConfig:       cta,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
