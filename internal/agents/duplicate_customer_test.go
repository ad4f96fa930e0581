package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/models"
)

func strp(s string) *string { return &s }

func TestCompareCustomers_PhoneAndFuzzyName(t *testing.T) {
	a := &models.Customer{ID: "c1", Name: "Jane Doe", Phone: strp("+1 (555) 123-4567")}
	b := &models.Customer{ID: "c2", Name: "Jane Do", Phone: strp("555-123-4567")}

	confidence, fields := CompareCustomers(a, b, 0.6)
	require.NotNil(t, fields)
	assert.GreaterOrEqual(t, confidence, 0.6)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "name")
}

func TestCompareCustomers_SingleFieldNeverMatches(t *testing.T) {
	a := &models.Customer{ID: "c1", Name: "Jane Doe"}
	b := &models.Customer{ID: "c2", Name: "Jane Doe"}

	confidence, fields := CompareCustomers(a, b, 0.6)
	assert.Nil(t, fields, "name-only match must not qualify")
	assert.Zero(t, confidence)
}

func TestCompareCustomers_EmailAndName(t *testing.T) {
	a := &models.Customer{ID: "c1", Name: "Jane Doe", Email: strp("Jane@Example.com")}
	b := &models.Customer{ID: "c2", Name: "jane doe", Email: strp("jane@example.com")}

	confidence, fields := CompareCustomers(a, b, 0.6)
	require.NotNil(t, fields)
	assert.InDelta(t, 0.7, confidence, 0.001)
	assert.ElementsMatch(t, []string{"email", "name"}, fields)
}

func TestDuplicateCustomerAgent_Execute(t *testing.T) {
	customers := &mockCustomerRepo{customers: []*models.Customer{
		{ID: "c1", Name: "Jane Doe", Phone: strp("5551234567"), CreatedAt: time.Now().Add(-3 * time.Hour)},
		{ID: "c2", Name: "Jane Do", Phone: strp("5551234567"), CreatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: "c3", Name: "Bob Smith", Phone: strp("5550000000"), CreatedAt: time.Now().Add(-1 * time.Hour)},
	}}
	dups := &mockDuplicateRepo{}
	cards := &mockCardCreator{}
	agent := NewDuplicateCustomerAgent(customers, dups, cards, zap.NewNop())

	created, err := agent.Execute(context.Background(), "t1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, dups.created, 1)
	assert.Equal(t, "c1", dups.created[0].CustomerAID)
	assert.Equal(t, "c2", dups.created[0].CustomerBID)
	require.Len(t, cards.created, 1)
	assert.Equal(t, models.AgentTypeDuplicateCustomer, cards.created[0].Type)
	assert.Equal(t, models.CategoryHygiene, cards.created[0].Category)
}

func TestDuplicateCustomerAgent_SkipsOpenPair(t *testing.T) {
	customers := &mockCustomerRepo{customers: []*models.Customer{
		{ID: "c1", Name: "Jane Doe", Phone: strp("5551234567")},
		{ID: "c2", Name: "Jane Do", Phone: strp("5551234567")},
	}}
	dups := &mockDuplicateRepo{open: map[string]*models.DuplicateCandidate{
		"c1:c2": {ID: "existing", Status: models.DuplicatePending},
	}}
	cards := &mockCardCreator{}
	agent := NewDuplicateCustomerAgent(customers, dups, cards, zap.NewNop())

	created, err := agent.Execute(context.Background(), "t1", nil)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, cards.created)
}

func TestDuplicateCustomerAgent_OpenPairDoesNotConsumeBudget(t *testing.T) {
	customers := &mockCustomerRepo{customers: []*models.Customer{
		{ID: "c1", Name: "Jane Doe", Phone: strp("5551234567"), Email: strp("jane@example.com")},
		{ID: "c2", Name: "Jane Doe", Phone: strp("5551234567"), Email: strp("jane@example.com")},
		{ID: "c3", Name: "Bob Smith", Phone: strp("5550000000")},
		{ID: "c4", Name: "Bob Smith", Phone: strp("5550000000")},
	}}
	dups := &mockDuplicateRepo{open: map[string]*models.DuplicateCandidate{
		"c1:c2": {ID: "existing", Status: models.DuplicatePending},
	}}
	cards := &mockCardCreator{}
	agent := NewDuplicateCustomerAgent(customers, dups, cards, zap.NewNop())

	// c1/c2 ranks highest but is already pending; with a budget of one
	// the c3/c4 pair must still get flagged.
	created, err := agent.Execute(context.Background(), "t1", map[string]interface{}{"maxCardsPerRun": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, dups.created, 1)
	assert.Equal(t, "c3", dups.created[0].CustomerAID)
	assert.Equal(t, "c4", dups.created[0].CustomerBID)
}

func TestDuplicateCustomerAgent_ValidateConfig(t *testing.T) {
	agent := &DuplicateCustomerAgent{}
	assert.True(t, agent.ValidateConfig(nil))
	assert.True(t, agent.ValidateConfig(map[string]interface{}{"batchSize": float64(100), "unknownKey": "ignored"}))
	assert.False(t, agent.ValidateConfig(map[string]interface{}{"batchSize": float64(0)}))
	assert.False(t, agent.ValidateConfig(map[string]interface{}{"minConfidence": float64(1.5)}))
	assert.False(t, agent.ValidateConfig(map[string]interface{}{"maxCardsPerRun": "five"}))
}
