package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/agents"
	apperrors "github.com/slotwise/slotwise/internal/errors"
	"github.com/slotwise/slotwise/internal/models"
)

func newAgentService(registry AgentRegistry, configs *mockAgentConfigRepo, runs *mockAgentRunRepo, feedback *mockFeedbackRepo, cards *mockActionCardRepo) AgentService {
	return NewAgentService(registry, configs, runs, feedback, cards, zap.NewNop())
}

func registryWith(agentList ...agents.Agent) *agents.Registry {
	r := agents.NewRegistry()
	for _, a := range agentList {
		r.Register(a)
	}
	return r
}

func TestAgentService_RunAgentSuccess(t *testing.T) {
	agent := newFakeAgent("RETENTION")
	agent.cards = 3
	runs := &mockAgentRunRepo{}
	svc := newAgentService(registryWith(agent), &mockAgentConfigRepo{}, runs, &mockFeedbackRepo{}, newMockActionCardRepo())

	cfg := &models.AgentConfig{TenantID: "t1", AgentType: "RETENTION", IsEnabled: true, Config: []byte(`{"multiplier": 2.0}`)}
	run, err := svc.RunAgent(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.CardsCreated)
	assert.Nil(t, run.Error)
	assert.Equal(t, 2.0, agent.lastCfg["multiplier"], "stored config must reach the agent decoded")

	recorded := runs.Runs()
	require.Len(t, recorded, 1)
	assert.Equal(t, models.RunStatusCompleted, recorded[0].Status)
	assert.NotNil(t, recorded[0].CompletedAt)
}

func TestAgentService_RunAgentExecutionFailureCaptured(t *testing.T) {
	agent := newFakeAgent("RETENTION")
	agent.err = errors.New("query timed out")
	runs := &mockAgentRunRepo{}
	svc := newAgentService(registryWith(agent), &mockAgentConfigRepo{}, runs, &mockFeedbackRepo{}, newMockActionCardRepo())

	run, err := svc.RunAgent(context.Background(), &models.AgentConfig{TenantID: "t1", AgentType: "RETENTION"})
	require.NoError(t, err, "execution failure lands in the run record, not the error")
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.NotNil(t, run.Error)
	assert.Equal(t, "query timed out", *run.Error)
}

func TestAgentService_RunAgentRejectsBadStoredConfig(t *testing.T) {
	agent := newFakeAgent("RETENTION")
	svc := newAgentService(registryWith(agent), &mockAgentConfigRepo{}, &mockAgentRunRepo{}, &mockFeedbackRepo{}, newMockActionCardRepo())

	_, err := svc.RunAgent(context.Background(), &models.AgentConfig{TenantID: "t1", AgentType: "RETENTION", Config: []byte("{broken")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	assert.Zero(t, agent.Calls())
}

func TestAgentService_TriggerAgent(t *testing.T) {
	agent := newFakeAgent("WAITLIST")
	configs := &mockAgentConfigRepo{configs: []*models.AgentConfig{
		{TenantID: "t1", AgentType: "WAITLIST", IsEnabled: true},
		{TenantID: "t2", AgentType: "WAITLIST", IsEnabled: false},
	}}
	svc := newAgentService(registryWith(agent), configs, &mockAgentRunRepo{}, &mockFeedbackRepo{}, newMockActionCardRepo())

	run, err := svc.TriggerAgent(context.Background(), "t1", "WAITLIST")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)

	_, err = svc.TriggerAgent(context.Background(), "t1", "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrAgentNotRegistered)

	_, err = svc.TriggerAgent(context.Background(), "t2", "WAITLIST")
	assert.ErrorIs(t, err, apperrors.ErrConfigDisabled)

	_, err = svc.TriggerAgent(context.Background(), "t3", "WAITLIST")
	assert.ErrorIs(t, err, apperrors.ErrConfigDisabled, "missing config behaves like a disabled one")
}

func TestAgentService_UpsertConfig(t *testing.T) {
	agent := newFakeAgent("RETENTION")
	configs := &mockAgentConfigRepo{}
	svc := newAgentService(registryWith(agent), configs, &mockAgentRunRepo{}, &mockFeedbackRepo{}, newMockActionCardRepo())

	enabled := true
	cfg, err := svc.UpsertConfig(context.Background(), "t1", "RETENTION", &models.AgentConfigPatch{
		IsEnabled: &enabled,
		Config:    []byte(`{"multiplier": 1.5}`),
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled)

	// Partial patch: only the flag flips, stored config survives.
	disabled := false
	cfg, err = svc.UpsertConfig(context.Background(), "t1", "RETENTION", &models.AgentConfigPatch{IsEnabled: &disabled})
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled)
	assert.JSONEq(t, `{"multiplier": 1.5}`, string(cfg.Config))

	_, err = svc.UpsertConfig(context.Background(), "t1", "NOPE", &models.AgentConfigPatch{IsEnabled: &enabled})
	assert.ErrorIs(t, err, apperrors.ErrAgentNotRegistered)

	agent.valid = false
	_, err = svc.UpsertConfig(context.Background(), "t1", "RETENTION", &models.AgentConfigPatch{Config: []byte(`{"multiplier": -4}`)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}

func TestAgentService_SubmitFeedback(t *testing.T) {
	cards := newMockActionCardRepo()
	card := &models.ActionCard{TenantID: "t1", Type: "RETENTION", Title: "x", Status: models.CardStatusPending}
	require.NoError(t, cards.Create(context.Background(), card))
	feedback := &mockFeedbackRepo{}
	svc := newAgentService(registryWith(), &mockAgentConfigRepo{}, &mockAgentRunRepo{}, feedback, cards)

	err := svc.SubmitFeedback(context.Background(), "t1", card.ID, "staff1", models.RatingHelpful, nil)
	require.NoError(t, err)
	require.Len(t, feedback.upserted, 1)

	// Same staff member changing their mind replaces the earlier rating.
	err = svc.SubmitFeedback(context.Background(), "t1", card.ID, "staff1", models.RatingNotHelpful, nil)
	require.NoError(t, err)
	require.Len(t, feedback.upserted, 1)
	assert.Equal(t, models.RatingNotHelpful, feedback.upserted[0].Rating)

	err = svc.SubmitFeedback(context.Background(), "t1", card.ID, "staff1", "MEH", nil)
	assert.True(t, apperrors.IsValidation(err))

	err = svc.SubmitFeedback(context.Background(), "t1", "missing", "staff1", models.RatingHelpful, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAgentService_GetFeedbackStats(t *testing.T) {
	feedback := &mockFeedbackRepo{stats: &models.FeedbackStats{Total: 4, Helpful: 3, HelpfulRate: 75}}
	svc := newAgentService(registryWith(), &mockAgentConfigRepo{}, &mockAgentRunRepo{}, feedback, newMockActionCardRepo())

	stats, err := svc.GetFeedbackStats(context.Background(), "t1", "RETENTION")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, float64(75), stats.HelpfulRate)
}
