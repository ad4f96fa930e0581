package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/agents"
	apperrors "github.com/slotwise/slotwise/internal/errors"
	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

// AgentRegistry is the slice of the agent registry this service needs.
type AgentRegistry interface {
	Get(agentType string) (agents.Agent, bool)
	List() []string
}

// AgentService owns agent configuration, the shared invocation routine
// and the feedback loop.
type AgentService interface {
	GetConfigs(ctx context.Context, tenantID string) ([]*models.AgentConfig, error)
	GetConfig(ctx context.Context, tenantID, agentType string) (*models.AgentConfig, error)
	UpsertConfig(ctx context.Context, tenantID, agentType string, patch *models.AgentConfigPatch) (*models.AgentConfig, error)
	// TriggerAgent runs one agent synchronously for the tenant. The
	// returned run record carries the outcome; execution errors are
	// captured in it rather than returned.
	TriggerAgent(ctx context.Context, tenantID, agentType string) (*models.AgentRun, error)
	// RunAgent is the shared invocation routine used by both the manual
	// trigger and the scheduler.
	RunAgent(ctx context.Context, cfg *models.AgentConfig) (*models.AgentRun, error)
	ListRuns(ctx context.Context, tenantID, agentType string, limit int) ([]*models.AgentRun, error)
	SubmitFeedback(ctx context.Context, tenantID, cardID, staffID string, rating models.FeedbackRating, comment *string) error
	GetFeedbackStats(ctx context.Context, tenantID, agentTypePrefix string) (*models.FeedbackStats, error)
}

type agentService struct {
	registry AgentRegistry
	configs  repositories.AgentConfigRepository
	runs     repositories.AgentRunRepository
	feedback repositories.AgentFeedbackRepository
	cards    repositories.ActionCardRepository
	logger   *zap.Logger
}

// NewAgentService creates a new agent service
func NewAgentService(registry AgentRegistry, configs repositories.AgentConfigRepository, runs repositories.AgentRunRepository, feedback repositories.AgentFeedbackRepository, cards repositories.ActionCardRepository, logger *zap.Logger) AgentService {
	return &agentService{
		registry: registry,
		configs:  configs,
		runs:     runs,
		feedback: feedback,
		cards:    cards,
		logger:   logger,
	}
}

func (s *agentService) GetConfigs(ctx context.Context, tenantID string) ([]*models.AgentConfig, error) {
	return s.configs.ListByTenant(ctx, tenantID)
}

func (s *agentService) GetConfig(ctx context.Context, tenantID, agentType string) (*models.AgentConfig, error) {
	return s.configs.Get(ctx, tenantID, agentType)
}

func (s *agentService) UpsertConfig(ctx context.Context, tenantID, agentType string, patch *models.AgentConfigPatch) (*models.AgentConfig, error) {
	agent, ok := s.registry.Get(agentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAgentNotRegistered, agentType)
	}
	if patch != nil && patch.Config != nil {
		decoded, err := decodeConfig(patch.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidConfig, err)
		}
		if !agent.ValidateConfig(decoded) {
			return nil, apperrors.ErrInvalidConfig
		}
	}
	return s.configs.Upsert(ctx, tenantID, agentType, patch)
}

func (s *agentService) TriggerAgent(ctx context.Context, tenantID, agentType string) (*models.AgentRun, error) {
	if _, ok := s.registry.Get(agentType); !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAgentNotRegistered, agentType)
	}
	cfg, err := s.configs.Get(ctx, tenantID, agentType)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return nil, apperrors.ErrConfigDisabled
		}
		return nil, err
	}
	if !cfg.IsEnabled {
		return nil, apperrors.ErrConfigDisabled
	}
	return s.RunAgent(ctx, cfg)
}

// RunAgent records one RUNNING run, executes the agent, and finalizes the
// run exactly once. Execution failures end up in the run record, not in
// the returned error; only infrastructure failures around the run record
// itself propagate.
func (s *agentService) RunAgent(ctx context.Context, cfg *models.AgentConfig) (*models.AgentRun, error) {
	agent, ok := s.registry.Get(cfg.AgentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAgentNotRegistered, cfg.AgentType)
	}

	decoded, err := decodeConfig(cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidConfig, err)
	}
	if !agent.ValidateConfig(decoded) {
		return nil, apperrors.ErrInvalidConfig
	}

	run := &models.AgentRun{
		TenantID:  cfg.TenantID,
		AgentType: cfg.AgentType,
		Status:    models.RunStatusRunning,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create agent run: %w", err)
	}

	cardsCreated, execErr := agent.Execute(ctx, cfg.TenantID, decoded)
	if execErr != nil {
		msg := execErr.Error()
		if err := s.runs.Finalize(ctx, run.ID, models.RunStatusFailed, cardsCreated, &msg); err != nil {
			s.logger.Error("failed to finalize failed run",
				zap.String("run_id", run.ID), zap.Error(err))
		}
		run.Status = models.RunStatusFailed
		run.CardsCreated = cardsCreated
		run.Error = &msg
		s.logger.Warn("agent run failed",
			zap.String("tenant_id", cfg.TenantID),
			zap.String("agent_type", cfg.AgentType),
			zap.Error(execErr))
		return run, nil
	}

	if err := s.runs.Finalize(ctx, run.ID, models.RunStatusCompleted, cardsCreated, nil); err != nil {
		s.logger.Error("failed to finalize completed run",
			zap.String("run_id", run.ID), zap.Error(err))
	}
	run.Status = models.RunStatusCompleted
	run.CardsCreated = cardsCreated
	s.logger.Info("agent run completed",
		zap.String("tenant_id", cfg.TenantID),
		zap.String("agent_type", cfg.AgentType),
		zap.Int("cards_created", cardsCreated))
	return run, nil
}

func (s *agentService) ListRuns(ctx context.Context, tenantID, agentType string, limit int) ([]*models.AgentRun, error) {
	return s.runs.List(ctx, tenantID, agentType, limit)
}

func (s *agentService) SubmitFeedback(ctx context.Context, tenantID, cardID, staffID string, rating models.FeedbackRating, comment *string) error {
	if rating != models.RatingHelpful && rating != models.RatingNotHelpful {
		return &apperrors.ErrValidation{Field: "rating", Message: "must be HELPFUL or NOT_HELPFUL"}
	}
	if _, err := s.cards.GetByID(ctx, tenantID, cardID); err != nil {
		return err
	}
	return s.feedback.Upsert(ctx, &models.AgentFeedback{
		TenantID:     tenantID,
		ActionCardID: cardID,
		StaffID:      staffID,
		Rating:       rating,
		Comment:      comment,
	})
}

func (s *agentService) GetFeedbackStats(ctx context.Context, tenantID, agentTypePrefix string) (*models.FeedbackStats, error) {
	return s.feedback.Stats(ctx, tenantID, agentTypePrefix)
}

// decodeConfig unmarshals a stored JSON config; nil input is a valid,
// absent config.
func decodeConfig(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
