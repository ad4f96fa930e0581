package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/slotwise/slotwise/internal/db"
	apperrors "github.com/slotwise/slotwise/internal/errors"
	"github.com/slotwise/slotwise/internal/models"
)

type agentConfigRepository struct {
	db *db.DB
}

// NewAgentConfigRepository creates a new agent config repository
func NewAgentConfigRepository(database *db.DB) AgentConfigRepository {
	return &agentConfigRepository{db: database}
}

func (r *agentConfigRepository) Get(ctx context.Context, tenantID, agentType string) (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	err := r.db.WithContext(ctx).
		First(&cfg, "tenant_id = ? AND agent_type = ?", tenantID, agentType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent config: %w", err)
	}
	return &cfg, nil
}

func (r *agentConfigRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.AgentConfig, error) {
	var configs []*models.AgentConfig
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("agent_type ASC").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list agent configs: %w", err)
	}
	return configs, nil
}

// ListEnabled returns every enabled config across tenants, ordered by
// agent type so each scheduler tick processes them deterministically.
func (r *agentConfigRepository) ListEnabled(ctx context.Context) ([]*models.AgentConfig, error) {
	var configs []*models.AgentConfig
	err := r.db.WithContext(ctx).
		Where("is_enabled = ?", true).
		Order("agent_type ASC, tenant_id ASC").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled agent configs: %w", err)
	}
	return configs, nil
}

func (r *agentConfigRepository) Upsert(ctx context.Context, tenantID, agentType string, patch *models.AgentConfigPatch) (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	err := r.db.WithContext(ctx).
		First(&cfg, "tenant_id = ? AND agent_type = ?", tenantID, agentType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.AgentConfig{
			ID:            uuid.NewString(),
			TenantID:      tenantID,
			AgentType:     agentType,
			AutonomyLevel: models.AutonomyAssisted,
		}
		applyConfigPatch(&cfg, patch)
		if err := r.db.WithContext(ctx).Create(&cfg).Error; err != nil {
			return nil, fmt.Errorf("failed to create agent config: %w", err)
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent config: %w", err)
	}

	applyConfigPatch(&cfg, patch)
	cfg.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(&cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to update agent config: %w", err)
	}
	return &cfg, nil
}

// applyConfigPatch copies only the fields present on the patch; absent
// fields keep their prior values.
func applyConfigPatch(cfg *models.AgentConfig, patch *models.AgentConfigPatch) {
	if patch == nil {
		return
	}
	if patch.IsEnabled != nil {
		cfg.IsEnabled = *patch.IsEnabled
	}
	if patch.AutonomyLevel != nil {
		cfg.AutonomyLevel = *patch.AutonomyLevel
	}
	if patch.Config != nil {
		cfg.Config = patch.Config
	}
	if patch.RoleVisibility != nil {
		cfg.RoleVisibility = pq.StringArray(patch.RoleVisibility)
	}
}

type agentRunRepository struct {
	db *db.DB
}

// NewAgentRunRepository creates a new agent run repository
func NewAgentRunRepository(database *db.DB) AgentRunRepository {
	return &agentRunRepository{db: database}
}

func (r *agentRunRepository) Create(ctx context.Context, run *models.AgentRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create agent run: %w", err)
	}
	return nil
}

func (r *agentRunRepository) Finalize(ctx context.Context, id string, status models.AgentRunStatus, cardsCreated int, errMsg *string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.AgentRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"cards_created": cardsCreated,
			"error":         errMsg,
			"completed_at":  now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to finalize agent run: %w", err)
	}
	return nil
}

func (r *agentRunRepository) HasRecentRun(ctx context.Context, tenantID, agentType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AgentRun{}).
		Where("tenant_id = ? AND agent_type = ? AND started_at > ?", tenantID, agentType, since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check recent runs: %w", err)
	}
	return count > 0, nil
}

func (r *agentRunRepository) List(ctx context.Context, tenantID string, agentType string, limit int) ([]*models.AgentRun, error) {
	query := r.db.WithContext(ctx).Model(&models.AgentRun{}).
		Where("tenant_id = ?", tenantID)
	if agentType != "" {
		query = query.Where("agent_type = ?", agentType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var runs []*models.AgentRun
	if err := query.Order("started_at DESC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list agent runs: %w", err)
	}
	return runs, nil
}

type agentFeedbackRepository struct {
	db *db.DB
}

// NewAgentFeedbackRepository creates a new agent feedback repository
func NewAgentFeedbackRepository(database *db.DB) AgentFeedbackRepository {
	return &agentFeedbackRepository{db: database}
}

func (r *agentFeedbackRepository) Upsert(ctx context.Context, fb *models.AgentFeedback) error {
	var existing models.AgentFeedback
	err := r.db.WithContext(ctx).
		First(&existing, "action_card_id = ? AND staff_id = ?", fb.ActionCardID, fb.StaffID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if fb.ID == "" {
			fb.ID = uuid.NewString()
		}
		if err := r.db.WithContext(ctx).Create(fb).Error; err != nil {
			return fmt.Errorf("failed to create feedback: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load feedback: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&models.AgentFeedback{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"rating":     fb.Rating,
			"comment":    fb.Comment,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	fb.ID = existing.ID
	return nil
}

func (r *agentFeedbackRepository) Stats(ctx context.Context, tenantID, agentTypePrefix string) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{}
	for _, rating := range []models.FeedbackRating{models.RatingHelpful, models.RatingNotHelpful} {
		query := r.db.WithContext(ctx).Model(&models.AgentFeedback{}).
			Joins("JOIN action_cards ON action_cards.id = agent_feedbacks.action_card_id").
			Where("agent_feedbacks.tenant_id = ? AND agent_feedbacks.rating = ?", tenantID, rating)
		if agentTypePrefix != "" {
			query = query.Where("action_cards.type LIKE ?", agentTypePrefix+"%")
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
		}
		if rating == models.RatingHelpful {
			stats.Helpful = int(count)
		} else {
			stats.NotHelpful = int(count)
		}
	}
	stats.Total = stats.Helpful + stats.NotHelpful
	if stats.Total > 0 {
		stats.HelpfulRate = float64(stats.Helpful) / float64(stats.Total) * 100
	}
	return stats, nil
}
