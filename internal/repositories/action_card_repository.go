package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slotwise/slotwise/internal/db"
	apperrors "github.com/slotwise/slotwise/internal/errors"
	"github.com/slotwise/slotwise/internal/models"
)

type actionCardRepository struct {
	db *db.DB
}

// NewActionCardRepository creates a new action card repository
func NewActionCardRepository(database *db.DB) ActionCardRepository {
	return &actionCardRepository{db: database}
}

func (r *actionCardRepository) Create(ctx context.Context, card *models.ActionCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("failed to create action card: %w", err)
	}
	return nil
}

func (r *actionCardRepository) GetByID(ctx context.Context, tenantID, id string) (*models.ActionCard, error) {
	var card models.ActionCard
	err := r.db.WithContext(ctx).
		First(&card, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get action card: %w", err)
	}
	return &card, nil
}

func (r *actionCardRepository) applyFilter(query *gorm.DB, filter *models.ActionCardFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Type != nil && *filter.Type != "" {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.StaffID != nil && *filter.StaffID != "" {
		query = query.Where("staff_id = ?", *filter.StaffID)
	}
	return query
}

func (r *actionCardRepository) List(ctx context.Context, tenantID string, filter *models.ActionCardFilter) ([]*models.ActionCard, error) {
	if filter == nil {
		filter = &models.ActionCardFilter{}
	}
	filter.Normalize()

	var cards []*models.ActionCard
	query := r.db.WithContext(ctx).Model(&models.ActionCard{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)
	err := query.
		Order("priority DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list action cards: %w", err)
	}
	return cards, nil
}

func (r *actionCardRepository) Count(ctx context.Context, tenantID string, filter *models.ActionCardFilter) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ActionCard{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count action cards: %w", err)
	}
	return int(count), nil
}

func (r *actionCardRepository) CountPending(ctx context.Context, tenantID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActionCard{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.CardStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending cards: %w", err)
	}
	return int(count), nil
}

// UpdateStatusIfCurrent is the single conditional write all lifecycle
// transitions go through. The status predicate in the WHERE clause makes
// concurrent approve/dismiss on the same card resolve to exactly one
// winner without an explicit transaction.
func (r *actionCardRepository) UpdateStatusIfCurrent(ctx context.Context, tenantID, id string, allowed []models.ActionCardStatus, updates map[string]interface{}) (int64, error) {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.ActionCard{}).
		Where("tenant_id = ? AND id = ? AND status IN ?", tenantID, id, allowed).
		Updates(updates)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update action card: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *actionCardRepository) FindOpenByDedupKey(ctx context.Context, tenantID, cardType, dedupKey string) (*models.ActionCard, error) {
	var card models.ActionCard
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND type = ? AND dedup_key = ? AND status IN ?",
			tenantID, cardType, dedupKey,
			[]models.ActionCardStatus{models.CardStatusPending, models.CardStatusSnoozed}).
		First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up dedup key: %w", err)
	}
	return &card, nil
}

func (r *actionCardRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ActionCard{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.CardStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.CardStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire cards: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *actionCardRepository) UnsnoozeDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ActionCard{}).
		Where("status = ? AND snoozed_until IS NOT NULL AND snoozed_until <= ?", models.CardStatusSnoozed, now).
		Updates(map[string]interface{}{
			"status":        models.CardStatusPending,
			"snoozed_until": nil,
			"updated_at":    now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to unsnooze cards: %w", result.Error)
	}
	return result.RowsAffected, nil
}
