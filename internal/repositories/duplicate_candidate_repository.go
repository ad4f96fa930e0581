package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slotwise/slotwise/internal/db"
	"github.com/slotwise/slotwise/internal/models"
)

type duplicateCandidateRepository struct {
	db *db.DB
}

// NewDuplicateCandidateRepository creates a new duplicate candidate repository
func NewDuplicateCandidateRepository(database *db.DB) DuplicateCandidateRepository {
	return &duplicateCandidateRepository{db: database}
}

func (r *duplicateCandidateRepository) Create(ctx context.Context, c *models.DuplicateCandidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CustomerAID, c.CustomerBID = models.OrderPair(c.CustomerAID, c.CustomerBID)
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create duplicate candidate: %w", err)
	}
	return nil
}

func (r *duplicateCandidateRepository) FindOpenPair(ctx context.Context, tenantID, customerA, customerB string) (*models.DuplicateCandidate, error) {
	a, b := models.OrderPair(customerA, customerB)
	var c models.DuplicateCandidate
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_a_id = ? AND customer_b_id = ? AND status = ?",
			tenantID, a, b, models.DuplicatePending).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up duplicate pair: %w", err)
	}
	return &c, nil
}

func (r *duplicateCandidateRepository) Resolve(ctx context.Context, tenantID, id string, status models.DuplicateCandidateStatus) error {
	err := r.db.WithContext(ctx).Model(&models.DuplicateCandidate{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to resolve duplicate candidate: %w", err)
	}
	return nil
}
