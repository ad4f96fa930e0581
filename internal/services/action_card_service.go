package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/slotwise/slotwise/internal/errors"
	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
)

// ActionCardService governs the card lifecycle. Staff actions succeed
// only from the statuses the state machine allows; expiry and unsnoozing
// run autonomously from the housekeeping tick.
type ActionCardService interface {
	Create(ctx context.Context, card *models.ActionCard) (*models.ActionCard, error)
	FindOpenByDedupKey(ctx context.Context, tenantID, cardType, dedupKey string) (*models.ActionCard, error)
	GetByID(ctx context.Context, tenantID, id string) (*models.ActionCard, error)
	List(ctx context.Context, tenantID string, filter *models.ActionCardFilter) ([]*models.ActionCard, int, error)
	PendingCount(ctx context.Context, tenantID string) (int, error)
	Approve(ctx context.Context, tenantID, id, staffID, staffName string) (*models.ActionCard, error)
	Dismiss(ctx context.Context, tenantID, id, staffID, staffName string) (*models.ActionCard, error)
	Snooze(ctx context.Context, tenantID, id string, until time.Time, staffID string) (*models.ActionCard, error)
	Execute(ctx context.Context, tenantID, id, staffID, staffName string) (*models.ActionCard, error)
	ExpireCards(ctx context.Context) error
	UnsnoozeCards(ctx context.Context) error
}

type actionCardService struct {
	repo     repositories.ActionCardRepository
	notifier Notifier
	audit    AuditService // nullable collaborator
	logger   *zap.Logger
	now      func() time.Time
}

// NewActionCardService creates a new action card service. The audit
// service may be nil.
func NewActionCardService(repo repositories.ActionCardRepository, notifier Notifier, audit AuditService, logger *zap.Logger) ActionCardService {
	return &actionCardService{repo: repo, notifier: notifier, audit: audit, logger: logger, now: time.Now}
}

func (s *actionCardService) Create(ctx context.Context, card *models.ActionCard) (*models.ActionCard, error) {
	if card.TenantID == "" {
		return nil, &apperrors.ErrValidation{Field: "tenant_id", Message: "required"}
	}
	if card.Title == "" {
		return nil, &apperrors.ErrValidation{Field: "title", Message: "required"}
	}
	if card.Priority == 0 {
		card.Priority = 50
	}
	if card.AutonomyLevel == "" {
		card.AutonomyLevel = models.AutonomyAssisted
	}
	card.Status = models.CardStatusPending

	if err := s.repo.Create(ctx, card); err != nil {
		return nil, err
	}
	s.notifier.Notify(EventCardNew, card)
	return card, nil
}

func (s *actionCardService) FindOpenByDedupKey(ctx context.Context, tenantID, cardType, dedupKey string) (*models.ActionCard, error) {
	return s.repo.FindOpenByDedupKey(ctx, tenantID, cardType, dedupKey)
}

func (s *actionCardService) GetByID(ctx context.Context, tenantID, id string) (*models.ActionCard, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *actionCardService) List(ctx context.Context, tenantID string, filter *models.ActionCardFilter) ([]*models.ActionCard, int, error) {
	cards, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (s *actionCardService) PendingCount(ctx context.Context, tenantID string) (int, error) {
	return s.repo.CountPending(ctx, tenantID)
}

func (s *actionCardService) Approve(ctx context.Context, tenantID, id, staffID, staffName string) (*models.ActionCard, error) {
	return s.transition(ctx, tenantID, id, "approve", staffID, staffName,
		[]models.ActionCardStatus{models.CardStatusPending},
		map[string]interface{}{
			"status":         models.CardStatusApproved,
			"resolved_by_id": staffID,
			"resolved_at":    s.now(),
		})
}

func (s *actionCardService) Dismiss(ctx context.Context, tenantID, id, staffID, staffName string) (*models.ActionCard, error) {
	return s.transition(ctx, tenantID, id, "dismiss", staffID, staffName,
		[]models.ActionCardStatus{models.CardStatusPending},
		map[string]interface{}{
			"status":         models.CardStatusDismissed,
			"resolved_by_id": staffID,
			"resolved_at":    s.now(),
		})
}

func (s *actionCardService) Snooze(ctx context.Context, tenantID, id string, until time.Time, staffID string) (*models.ActionCard, error) {
	if !until.After(s.now()) {
		return nil, &apperrors.ErrValidation{Field: "until", Message: "must be in the future"}
	}
	return s.transition(ctx, tenantID, id, "snooze", staffID, "",
		[]models.ActionCardStatus{models.CardStatusPending},
		map[string]interface{}{
			"status":        models.CardStatusSnoozed,
			"snoozed_until": until,
		})
}

func (s *actionCardService) Execute(ctx context.Context, tenantID, id, staffID, staffName string) (*models.ActionCard, error) {
	return s.transition(ctx, tenantID, id, "execute", staffID, staffName,
		[]models.ActionCardStatus{models.CardStatusPending, models.CardStatusApproved},
		map[string]interface{}{
			"status":         models.CardStatusExecuted,
			"resolved_by_id": staffID,
			"resolved_at":    s.now(),
		})
}

// transition performs the conditional status write shared by every staff
// action. A zero-row update means the card is gone or in a disallowed
// status; re-reading distinguishes the two.
func (s *actionCardService) transition(ctx context.Context, tenantID, id, action, staffID, staffName string, allowed []models.ActionCardStatus, updates map[string]interface{}) (*models.ActionCard, error) {
	rows, err := s.repo.UpdateStatusIfCurrent(ctx, tenantID, id, allowed, updates)
	if err != nil {
		return nil, fmt.Errorf("%s card: %w", action, err)
	}
	if rows == 0 {
		card, getErr := s.repo.GetByID(ctx, tenantID, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &apperrors.ErrInvalidState{Action: action, Status: string(card.Status)}
	}

	card, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(EventCardUpdated, card)
	s.emitAudit(tenantID, id, action, staffID, staffName)
	return card, nil
}

// emitAudit records the action asynchronously. The caller's success path
// never waits on the audit write; failures are only logged.
func (s *actionCardService) emitAudit(tenantID, cardID, action, staffID, staffName string) {
	if s.audit == nil {
		return
	}
	entry := &AuditEntry{
		TenantID:     tenantID,
		ActionCardID: cardID,
		Action:       action,
		StaffID:      staffID,
		StaffName:    staffName,
		At:           s.now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.audit.RecordCardAction(ctx, entry); err != nil {
			s.logger.Warn("audit write failed",
				zap.String("tenant_id", tenantID),
				zap.String("card_id", cardID),
				zap.String("action", action),
				zap.Error(err))
		}
	}()
}

func (s *actionCardService) ExpireCards(ctx context.Context) error {
	count, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return fmt.Errorf("expire cards: %w", err)
	}
	if count > 0 {
		s.logger.Info("expired action cards", zap.Int64("count", count))
	}
	return nil
}

func (s *actionCardService) UnsnoozeCards(ctx context.Context) error {
	count, err := s.repo.UnsnoozeDue(ctx, s.now())
	if err != nil {
		return fmt.Errorf("unsnooze cards: %w", err)
	}
	if count > 0 {
		s.logger.Info("unsnoozed action cards", zap.Int64("count", count))
	}
	return nil
}
