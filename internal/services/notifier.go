package services

import (
	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/models"
)

// Event names consumed by the external real-time notifier.
const (
	EventCardNew     = "action-card:new"
	EventCardUpdated = "action-card:updated"
)

// Notifier delivers card events to the real-time push layer. Delivery is
// best-effort; implementations must not block card operations.
type Notifier interface {
	Notify(event string, card *models.ActionCard)
}

// logNotifier is the default sink when no push layer is wired: it just
// logs the event.
type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs events instead of pushing them
func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(event string, card *models.ActionCard) {
	n.logger.Debug("card event",
		zap.String("event", event),
		zap.String("tenant_id", card.TenantID),
		zap.String("card_id", card.ID),
		zap.String("type", card.Type),
		zap.String("status", string(card.Status)))
}
