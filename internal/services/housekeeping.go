package services

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const housekeepingTickSpec = "@every 1m"

// Housekeeping drives the autonomous card transitions: expiring overdue
// PENDING cards and waking SNOOZED ones, once per minute.
type Housekeeping struct {
	cards  ActionCardService
	logger *zap.Logger
	cron   *cron.Cron
}

// NewHousekeeping creates the housekeeping ticker
func NewHousekeeping(cards ActionCardService, logger *zap.Logger) *Housekeeping {
	return &Housekeeping{cards: cards, logger: logger}
}

// Start begins the periodic tick.
func (h *Housekeeping) Start() error {
	h.cron = cron.New()
	if _, err := h.cron.AddFunc(housekeepingTickSpec, func() {
		h.Tick(context.Background())
	}); err != nil {
		return err
	}
	h.cron.Start()
	h.logger.Info("card housekeeping started", zap.String("tick", housekeepingTickSpec))
	return nil
}

// Stop halts the ticker.
func (h *Housekeeping) Stop() {
	if h.cron != nil {
		h.cron.Stop()
	}
}

// Tick runs both autonomous transitions; each failure is logged
// independently so one never blocks the other.
func (h *Housekeeping) Tick(ctx context.Context) {
	if err := h.cards.ExpireCards(ctx); err != nil {
		h.logger.Error("expire pass failed", zap.Error(err))
	}
	if err := h.cards.UnsnoozeCards(ctx); err != nil {
		h.logger.Error("unsnooze pass failed", zap.Error(err))
	}
}
