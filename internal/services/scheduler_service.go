package services

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/repositories"
)

const (
	schedulerTickSpec = "@every 5m"
	// Wall-clock budget per tick. Configs left over when it runs out are
	// picked up on the next tick.
	schedulerBudget = 50 * time.Second
	// Overlap-avoidance window, just under the tick period: an agent with
	// a run started inside it is skipped.
	schedulerRecentRunWindow = 4 * time.Minute
)

// SchedulerService is the timer-driven orchestrator that runs every
// enabled (tenant, agent type) config once per tick. A processing flag
// makes overlapping ticks of the same instance no-ops; agents run
// strictly sequentially and one failure never blocks the rest.
type SchedulerService struct {
	mu         sync.Mutex
	processing bool

	configs  repositories.AgentConfigRepository
	runs     repositories.AgentRunRepository
	registry AgentRegistry
	agents   AgentService
	logger   *zap.Logger

	budget          time.Duration
	recentRunWindow time.Duration
	now             func() time.Time

	cron *cron.Cron
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(configs repositories.AgentConfigRepository, runs repositories.AgentRunRepository, registry AgentRegistry, agents AgentService, logger *zap.Logger) *SchedulerService {
	return &SchedulerService{
		configs:         configs,
		runs:            runs,
		registry:        registry,
		agents:          agents,
		logger:          logger,
		budget:          schedulerBudget,
		recentRunWindow: schedulerRecentRunWindow,
		now:             time.Now,
	}
}

// Start begins the periodic tick. Safe to call once.
func (s *SchedulerService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedulerTickSpec, func() {
		s.Tick(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("agent scheduler started", zap.String("tick", schedulerTickSpec))
	return nil
}

// Stop halts the ticker; an in-flight tick finishes on its own.
func (s *SchedulerService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Tick processes all enabled configs once. If a tick is already in
// flight the call is a no-op.
func (s *SchedulerService) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		s.logger.Debug("tick already in flight, skipping")
		return
	}
	s.processing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	tickStart := s.now()

	configs, err := s.configs.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to load enabled agent configs", zap.Error(err))
		return
	}

	for _, cfg := range configs {
		if s.now().Sub(tickStart) > s.budget {
			s.logger.Warn("tick budget exceeded, deferring remaining configs",
				zap.Duration("budget", s.budget))
			return
		}

		if _, ok := s.registry.Get(cfg.AgentType); !ok {
			s.logger.Debug("no implementation registered for agent type, skipping",
				zap.String("agent_type", cfg.AgentType))
			continue
		}

		recent, err := s.runs.HasRecentRun(ctx, cfg.TenantID, cfg.AgentType, s.now().Add(-s.recentRunWindow))
		if err != nil {
			s.logger.Error("recent-run check failed",
				zap.String("tenant_id", cfg.TenantID),
				zap.String("agent_type", cfg.AgentType),
				zap.Error(err))
			continue
		}
		if recent {
			s.logger.Debug("agent ran recently, skipping",
				zap.String("tenant_id", cfg.TenantID),
				zap.String("agent_type", cfg.AgentType))
			continue
		}

		if _, err := s.agents.RunAgent(ctx, cfg); err != nil {
			// Unregistered types and infrastructure failures land here;
			// execution failures are already captured in the run record.
			s.logger.Warn("agent invocation failed",
				zap.String("tenant_id", cfg.TenantID),
				zap.String("agent_type", cfg.AgentType),
				zap.Error(err))
		}
	}
}
