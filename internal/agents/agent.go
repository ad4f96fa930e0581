package agents

import (
	"context"
	"sort"
	"time"

	"github.com/slotwise/slotwise/internal/models"
)

// Agent is the plugin contract every detection algorithm implements.
// Execute may perform arbitrary I/O and must tolerate per-candidate
// failures; the caller records its outcome in an AgentRun either way.
// ValidateConfig is pure: a nil config is always valid, unknown keys are
// ignored, out-of-range numeric fields reject.
type Agent interface {
	Type() string
	Execute(ctx context.Context, tenantID string, config map[string]interface{}) (cardsCreated int, err error)
	ValidateConfig(config map[string]interface{}) bool
}

// CardCreator is the slice of the action card service the agents need.
type CardCreator interface {
	Create(ctx context.Context, card *models.ActionCard) (*models.ActionCard, error)
	FindOpenByDedupKey(ctx context.Context, tenantID, cardType, dedupKey string) (*models.ActionCard, error)
}

// AvailabilityReader computes free intervals and open slots; implemented
// by the availability service.
type AvailabilityReader interface {
	FreeIntervals(ctx context.Context, tenantID, staffID string, day time.Time) ([]models.Interval, error)
	OpenSlots(ctx context.Context, tenantID string, day time.Time, duration time.Duration, staffID string) ([]models.Slot, error)
}

// Registry maps agent type strings to implementations. It is constructed
// once at process start and populated with an explicit list; there is no
// self-registration magic.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry creates an empty agent registry
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent, replacing any prior registration for its type.
func (r *Registry) Register(a Agent) {
	r.agents[a.Type()] = a
}

// Get returns the registered agent for the type, if any.
func (r *Registry) Get(agentType string) (Agent, bool) {
	a, ok := r.agents[agentType]
	return a, ok
}

// List returns the registered agent types in sorted order.
func (r *Registry) List() []string {
	types := make([]string, 0, len(r.agents))
	for t := range r.agents {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Config field accessors. Agent configs arrive as decoded JSON, so
// numbers are float64; each accessor falls back to the default when the
// key is absent or the wrong shape.

func cfgInt(config map[string]interface{}, key string, def int) int {
	if config == nil {
		return def
	}
	if v, ok := config[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

func cfgFloat(config map[string]interface{}, key string, def float64) float64 {
	if config == nil {
		return def
	}
	if v, ok := config[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

// intInRange checks an optional numeric config field: absent is valid,
// present-but-not-a-number or out of [min, max] rejects.
func intInRange(config map[string]interface{}, key string, min, max int) bool {
	v, ok := config[key]
	if !ok {
		return true
	}
	f, ok := v.(float64)
	if !ok {
		return false
	}
	n := int(f)
	return n >= min && n <= max
}

func floatInRange(config map[string]interface{}, key string, min, max float64) bool {
	v, ok := config[key]
	if !ok {
		return true
	}
	f, ok := v.(float64)
	if !ok {
		return false
	}
	return f >= min && f <= max
}

func strPtr(s string) *string { return &s }

func dedupKey(parts ...string) string {
	key := parts[0]
	for _, p := range parts[1:] {
		key += ":" + p
	}
	return key
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
