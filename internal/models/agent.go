package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Registered agent types. The registry is populated with these at startup;
// AgentConfig rows reference them by value.
const (
	AgentTypeDuplicateCustomer = "DUPLICATE_CUSTOMER"
	AgentTypeRetention         = "RETENTION"
	AgentTypeScheduleGap       = "SCHEDULE_GAP"
	AgentTypeWaitlist          = "WAITLIST"
	AgentTypeStalledQuote      = "STALLED_QUOTE"
)

// AgentConfig holds per-tenant settings for one agent type.
// Uniquely keyed by (tenant_id, agent_type).
type AgentConfig struct {
	ID             string          `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID       string          `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;uniqueIndex:idx_agent_configs_tenant_type"`
	AgentType      string          `json:"agent_type" gorm:"column:agent_type;type:varchar(100);not null;uniqueIndex:idx_agent_configs_tenant_type"`
	IsEnabled      bool            `json:"is_enabled" gorm:"column:is_enabled;type:boolean;not null;default:false"`
	AutonomyLevel  AutonomyLevel   `json:"autonomy_level" gorm:"column:autonomy_level;type:varchar(20);not null;default:'ASSISTED'"`
	Config         json.RawMessage `json:"config,omitempty" gorm:"column:config;type:jsonb"`
	RoleVisibility pq.StringArray  `json:"role_visibility" gorm:"column:role_visibility;type:text[]"`
	CreatedAt      time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (AgentConfig) TableName() string { return "agent_configs" }

// AgentConfigPatch carries partial updates for Upsert: nil fields leave
// prior values untouched.
type AgentConfigPatch struct {
	IsEnabled      *bool           `json:"is_enabled,omitempty"`
	AutonomyLevel  *AutonomyLevel  `json:"autonomy_level,omitempty"`
	Config         json.RawMessage `json:"config,omitempty"`
	RoleVisibility []string        `json:"role_visibility,omitempty"`
}

// AgentRunStatus is the terminal-state machine of one agent invocation.
type AgentRunStatus string

const (
	RunStatusRunning   AgentRunStatus = "RUNNING"
	RunStatusCompleted AgentRunStatus = "COMPLETED"
	RunStatusFailed    AgentRunStatus = "FAILED"
)

// AgentRun is the audit record of one agent execution. It doubles as the
// dedup signal for the scheduler: a run started within the overlap window
// suppresses the next invocation for the same (tenant, agent type).
type AgentRun struct {
	ID           string         `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID     string         `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index:idx_agent_runs_tenant_type"`
	AgentType    string         `json:"agent_type" gorm:"column:agent_type;type:varchar(100);not null;index:idx_agent_runs_tenant_type"`
	Status       AgentRunStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'RUNNING'"`
	CardsCreated int            `json:"cards_created" gorm:"column:cards_created;type:integer;not null;default:0"`
	Error        *string        `json:"error" gorm:"column:error;type:text"`
	StartedAt    time.Time      `json:"started_at" gorm:"column:started_at;not null;index"`
	CompletedAt  *time.Time     `json:"completed_at" gorm:"column:completed_at"`
}

func (AgentRun) TableName() string { return "agent_runs" }

// FeedbackRating is a staff verdict on a card's usefulness.
type FeedbackRating string

const (
	RatingHelpful    FeedbackRating = "HELPFUL"
	RatingNotHelpful FeedbackRating = "NOT_HELPFUL"
)

// AgentFeedback is one staff rating for one card, upserted on
// (action_card_id, staff_id).
type AgentFeedback struct {
	ID           string         `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID     string         `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	ActionCardID string         `json:"action_card_id" gorm:"column:action_card_id;type:varchar(255);not null;uniqueIndex:idx_agent_feedback_card_staff"`
	StaffID      string         `json:"staff_id" gorm:"column:staff_id;type:varchar(255);not null;uniqueIndex:idx_agent_feedback_card_staff"`
	Rating       FeedbackRating `json:"rating" gorm:"column:rating;type:varchar(20);not null"`
	Comment      *string        `json:"comment" gorm:"column:comment;type:text"`
	CreatedAt    time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (AgentFeedback) TableName() string { return "agent_feedbacks" }

// FeedbackStats aggregates helpful/not-helpful counts for a tenant,
// optionally filtered to one agent's cards.
type FeedbackStats struct {
	Helpful     int     `json:"helpful"`
	NotHelpful  int     `json:"not_helpful"`
	Total       int     `json:"total"`
	HelpfulRate float64 `json:"helpful_rate"`
}
