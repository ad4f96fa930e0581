package models

import (
	"encoding/json"
	"time"
)

// ActionCardStatus is the lifecycle state of an action card.
type ActionCardStatus string

const (
	CardStatusPending   ActionCardStatus = "PENDING"
	CardStatusApproved  ActionCardStatus = "APPROVED"
	CardStatusDismissed ActionCardStatus = "DISMISSED"
	CardStatusSnoozed   ActionCardStatus = "SNOOZED"
	CardStatusExpired   ActionCardStatus = "EXPIRED"
	CardStatusExecuted  ActionCardStatus = "EXECUTED"
)

// ActionCardCategory groups cards for display ordering.
type ActionCardCategory string

const (
	CategoryUrgentToday   ActionCardCategory = "URGENT_TODAY"
	CategoryNeedsApproval ActionCardCategory = "NEEDS_APPROVAL"
	CategoryOpportunity   ActionCardCategory = "OPPORTUNITY"
	CategoryHygiene       ActionCardCategory = "HYGIENE"
)

// AutonomyLevel controls how much human confirmation a card's suggested
// action requires before execution.
type AutonomyLevel string

const (
	AutonomySuggest  AutonomyLevel = "SUGGEST"
	AutonomyAssisted AutonomyLevel = "ASSISTED"
	AutonomyAuto     AutonomyLevel = "AUTO"
)

// ActionCard represents an actionable recommendation surfaced to staff.
// Cards are never physically deleted; status is terminal or cyclical.
type ActionCard struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID string `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`

	Type     string             `json:"type" gorm:"column:type;type:varchar(100);not null;index"`
	Category ActionCardCategory `json:"category" gorm:"column:category;type:varchar(50);not null;index"`
	Priority int                `json:"priority" gorm:"column:priority;type:integer;not null;default:50"`

	Title           string          `json:"title" gorm:"column:title;type:varchar(500);not null"`
	Description     string          `json:"description" gorm:"column:description;type:text"`
	SuggestedAction string          `json:"suggested_action" gorm:"column:suggested_action;type:text"`
	Preview         json.RawMessage `json:"preview,omitempty" gorm:"column:preview;type:jsonb"`
	CTAConfig       json.RawMessage `json:"cta_config,omitempty" gorm:"column:cta_config;type:jsonb"`

	AutonomyLevel AutonomyLevel    `json:"autonomy_level" gorm:"column:autonomy_level;type:varchar(20);not null;default:'ASSISTED'"`
	Status        ActionCardStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`
	ResolvedByID  *string          `json:"resolved_by_id" gorm:"column:resolved_by_id;type:varchar(255)"`
	ResolvedAt    *time.Time       `json:"resolved_at" gorm:"column:resolved_at"`
	SnoozedUntil  *time.Time       `json:"snoozed_until" gorm:"column:snoozed_until;index"`
	ExpiresAt     *time.Time       `json:"expires_at" gorm:"column:expires_at;index"`

	// At most one relation is populated per use case.
	BookingID      *string `json:"booking_id" gorm:"column:booking_id;type:varchar(255);index"`
	CustomerID     *string `json:"customer_id" gorm:"column:customer_id;type:varchar(255);index"`
	ConversationID *string `json:"conversation_id" gorm:"column:conversation_id;type:varchar(255)"`
	StaffID        *string `json:"staff_id" gorm:"column:staff_id;type:varchar(255);index"`

	// DedupKey suppresses re-creating a card for an already-flagged
	// situation while a previous card is still open.
	DedupKey *string         `json:"dedup_key" gorm:"column:dedup_key;type:varchar(500);index"`
	Metadata json.RawMessage `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the ActionCard model
func (ActionCard) TableName() string {
	return "action_cards"
}

// CTAButton is one entry of a card's call-to-action configuration.
type CTAButton struct {
	Label   string `json:"label"`
	Action  string `json:"action"`
	Variant string `json:"variant,omitempty"`
}

// ActionCardFilter represents filters for querying action cards
type ActionCardFilter struct {
	Status   *ActionCardStatus   `json:"status,omitempty"`
	Category *ActionCardCategory `json:"category,omitempty"`
	Type     *string             `json:"type,omitempty"`
	StaffID  *string             `json:"staff_id,omitempty"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps pagination to valid bounds: page >= 1,
// page size in [1, 100] with a default of 20.
func (f *ActionCardFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// Offset returns the row offset for the normalized page.
func (f *ActionCardFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
