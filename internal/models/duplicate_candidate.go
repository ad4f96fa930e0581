package models

import (
	"time"

	"github.com/lib/pq"
)

// DuplicateCandidateStatus tracks whether a flagged pair has been decided.
type DuplicateCandidateStatus string

const (
	DuplicatePending  DuplicateCandidateStatus = "PENDING"
	DuplicateMerged   DuplicateCandidateStatus = "MERGED"
	DuplicateRejected DuplicateCandidateStatus = "REJECTED"
)

// DuplicateCandidate is a flagged pairing of two customer records with the
// confidence score and matched fields that produced it. A PENDING candidate
// prevents the duplicate-customer agent from re-flagging the same pair; a
// resolved pair may be flagged again later, so the pair index is not unique.
// CustomerAID < CustomerBID always, so the pair is stored unordered.
type DuplicateCandidate struct {
	ID          string                   `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	TenantID    string                   `json:"tenant_id" gorm:"column:tenant_id;type:varchar(255);not null;index"`
	CustomerAID string                   `json:"customer_a_id" gorm:"column:customer_a_id;type:varchar(255);not null;index:idx_dup_candidates_pair"`
	CustomerBID string                   `json:"customer_b_id" gorm:"column:customer_b_id;type:varchar(255);not null;index:idx_dup_candidates_pair"`
	Confidence  float64                  `json:"confidence" gorm:"column:confidence;type:decimal(10,5);not null"`
	MatchFields pq.StringArray           `json:"match_fields" gorm:"column:match_fields;type:text[]"`
	Status      DuplicateCandidateStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`
	ResolvedAt  *time.Time               `json:"resolved_at" gorm:"column:resolved_at"`
	CreatedAt   time.Time                `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (DuplicateCandidate) TableName() string { return "duplicate_candidates" }

// OrderPair returns the two ids in canonical (ascending) order.
func OrderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
