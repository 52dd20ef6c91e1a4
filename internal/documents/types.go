// Package documents provides the persistent store of per-user document
// status records consulted by the availability gate.
package documents

import (
	"errors"
	"fmt"
	"time"
)

// Type identifies a category of user-supplied document.
type Type string

const (
	TypeBenefitsSummary   Type = "benefits_summary"
	TypeInsuranceCard     Type = "insurance_card"
	TypeClaimsHistory     Type = "claims_history"
	TypeProviderDirectory Type = "provider_directory"
)

// KnownTypes lists every recognized document type.
var KnownTypes = []Type{
	TypeBenefitsSummary,
	TypeInsuranceCard,
	TypeClaimsHistory,
	TypeProviderDirectory,
}

// ParseType validates a raw document type string.
func ParseType(s string) (Type, error) {
	for _, t := range KnownTypes {
		if Type(s) == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("documents: unknown type %q", s)
}

// Status is the ingestion state of a document.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploaded  Status = "uploaded"
	StatusReady     Status = "ready"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// UsableStatuses is the allow list of statuses a workflow may rely on.
// Anything else counts as missing.
var UsableStatuses = map[Status]bool{
	StatusReady:     true,
	StatusProcessed: true,
}

// Record is one document status entry for a user.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Status    Status    `json:"status"`
	Name      string    `json:"name,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Usable reports whether the record's status is on the allow list.
func (r Record) Usable() bool {
	return UsableStatuses[r.Status]
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("documents: record not found")
