package entities

import (
	"strings"
	"time"
)

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

type ProcurementState string

const (
	ProcurementStatePending  ProcurementState = "pending"
	ProcurementStateApproved ProcurementState = "approved"
	ProcurementStateRejected ProcurementState = "rejected"
)

// ProcurementRequest is a restock ask from the store manager to the hospital
// admin. It is independent of any batch: an approved request does not create
// stock by itself, replenishment is a later explicit batch registration.
type ProcurementRequest struct {
	RequestID        uint64
	RequesterID      string
	ItemName         string
	ItemType         string
	Quantity         int64
	Reason           string
	Urgency          Urgency
	AdditionalNotes  string
	Pending          bool
	Approved         bool
	Rejected         bool
	HospitalResponse string
	RequestedAt      time.Time
	ResolvedAt       *time.Time
	// ApprovedAt is only ever set on approval, never on rejection.
	ApprovedAt *time.Time
}

// State holds the exactly-one-of invariant: a request is pending until it is
// resolved, and resolved exactly once.
func (r ProcurementRequest) State() ProcurementState {
	switch {
	case r.Approved:
		return ProcurementStateApproved
	case r.Rejected:
		return ProcurementStateRejected
	default:
		return ProcurementStatePending
	}
}

func (r ProcurementRequest) Terminal() bool {
	return r.Approved || r.Rejected
}

func IsSupportedUrgency(value Urgency) bool {
	switch value {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return true
	default:
		return false
	}
}

func NormalizeUrgency(value string) Urgency {
	normalized := Urgency(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return UrgencyNormal
	}
	return normalized
}
