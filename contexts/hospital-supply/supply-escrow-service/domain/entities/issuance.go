package entities

import "time"

type IssuanceStage string

const (
	IssuanceStagePending       IssuanceStage = "pending"
	IssuanceStageStoreApproved IssuanceStage = "store_approved"
	IssuanceStageBothApproved  IssuanceStage = "both_approved"
	IssuanceStageIssued        IssuanceStage = "issued"
	IssuanceStageCancelled     IssuanceStage = "cancelled"
)

// IssuanceRequest is one ward's ask for a quantity out of a batch. It walks a
// strict chain: store approval, then admin approval, then issuance by the
// admin. Cancellation ends the request from any non-terminal stage. Requests
// are never deleted; terminal ones stay for audit.
type IssuanceRequest struct {
	RequestID         uint64
	AssetID           uint64
	RequesterID       string
	WardName          string
	PatientID         string
	RequestedQuantity int64
	Remarks           string
	StoreApproved     bool
	AdminApproved     bool
	Issued            bool
	Cancelled         bool
	CancelReason      string
	RequestedAt       time.Time
	UpdatedAt         time.Time
}

// Stage derives the state-machine position from the stored flags. The flag
// combination AdminApproved && !StoreApproved is unreachable; approvals are
// sequential and guarded before either flag is written.
func (r IssuanceRequest) Stage() IssuanceStage {
	switch {
	case r.Cancelled:
		return IssuanceStageCancelled
	case r.Issued:
		return IssuanceStageIssued
	case r.StoreApproved && r.AdminApproved:
		return IssuanceStageBothApproved
	case r.StoreApproved:
		return IssuanceStageStoreApproved
	default:
		return IssuanceStagePending
	}
}

func (r IssuanceRequest) Terminal() bool {
	return r.Issued || r.Cancelled
}

func (r IssuanceRequest) ReadyToIssue() bool {
	return r.StoreApproved && r.AdminApproved && !r.Issued && !r.Cancelled
}
