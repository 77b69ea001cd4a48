package v1

import "time"

// Event types published by the hospital-supply context.
const (
	EventTypeAssetIssued         = "supply.asset_issued"
	EventTypeProcurementResolved = "supply.procurement_resolved"
)

// AssetIssuedData is the Data payload for supply.asset_issued, schema version 1.
type AssetIssuedData struct {
	RequestID         uint64    `json:"request_id"`
	AssetID           uint64    `json:"asset_id"`
	WardName          string    `json:"ward_name"`
	PatientID         string    `json:"patient_id,omitempty"`
	IssuedQuantity    int64     `json:"issued_quantity"`
	RemainingQuantity int64     `json:"remaining_quantity"`
	IssuedBy          string    `json:"issued_by"`
	IssuedAt          time.Time `json:"issued_at"`
}

// ProcurementResolvedData is the Data payload for supply.procurement_resolved,
// schema version 1.
type ProcurementResolvedData struct {
	RequestID        uint64    `json:"request_id"`
	RequesterID      string    `json:"requester_id"`
	ItemName         string    `json:"item_name"`
	Quantity         int64     `json:"quantity"`
	Urgency          string    `json:"urgency"`
	Decision         string    `json:"decision"`
	HospitalResponse string    `json:"hospital_response"`
	ResolvedBy       string    `json:"resolved_by"`
	ResolvedAt       time.Time `json:"resolved_at"`
}
