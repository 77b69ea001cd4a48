package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type issuanceModel struct {
	RequestID         uint64    `gorm:"column:request_id;primaryKey;autoIncrement"`
	AssetID           uint64    `gorm:"column:asset_id"`
	RequesterID       string    `gorm:"column:requester_id"`
	WardName          string    `gorm:"column:ward_name"`
	PatientID         string    `gorm:"column:patient_id"`
	RequestedQuantity int64     `gorm:"column:requested_quantity"`
	Remarks           string    `gorm:"column:remarks"`
	StoreApproved     bool      `gorm:"column:store_approved"`
	AdminApproved     bool      `gorm:"column:admin_approved"`
	Issued            bool      `gorm:"column:issued"`
	Cancelled         bool      `gorm:"column:cancelled"`
	CancelReason      string    `gorm:"column:cancel_reason"`
	RequestedAt       time.Time `gorm:"column:requested_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (issuanceModel) TableName() string {
	return "issuance_requests"
}

func issuanceModelFromEntity(item entities.IssuanceRequest) issuanceModel {
	return issuanceModel{
		RequestID:         item.RequestID,
		AssetID:           item.AssetID,
		RequesterID:       strings.TrimSpace(item.RequesterID),
		WardName:          strings.TrimSpace(item.WardName),
		PatientID:         strings.TrimSpace(item.PatientID),
		RequestedQuantity: item.RequestedQuantity,
		Remarks:           strings.TrimSpace(item.Remarks),
		StoreApproved:     item.StoreApproved,
		AdminApproved:     item.AdminApproved,
		Issued:            item.Issued,
		Cancelled:         item.Cancelled,
		CancelReason:      strings.TrimSpace(item.CancelReason),
		RequestedAt:       item.RequestedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
	}
}

func (m issuanceModel) toEntity() entities.IssuanceRequest {
	return entities.IssuanceRequest{
		RequestID:         m.RequestID,
		AssetID:           m.AssetID,
		RequesterID:       m.RequesterID,
		WardName:          m.WardName,
		PatientID:         m.PatientID,
		RequestedQuantity: m.RequestedQuantity,
		Remarks:           m.Remarks,
		StoreApproved:     m.StoreApproved,
		AdminApproved:     m.AdminApproved,
		Issued:            m.Issued,
		Cancelled:         m.Cancelled,
		CancelReason:      m.CancelReason,
		RequestedAt:       m.RequestedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

type procurementModel struct {
	RequestID        uint64     `gorm:"column:request_id;primaryKey;autoIncrement"`
	RequesterID      string     `gorm:"column:requester_id"`
	ItemName         string     `gorm:"column:item_name"`
	ItemType         string     `gorm:"column:item_type"`
	Quantity         int64      `gorm:"column:quantity"`
	Reason           string     `gorm:"column:reason"`
	Urgency          string     `gorm:"column:urgency"`
	AdditionalNotes  string     `gorm:"column:additional_notes"`
	Pending          bool       `gorm:"column:pending"`
	Approved         bool       `gorm:"column:approved"`
	Rejected         bool       `gorm:"column:rejected"`
	HospitalResponse string     `gorm:"column:hospital_response"`
	RequestedAt      time.Time  `gorm:"column:requested_at"`
	ResolvedAt       *time.Time `gorm:"column:resolved_at"`
	ApprovedAt       *time.Time `gorm:"column:approved_at"`
}

func (procurementModel) TableName() string {
	return "procurement_requests"
}

func procurementModelFromEntity(item entities.ProcurementRequest) procurementModel {
	return procurementModel{
		RequestID:        item.RequestID,
		RequesterID:      strings.TrimSpace(item.RequesterID),
		ItemName:         strings.TrimSpace(item.ItemName),
		ItemType:         strings.TrimSpace(item.ItemType),
		Quantity:         item.Quantity,
		Reason:           strings.TrimSpace(item.Reason),
		Urgency:          string(item.Urgency),
		AdditionalNotes:  strings.TrimSpace(item.AdditionalNotes),
		Pending:          item.Pending,
		Approved:         item.Approved,
		Rejected:         item.Rejected,
		HospitalResponse: strings.TrimSpace(item.HospitalResponse),
		RequestedAt:      item.RequestedAt.UTC(),
		ResolvedAt:       normalizeOptionalTime(item.ResolvedAt),
		ApprovedAt:       normalizeOptionalTime(item.ApprovedAt),
	}
}

func (m procurementModel) toEntity() entities.ProcurementRequest {
	return entities.ProcurementRequest{
		RequestID:        m.RequestID,
		RequesterID:      m.RequesterID,
		ItemName:         m.ItemName,
		ItemType:         m.ItemType,
		Quantity:         m.Quantity,
		Reason:           m.Reason,
		Urgency:          entities.Urgency(m.Urgency),
		AdditionalNotes:  m.AdditionalNotes,
		Pending:          m.Pending,
		Approved:         m.Approved,
		Rejected:         m.Rejected,
		HospitalResponse: m.HospitalResponse,
		RequestedAt:      m.RequestedAt,
		ResolvedAt:       m.ResolvedAt,
		ApprovedAt:       m.ApprovedAt,
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "escrow_idempotency_records"
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "escrow_outbox"
}

func marshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}
