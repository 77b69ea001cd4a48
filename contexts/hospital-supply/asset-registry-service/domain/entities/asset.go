package entities

import (
	"strings"
	"time"
)

type ItemKind string
type AssetStatus string

const (
	ItemKindMedicine  ItemKind = "medicine"
	ItemKindEquipment ItemKind = "equipment"

	AssetStatusInStore         AssetStatus = "in_store"
	AssetStatusIssuedToWard    AssetStatus = "issued_to_ward"
	AssetStatusIssuedToPatient AssetStatus = "issued_to_patient"
	AssetStatusExpired         AssetStatus = "expired"
	AssetStatusDisposed        AssetStatus = "disposed"
)

// AssetBatch is one registered quantity of a medicine or equipment item.
// RemainingQuantity only ever moves down, through issuance.
type AssetBatch struct {
	AssetID           uint64
	ItemKind          ItemKind
	TotalQuantity     int64
	RemainingQuantity int64
	Status            AssetStatus
	HolderID          string
	WardName          string
	PatientID         string
	MetadataRef       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (b AssetBatch) QuantityConserved() bool {
	return b.RemainingQuantity >= 0 && b.RemainingQuantity <= b.TotalQuantity
}

// IssuedStatus picks the post-issuance status: batches allocated directly to a
// patient are tracked separately from ward stock.
func IssuedStatus(patientID string) AssetStatus {
	if strings.TrimSpace(patientID) != "" {
		return AssetStatusIssuedToPatient
	}
	return AssetStatusIssuedToWard
}

func IsSupportedItemKind(value ItemKind) bool {
	switch value {
	case ItemKindMedicine, ItemKindEquipment:
		return true
	default:
		return false
	}
}

type Delegation struct {
	HolderID   string
	DelegateID string
	Granted    bool
	UpdatedAt  time.Time
}
