package ports

import (
	"context"
	"time"

	"nightingale/contexts/hospital-supply/asset-registry-service/domain/entities"
)

type AssetFilter struct {
	Status   entities.AssetStatus
	ItemKind entities.ItemKind
	HolderID string
}

type AssetRepository interface {
	// CreateAsset assigns the next monotonic asset id (starting at 1) and
	// persists the batch. The stored batch is returned with its id set.
	CreateAsset(ctx context.Context, batch entities.AssetBatch) (entities.AssetBatch, error)
	GetAsset(ctx context.Context, assetID uint64) (entities.AssetBatch, error)
	ListAssets(ctx context.Context, filter AssetFilter) ([]entities.AssetBatch, error)
	// DecrementRemaining subtracts amount from the batch's remaining quantity.
	// The stock check and the subtraction are one atomic step.
	DecrementRemaining(ctx context.Context, assetID uint64, amount int64, now time.Time) error
	// ApplyIssue is DecrementRemaining plus the status/destination change, in a
	// single atomic step. This is the only mutation path used at issuance time.
	ApplyIssue(ctx context.Context, assetID uint64, amount int64, wardName string, patientID string, now time.Time) error
}

type DelegationRepository interface {
	SetDelegation(ctx context.Context, delegation entities.Delegation) error
	HasDelegation(ctx context.Context, holderID string, delegateID string) (bool, error)
}

type Clock interface {
	Now() time.Time
}
