package bootstrap

import (
	"context"
	"errors"

	registryapp "nightingale/contexts/hospital-supply/asset-registry-service/application"
	registryerrors "nightingale/contexts/hospital-supply/asset-registry-service/domain/errors"
	escrowerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	escrowports "nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

// RegistryLedger adapts the asset registry service to the escrow's ledger
// port. Registry sentinel errors are translated so the escrow's error mapping
// works without importing the registry.
type RegistryLedger struct {
	Registry registryapp.Service
}

func (l RegistryLedger) GetBatch(ctx context.Context, assetID uint64) (escrowports.BatchView, error) {
	batch, err := l.Registry.GetInfo(ctx, assetID)
	if err != nil {
		return escrowports.BatchView{}, translateRegistryError(err)
	}
	return escrowports.BatchView{
		AssetID:           batch.AssetID,
		ItemKind:          string(batch.ItemKind),
		TotalQuantity:     batch.TotalQuantity,
		RemainingQuantity: batch.RemainingQuantity,
		Status:            string(batch.Status),
		HolderID:          batch.HolderID,
	}, nil
}

func (l RegistryLedger) IsAuthorizedMover(ctx context.Context, assetID uint64, callerID string) (bool, error) {
	authorized, err := l.Registry.IsAuthorizedMover(ctx, assetID, callerID)
	if err != nil {
		return false, translateRegistryError(err)
	}
	return authorized, nil
}

func (l RegistryLedger) IssueFromBatch(ctx context.Context, assetID uint64, amount int64, wardName string, patientID string) error {
	if err := l.Registry.IssueFromBatch(ctx, assetID, amount, wardName, patientID); err != nil {
		return translateRegistryError(err)
	}
	return nil
}

func translateRegistryError(err error) error {
	switch {
	case errors.Is(err, registryerrors.ErrAssetNotFound):
		return escrowerrors.ErrAssetNotFound
	case errors.Is(err, registryerrors.ErrInsufficientStock):
		return escrowerrors.ErrInsufficientStock
	case errors.Is(err, registryerrors.ErrInvalidQuantity):
		return escrowerrors.ErrInvalidQuantity
	case errors.Is(err, registryerrors.ErrInvalidAssetInput):
		return escrowerrors.ErrInvalidRequestInput
	case errors.Is(err, registryerrors.ErrUnauthorized):
		return escrowerrors.ErrMovementUnauthorized
	default:
		return err
	}
}
