package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"nightingale/contexts/hospital-supply/asset-registry-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/asset-registry-service/domain/errors"
	"nightingale/contexts/hospital-supply/asset-registry-service/ports"
)

// Service is the asset registry: it owns batch creation, quantity arithmetic
// and the holder/delegate movement-authority flags. The escrow workflow talks
// to it only through IsAuthorizedMover and IssueFromBatch.
type Service struct {
	Assets      ports.AssetRepository
	Delegations ports.DelegationRepository
	Clock       ports.Clock
	// MinterID is the one identity allowed to register new batches, fixed at
	// process initialization.
	MinterID string
	Logger   *slog.Logger
}

type CreateBatchInput struct {
	ItemKind      entities.ItemKind
	TotalQuantity int64
	MetadataRef   string
}

func (s Service) CreateBatch(ctx context.Context, callerID string, input CreateBatchInput) (entities.AssetBatch, error) {
	logger := ResolveLogger(s.Logger)
	callerID = strings.TrimSpace(callerID)
	if callerID == "" || callerID != s.MinterID {
		return entities.AssetBatch{}, domainerrors.ErrUnauthorized
	}
	if input.TotalQuantity <= 0 {
		return entities.AssetBatch{}, domainerrors.ErrInvalidQuantity
	}
	if !entities.IsSupportedItemKind(input.ItemKind) {
		return entities.AssetBatch{}, domainerrors.ErrInvalidAssetInput
	}

	now := s.now()
	batch, err := s.Assets.CreateAsset(ctx, entities.AssetBatch{
		ItemKind:          input.ItemKind,
		TotalQuantity:     input.TotalQuantity,
		RemainingQuantity: input.TotalQuantity,
		Status:            entities.AssetStatusInStore,
		HolderID:          callerID,
		MetadataRef:       strings.TrimSpace(input.MetadataRef),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return entities.AssetBatch{}, err
	}

	logger.Info("asset batch registered",
		"event", "asset_batch_registered",
		"module", "hospital-supply/asset-registry-service",
		"layer", "application",
		"asset_id", batch.AssetID,
		"item_kind", string(batch.ItemKind),
		"total_quantity", batch.TotalQuantity,
	)
	return batch, nil
}

func (s Service) GetInfo(ctx context.Context, assetID uint64) (entities.AssetBatch, error) {
	return s.Assets.GetAsset(ctx, assetID)
}

func (s Service) ListBatches(ctx context.Context, filter ports.AssetFilter) ([]entities.AssetBatch, error) {
	return s.Assets.ListAssets(ctx, filter)
}

// DecrementRemaining is internal to the supply context and never routed over
// HTTP. Issuance uses IssueFromBatch so the status change rides the same step.
func (s Service) DecrementRemaining(ctx context.Context, assetID uint64, amount int64) error {
	if amount <= 0 {
		return domainerrors.ErrInvalidQuantity
	}
	return s.Assets.DecrementRemaining(ctx, assetID, amount, s.now())
}

// IssueFromBatch re-checks remaining stock, subtracts the amount and records
// the ward/patient destination as one atomic step. Two approved requests may
// both have passed their creation-time stock check; whichever issues second
// must fail here without touching the batch.
func (s Service) IssueFromBatch(ctx context.Context, assetID uint64, amount int64, wardName string, patientID string) error {
	logger := ResolveLogger(s.Logger)
	if amount <= 0 {
		return domainerrors.ErrInvalidQuantity
	}
	wardName = strings.TrimSpace(wardName)
	if wardName == "" {
		return domainerrors.ErrInvalidAssetInput
	}

	if err := s.Assets.ApplyIssue(ctx, assetID, amount, wardName, strings.TrimSpace(patientID), s.now()); err != nil {
		return err
	}

	logger.Info("stock issued from batch",
		"event", "asset_stock_issued",
		"module", "hospital-supply/asset-registry-service",
		"layer", "application",
		"asset_id", assetID,
		"amount", amount,
		"ward_name", wardName,
	)
	return nil
}

// GrantMovementAuthority lets the caller delegate (or revoke) blanket movement
// authority over batches it currently holds. The flag is per (holder, delegate)
// pair; it is not an ownership transfer.
func (s Service) GrantMovementAuthority(ctx context.Context, callerID string, delegateID string, granted bool) error {
	logger := ResolveLogger(s.Logger)
	callerID = strings.TrimSpace(callerID)
	delegateID = strings.TrimSpace(delegateID)
	if callerID == "" || delegateID == "" || callerID == delegateID {
		return domainerrors.ErrInvalidAssetInput
	}

	if err := s.Delegations.SetDelegation(ctx, entities.Delegation{
		HolderID:   callerID,
		DelegateID: delegateID,
		Granted:    granted,
		UpdatedAt:  s.now(),
	}); err != nil {
		return err
	}

	logger.Info("movement authority updated",
		"event", "movement_authority_updated",
		"module", "hospital-supply/asset-registry-service",
		"layer", "application",
		"holder_id", callerID,
		"delegate_id", delegateID,
		"granted", granted,
	)
	return nil
}

// IsAuthorizedMover reports whether the caller may move the batch: either it
// is the current holder, or the current holder has delegated to it.
func (s Service) IsAuthorizedMover(ctx context.Context, assetID uint64, callerID string) (bool, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return false, nil
	}
	batch, err := s.Assets.GetAsset(ctx, assetID)
	if err != nil {
		return false, err
	}
	if batch.HolderID == callerID {
		return true, nil
	}
	return s.Delegations.HasDelegation(ctx, batch.HolderID, callerID)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
