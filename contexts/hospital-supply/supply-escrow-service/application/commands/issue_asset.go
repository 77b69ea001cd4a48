package commands

import (
	"context"
	"log/slog"
	"strconv"

	application "nightingale/contexts/hospital-supply/supply-escrow-service/application"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
	contractsv1 "nightingale/contracts/gen/events/v1"
)

type IssueAssetCommand struct {
	RequestID uint64
	CallerID  string
}

type IssueAssetUseCase struct {
	Requests    ports.IssuanceRepository
	Ledger      ports.AssetLedger
	Directory   entities.StaffDirectory
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute performs the final issuance step. Guards run in a fixed order:
// caller role, request readiness, movement authority, stock. The repository
// then claims the request: the issued flag and the staged event commit in
// one transaction, and the claim is first-writer-wins, so two concurrent
// calls against the same request cannot both reach the ledger. If the
// ledger decrement fails after the claim, the claim is released and the
// staged event discarded.
func (uc IssueAssetUseCase) Execute(ctx context.Context, cmd IssueAssetCommand) (entities.IssuanceRequest, error) {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Directory.RoleOf(cmd.CallerID) != entities.RoleAdmin {
		return entities.IssuanceRequest{}, domainerrors.ErrUnauthorized
	}

	request, err := uc.Requests.GetIssuance(ctx, cmd.RequestID)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}
	if request.Terminal() {
		return entities.IssuanceRequest{}, domainerrors.ErrAlreadyProcessed
	}
	if !request.ReadyToIssue() {
		return entities.IssuanceRequest{}, domainerrors.ErrNotReady
	}

	authorized, err := uc.Ledger.IsAuthorizedMover(ctx, request.AssetID, cmd.CallerID)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}
	if !authorized {
		return entities.IssuanceRequest{}, domainerrors.ErrMovementUnauthorized
	}

	batch, err := uc.Ledger.GetBatch(ctx, request.AssetID)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}
	if request.RequestedQuantity > batch.RemainingQuantity {
		return entities.IssuanceRequest{}, domainerrors.ErrInsufficientStock
	}

	now := uc.Clock.Now().UTC()
	eventID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}
	// Remaining is projected from the pre-decrement snapshot so the event
	// can commit in the same transaction as the claim; the ledger call
	// below is the authoritative stock movement.
	envelope, err := newSupplyEnvelope(
		eventID,
		contractsv1.EventTypeAssetIssued,
		strconv.FormatUint(request.AssetID, 10),
		now,
		contractsv1.AssetIssuedData{
			RequestID:         request.RequestID,
			AssetID:           request.AssetID,
			WardName:          request.WardName,
			PatientID:         request.PatientID,
			IssuedQuantity:    request.RequestedQuantity,
			RemainingQuantity: batch.RemainingQuantity - request.RequestedQuantity,
			IssuedBy:          cmd.CallerID,
			IssuedAt:          now,
		},
	)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}

	request, err = uc.Requests.MarkIssuedWithOutbox(ctx, cmd.RequestID, envelope, now)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}

	if err := uc.Ledger.IssueFromBatch(ctx, request.AssetID, request.RequestedQuantity, request.WardName, request.PatientID); err != nil {
		if releaseErr := uc.Requests.ReleaseIssued(ctx, cmd.RequestID, eventID, now); releaseErr != nil {
			logger.Error("issuance claim release failed",
				"event", "issuance_claim_release_failed",
				"module", "hospital-supply/supply-escrow-service",
				"layer", "application",
				"request_id", cmd.RequestID,
				"error", releaseErr,
			)
		}
		return entities.IssuanceRequest{}, err
	}

	logger.Info("asset issued",
		"event", "asset_issued",
		"module", "hospital-supply/supply-escrow-service",
		"layer", "application",
		"request_id", request.RequestID,
		"asset_id", request.AssetID,
		"ward_name", request.WardName,
		"issued_quantity", request.RequestedQuantity,
	)
	return request, nil
}
