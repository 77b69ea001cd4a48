package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "nightingale/contexts/hospital-supply/supply-escrow-service/application"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type CreateIssuanceCommand struct {
	IdempotencyKey    string
	RequesterID       string
	AssetID           uint64
	WardName          string
	PatientID         string
	RequestedQuantity int64
	Remarks           string
}

type CreateIssuanceUseCase struct {
	Requests       ports.IssuanceRepository
	Ledger         ports.AssetLedger
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateIssuanceResult struct {
	Request  entities.IssuanceRequest
	Replayed bool
}

// Execute registers an issuance request in the pending stage. Any identity may
// request on behalf of a ward; approvals are where roles are enforced. The
// stock check here is a soft one; remaining quantity can drop before this
// request reaches issuance, so it is re-checked there.
func (uc CreateIssuanceUseCase) Execute(ctx context.Context, cmd CreateIssuanceCommand) (CreateIssuanceResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	cmd.RequesterID = strings.TrimSpace(cmd.RequesterID)
	cmd.WardName = strings.TrimSpace(cmd.WardName)
	cmd.PatientID = strings.TrimSpace(cmd.PatientID)
	cmd.Remarks = strings.TrimSpace(cmd.Remarks)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateIssuanceResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if cmd.RequesterID == "" || cmd.WardName == "" {
		return CreateIssuanceResult{}, domainerrors.ErrInvalidRequestInput
	}
	if cmd.RequestedQuantity <= 0 {
		return CreateIssuanceResult{}, domainerrors.ErrInvalidQuantity
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashFields(
		cmd.RequesterID,
		strconv.FormatUint(cmd.AssetID, 10),
		cmd.WardName,
		cmd.PatientID,
		strconv.FormatInt(cmd.RequestedQuantity, 10),
		cmd.Remarks,
	)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateIssuanceResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateIssuanceResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var replayed entities.IssuanceRequest
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return CreateIssuanceResult{}, err
		}
		return CreateIssuanceResult{Request: replayed, Replayed: true}, nil
	}

	batch, err := uc.Ledger.GetBatch(ctx, cmd.AssetID)
	if err != nil {
		return CreateIssuanceResult{}, err
	}
	if cmd.RequestedQuantity > batch.RemainingQuantity {
		return CreateIssuanceResult{}, domainerrors.ErrInsufficientStock
	}

	request, err := uc.Requests.CreateIssuance(ctx, entities.IssuanceRequest{
		AssetID:           cmd.AssetID,
		RequesterID:       cmd.RequesterID,
		WardName:          cmd.WardName,
		PatientID:         cmd.PatientID,
		RequestedQuantity: cmd.RequestedQuantity,
		Remarks:           cmd.Remarks,
		RequestedAt:       now,
		UpdatedAt:         now,
	})
	if err != nil {
		return CreateIssuanceResult{}, err
	}

	serialized, err := json.Marshal(request)
	if err != nil {
		return CreateIssuanceResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(uc.IdempotencyTTL),
	}); err != nil {
		return CreateIssuanceResult{}, err
	}

	logger.Info("issuance request created",
		"event", "issuance_request_created",
		"module", "hospital-supply/supply-escrow-service",
		"layer", "application",
		"request_id", request.RequestID,
		"asset_id", request.AssetID,
		"ward_name", request.WardName,
		"requested_quantity", request.RequestedQuantity,
	)
	return CreateIssuanceResult{Request: request}, nil
}
