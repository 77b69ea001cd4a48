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

type CreateProcurementCommand struct {
	IdempotencyKey  string
	RequesterID     string
	ItemName        string
	ItemType        string
	Quantity        int64
	Reason          string
	Urgency         string
	AdditionalNotes string
}

type CreateProcurementUseCase struct {
	Requests       ports.ProcurementRepository
	Directory      entities.StaffDirectory
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateProcurementResult struct {
	Request  entities.ProcurementRequest
	Replayed bool
}

// Execute opens a replenishment request. Only the store manager may ask the
// hospital for restock.
func (uc CreateProcurementUseCase) Execute(ctx context.Context, cmd CreateProcurementCommand) (CreateProcurementResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	cmd.RequesterID = strings.TrimSpace(cmd.RequesterID)
	cmd.ItemName = strings.TrimSpace(cmd.ItemName)
	cmd.ItemType = strings.TrimSpace(cmd.ItemType)
	cmd.Reason = strings.TrimSpace(cmd.Reason)
	cmd.AdditionalNotes = strings.TrimSpace(cmd.AdditionalNotes)

	if uc.Directory.RoleOf(cmd.RequesterID) != entities.RoleStore {
		return CreateProcurementResult{}, domainerrors.ErrUnauthorized
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateProcurementResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if cmd.ItemName == "" {
		return CreateProcurementResult{}, domainerrors.ErrInvalidRequestInput
	}
	if cmd.Quantity <= 0 {
		return CreateProcurementResult{}, domainerrors.ErrInvalidQuantity
	}
	urgency := entities.NormalizeUrgency(cmd.Urgency)
	if !entities.IsSupportedUrgency(urgency) {
		return CreateProcurementResult{}, domainerrors.ErrInvalidRequestInput
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashFields(
		cmd.RequesterID,
		cmd.ItemName,
		cmd.ItemType,
		strconv.FormatInt(cmd.Quantity, 10),
		cmd.Reason,
		string(urgency),
		cmd.AdditionalNotes,
	)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateProcurementResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateProcurementResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var replayed entities.ProcurementRequest
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return CreateProcurementResult{}, err
		}
		return CreateProcurementResult{Request: replayed, Replayed: true}, nil
	}

	request, err := uc.Requests.CreateProcurement(ctx, entities.ProcurementRequest{
		RequesterID:     cmd.RequesterID,
		ItemName:        cmd.ItemName,
		ItemType:        cmd.ItemType,
		Quantity:        cmd.Quantity,
		Reason:          cmd.Reason,
		Urgency:         urgency,
		AdditionalNotes: cmd.AdditionalNotes,
		Pending:         true,
		RequestedAt:     now,
	})
	if err != nil {
		return CreateProcurementResult{}, err
	}

	serialized, err := json.Marshal(request)
	if err != nil {
		return CreateProcurementResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(uc.IdempotencyTTL),
	}); err != nil {
		return CreateProcurementResult{}, err
	}

	logger.Info("procurement request created",
		"event", "procurement_request_created",
		"module", "hospital-supply/supply-escrow-service",
		"layer", "application",
		"request_id", request.RequestID,
		"item_name", request.ItemName,
		"quantity", request.Quantity,
		"urgency", string(request.Urgency),
	)
	return CreateProcurementResult{Request: request}, nil
}
