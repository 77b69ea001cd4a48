package commands

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	application "nightingale/contexts/hospital-supply/supply-escrow-service/application"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
	contractsv1 "nightingale/contracts/gen/events/v1"
)

type ProcurementDecision string

const (
	ProcurementDecisionApprove ProcurementDecision = "approve"
	ProcurementDecisionReject  ProcurementDecision = "reject"
)

type ResolveProcurementCommand struct {
	RequestID    uint64
	CallerID     string
	Decision     ProcurementDecision
	ResponseText string
}

type ResolveProcurementUseCase struct {
	Requests    ports.ProcurementRepository
	Directory   entities.StaffDirectory
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute settles a procurement request exactly once. Approval does not touch
// any batch; restock happens later as an explicit batch registration by the
// admin once goods physically arrive.
func (uc ResolveProcurementUseCase) Execute(ctx context.Context, cmd ResolveProcurementCommand) (entities.ProcurementRequest, error) {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Directory.RoleOf(cmd.CallerID) != entities.RoleAdmin {
		return entities.ProcurementRequest{}, domainerrors.ErrUnauthorized
	}
	cmd.ResponseText = strings.TrimSpace(cmd.ResponseText)
	if cmd.ResponseText == "" {
		return entities.ProcurementRequest{}, domainerrors.ErrInvalidRequestInput
	}
	if cmd.Decision != ProcurementDecisionApprove && cmd.Decision != ProcurementDecisionReject {
		return entities.ProcurementRequest{}, domainerrors.ErrInvalidRequestInput
	}

	request, err := uc.Requests.GetProcurement(ctx, cmd.RequestID)
	if err != nil {
		return entities.ProcurementRequest{}, err
	}
	if request.Terminal() {
		return entities.ProcurementRequest{}, domainerrors.ErrAlreadyProcessed
	}

	now := uc.Clock.Now().UTC()
	request.Pending = false
	request.HospitalResponse = cmd.ResponseText
	request.ResolvedAt = &now
	if cmd.Decision == ProcurementDecisionApprove {
		request.Approved = true
		request.ApprovedAt = &now
	} else {
		request.Rejected = true
	}

	eventID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.ProcurementRequest{}, err
	}
	envelope, err := newSupplyEnvelope(
		eventID,
		contractsv1.EventTypeProcurementResolved,
		strconv.FormatUint(request.RequestID, 10),
		now,
		contractsv1.ProcurementResolvedData{
			RequestID:        request.RequestID,
			RequesterID:      request.RequesterID,
			ItemName:         request.ItemName,
			Quantity:         request.Quantity,
			Urgency:          string(request.Urgency),
			Decision:         string(cmd.Decision),
			HospitalResponse: request.HospitalResponse,
			ResolvedBy:       strings.TrimSpace(cmd.CallerID),
			ResolvedAt:       now,
		},
	)
	if err != nil {
		return entities.ProcurementRequest{}, err
	}

	// The resolution and its event persist together or not at all.
	if err := uc.Requests.ResolveWithOutbox(ctx, request, envelope); err != nil {
		return entities.ProcurementRequest{}, err
	}

	logger.Info("procurement request resolved",
		"event", "procurement_request_resolved",
		"module", "hospital-supply/supply-escrow-service",
		"layer", "application",
		"request_id", request.RequestID,
		"decision", string(cmd.Decision),
	)
	return request, nil
}
