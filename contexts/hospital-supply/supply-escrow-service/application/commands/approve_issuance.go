package commands

import (
	"context"
	"log/slog"

	application "nightingale/contexts/hospital-supply/supply-escrow-service/application"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type ApprovalAction string

const (
	ApprovalActionStore ApprovalAction = "store_approval"
	ApprovalActionAdmin ApprovalAction = "admin_approval"
)

type ApproveIssuanceCommand struct {
	RequestID uint64
	CallerID  string
	Action    ApprovalAction
}

type ApproveIssuanceUseCase struct {
	Requests  ports.IssuanceRepository
	Directory entities.StaffDirectory
	Clock     ports.Clock
	Logger    *slog.Logger
}

// Execute advances one approval step. The chain is strictly sequential: store
// first, admin second. The legal transitions are spelled out per action so an
// out-of-order call fails typed instead of silently flipping a flag.
func (uc ApproveIssuanceUseCase) Execute(ctx context.Context, cmd ApproveIssuanceCommand) (entities.IssuanceRequest, error) {
	logger := application.ResolveLogger(uc.Logger)
	request, err := uc.Requests.GetIssuance(ctx, cmd.RequestID)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}

	role := uc.Directory.RoleOf(cmd.CallerID)
	stage := request.Stage()

	switch cmd.Action {
	case ApprovalActionStore:
		if role != entities.RoleStore {
			return entities.IssuanceRequest{}, domainerrors.ErrUnauthorized
		}
		if stage != entities.IssuanceStagePending {
			return entities.IssuanceRequest{}, domainerrors.ErrAlreadyProcessed
		}
		request.StoreApproved = true
	case ApprovalActionAdmin:
		if role != entities.RoleAdmin {
			return entities.IssuanceRequest{}, domainerrors.ErrUnauthorized
		}
		switch stage {
		case entities.IssuanceStagePending:
			return entities.IssuanceRequest{}, domainerrors.ErrOutOfOrder
		case entities.IssuanceStageStoreApproved:
			request.AdminApproved = true
		default:
			return entities.IssuanceRequest{}, domainerrors.ErrAlreadyProcessed
		}
	default:
		return entities.IssuanceRequest{}, domainerrors.ErrInvalidRequestInput
	}

	request.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Requests.UpdateIssuance(ctx, request); err != nil {
		return entities.IssuanceRequest{}, err
	}

	logger.Info("issuance request approved",
		"event", "issuance_request_approved",
		"module", "hospital-supply/supply-escrow-service",
		"layer", "application",
		"request_id", request.RequestID,
		"action", string(cmd.Action),
		"from_stage", string(stage),
		"to_stage", string(request.Stage()),
	)
	return request, nil
}
