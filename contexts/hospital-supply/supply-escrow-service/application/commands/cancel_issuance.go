package commands

import (
	"context"
	"log/slog"
	"strings"

	application "nightingale/contexts/hospital-supply/supply-escrow-service/application"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type CancelIssuanceCommand struct {
	RequestID uint64
	CallerID  string
	Reason    string
}

type CancelIssuanceUseCase struct {
	Requests  ports.IssuanceRepository
	Directory entities.StaffDirectory
	Clock     ports.Clock
	Logger    *slog.Logger
}

// Execute cancels a request from any non-terminal stage. Only the store
// manager or the admin may cancel; issued requests are immutable history.
func (uc CancelIssuanceUseCase) Execute(ctx context.Context, cmd CancelIssuanceCommand) (entities.IssuanceRequest, error) {
	logger := application.ResolveLogger(uc.Logger)
	role := uc.Directory.RoleOf(cmd.CallerID)
	if role != entities.RoleStore && role != entities.RoleAdmin {
		return entities.IssuanceRequest{}, domainerrors.ErrUnauthorized
	}

	request, err := uc.Requests.GetIssuance(ctx, cmd.RequestID)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}
	if request.Terminal() {
		return entities.IssuanceRequest{}, domainerrors.ErrAlreadyProcessed
	}

	request.Cancelled = true
	request.CancelReason = strings.TrimSpace(cmd.Reason)
	request.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Requests.UpdateIssuance(ctx, request); err != nil {
		return entities.IssuanceRequest{}, err
	}

	logger.Info("issuance request cancelled",
		"event", "issuance_request_cancelled",
		"module", "hospital-supply/supply-escrow-service",
		"layer", "application",
		"request_id", request.RequestID,
		"cancelled_by_role", string(role),
	)
	return request, nil
}
