package queries

import (
	"context"
	"log/slog"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type GetIssuanceQuery struct {
	RequestID uint64
}

type GetIssuanceUseCase struct {
	Requests ports.IssuanceRepository
	Logger   *slog.Logger
}

type GetIssuanceResult struct {
	Request entities.IssuanceRequest
}

func (uc GetIssuanceUseCase) Execute(ctx context.Context, q GetIssuanceQuery) (GetIssuanceResult, error) {
	request, err := uc.Requests.GetIssuance(ctx, q.RequestID)
	if err != nil {
		return GetIssuanceResult{}, err
	}
	return GetIssuanceResult{Request: request}, nil
}
