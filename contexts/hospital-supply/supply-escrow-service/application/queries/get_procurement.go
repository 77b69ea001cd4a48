package queries

import (
	"context"
	"log/slog"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type GetProcurementQuery struct {
	RequestID uint64
}

type GetProcurementUseCase struct {
	Requests ports.ProcurementRepository
	Logger   *slog.Logger
}

type GetProcurementResult struct {
	Request entities.ProcurementRequest
}

func (uc GetProcurementUseCase) Execute(ctx context.Context, q GetProcurementQuery) (GetProcurementResult, error) {
	request, err := uc.Requests.GetProcurement(ctx, q.RequestID)
	if err != nil {
		return GetProcurementResult{}, err
	}
	return GetProcurementResult{Request: request}, nil
}
