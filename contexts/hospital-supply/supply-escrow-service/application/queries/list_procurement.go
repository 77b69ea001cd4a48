package queries

import (
	"context"
	"log/slog"
	"strings"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type ListProcurementQuery struct {
	PendingOnly bool
	RequesterID string
}

type ListProcurementUseCase struct {
	Requests ports.ProcurementRepository
	Logger   *slog.Logger
}

type ListProcurementResult struct {
	Items []entities.ProcurementRequest
}

func (uc ListProcurementUseCase) Execute(ctx context.Context, q ListProcurementQuery) (ListProcurementResult, error) {
	items, err := uc.Requests.ListProcurement(ctx, ports.ProcurementFilter{
		PendingOnly: q.PendingOnly,
		RequesterID: strings.TrimSpace(q.RequesterID),
	})
	if err != nil {
		return ListProcurementResult{}, err
	}
	return ListProcurementResult{Items: items}, nil
}
