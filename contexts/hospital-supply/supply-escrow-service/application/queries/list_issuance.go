package queries

import (
	"context"
	"log/slog"
	"strings"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type ListIssuanceQuery struct {
	PendingOnly bool
	AssetID     uint64
	RequesterID string
}

type ListIssuanceUseCase struct {
	Requests ports.IssuanceRepository
	Logger   *slog.Logger
}

type ListIssuanceResult struct {
	Items []entities.IssuanceRequest
}

// Execute lists requests in insertion order; the pending filter keeps only
// requests that are neither issued nor cancelled.
func (uc ListIssuanceUseCase) Execute(ctx context.Context, q ListIssuanceQuery) (ListIssuanceResult, error) {
	items, err := uc.Requests.ListIssuance(ctx, ports.IssuanceFilter{
		PendingOnly: q.PendingOnly,
		AssetID:     q.AssetID,
		RequesterID: strings.TrimSpace(q.RequesterID),
	})
	if err != nil {
		return ListIssuanceResult{}, err
	}
	return ListIssuanceResult{Items: items}, nil
}
