package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"nightingale/contexts/hospital-supply/asset-registry-service/application"
	"nightingale/contexts/hospital-supply/asset-registry-service/domain/entities"
	"nightingale/contexts/hospital-supply/asset-registry-service/ports"
	httptransport "nightingale/contexts/hospital-supply/asset-registry-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// CreateBatchHandler godoc
// @Summary Register an asset batch
// @Description Registers a new medicine or equipment batch; caller must be the hospital admin.
// @Tags asset-registry
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Success 201 {object} httptransport.CreateBatchResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/assets [post]
func (h Handler) CreateBatchHandler(ctx context.Context, callerID string, req httptransport.CreateBatchRequest) (httptransport.CreateBatchResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	batch, err := h.Service.CreateBatch(ctx, callerID, application.CreateBatchInput{
		ItemKind:      entities.ItemKind(req.ItemKind),
		TotalQuantity: req.TotalQuantity,
		MetadataRef:   req.MetadataRef,
	})
	if err != nil {
		logger.Error("create batch request failed",
			"event", "http_create_batch_failed",
			"module", "hospital-supply/asset-registry-service",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.CreateBatchResponse{}, err
	}
	return httptransport.CreateBatchResponse{Item: mapBatch(batch)}, nil
}

// GetBatchHandler godoc
// @Summary Get one asset batch
// @Tags asset-registry
// @Produce json
// @Param asset_id path int true "Asset id"
// @Success 200 {object} httptransport.GetBatchResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/assets/{asset_id} [get]
func (h Handler) GetBatchHandler(ctx context.Context, assetID uint64) (httptransport.GetBatchResponse, error) {
	batch, err := h.Service.GetInfo(ctx, assetID)
	if err != nil {
		return httptransport.GetBatchResponse{}, err
	}
	return httptransport.GetBatchResponse{Item: mapBatch(batch)}, nil
}

// ListBatchesHandler godoc
// @Summary List asset batches
// @Tags asset-registry
// @Produce json
// @Param status query string false "Status filter"
// @Param item_kind query string false "Item kind filter"
// @Success 200 {object} httptransport.ListBatchesResponse
// @Router /api/supply/v1/assets [get]
func (h Handler) ListBatchesHandler(ctx context.Context, filter ports.AssetFilter) (httptransport.ListBatchesResponse, error) {
	items, err := h.Service.ListBatches(ctx, filter)
	if err != nil {
		return httptransport.ListBatchesResponse{}, err
	}
	resp := httptransport.ListBatchesResponse{Items: make([]httptransport.AssetBatchDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapBatch(item))
	}
	return resp, nil
}

// GrantAuthorityHandler godoc
// @Summary Grant or revoke movement authority
// @Description The caller delegates blanket movement authority over batches it holds.
// @Tags asset-registry
// @Accept json
// @Param X-User-Id header string true "Caller identity"
// @Success 204 "updated"
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/delegations [post]
func (h Handler) GrantAuthorityHandler(ctx context.Context, callerID string, req httptransport.GrantAuthorityRequest) error {
	return h.Service.GrantMovementAuthority(ctx, callerID, req.DelegateID, req.Granted)
}

func mapBatch(item entities.AssetBatch) httptransport.AssetBatchDTO {
	return httptransport.AssetBatchDTO{
		AssetID:           item.AssetID,
		ItemKind:          string(item.ItemKind),
		TotalQuantity:     item.TotalQuantity,
		RemainingQuantity: item.RemainingQuantity,
		Status:            string(item.Status),
		HolderID:          item.HolderID,
		WardName:          item.WardName,
		PatientID:         item.PatientID,
		MetadataRef:       item.MetadataRef,
		CreatedAt:         item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
