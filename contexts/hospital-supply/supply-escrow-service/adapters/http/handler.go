package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "nightingale/contexts/hospital-supply/supply-escrow-service/application"
	"nightingale/contexts/hospital-supply/supply-escrow-service/application/commands"
	"nightingale/contexts/hospital-supply/supply-escrow-service/application/queries"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	httptransport "nightingale/contexts/hospital-supply/supply-escrow-service/transport/http"
)

// Handler is the escrow coordinator's single API surface: issuance and
// procurement workflow operations plus their queries.
type Handler struct {
	CreateIssuance     commands.CreateIssuanceUseCase
	ApproveIssuance    commands.ApproveIssuanceUseCase
	IssueAsset         commands.IssueAssetUseCase
	CancelIssuance     commands.CancelIssuanceUseCase
	CreateProcurement  commands.CreateProcurementUseCase
	ResolveProcurement commands.ResolveProcurementUseCase
	GetIssuance        queries.GetIssuanceUseCase
	ListIssuance       queries.ListIssuanceUseCase
	GetProcurement     queries.GetProcurementUseCase
	ListProcurement    queries.ListProcurementUseCase
	Logger             *slog.Logger
}

// CreateIssuanceHandler godoc
// @Summary Create an issuance request
// @Description Opens a ward's request for a quantity out of a batch; pending until approved by store then admin.
// @Tags supply-escrow
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param Idempotency-Key header string true "Idempotency key"
// @Success 201 {object} httptransport.IssuanceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/issuance-requests [post]
func (h Handler) CreateIssuanceHandler(ctx context.Context, callerID string, idempotencyKey string, req httptransport.CreateIssuanceRequest) (httptransport.IssuanceResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	result, err := h.CreateIssuance.Execute(ctx, commands.CreateIssuanceCommand{
		IdempotencyKey:    idempotencyKey,
		RequesterID:       callerID,
		AssetID:           req.AssetID,
		WardName:          req.WardName,
		PatientID:         req.PatientID,
		RequestedQuantity: req.RequestedQuantity,
		Remarks:           req.Remarks,
	})
	if err != nil {
		logger.Error("create issuance request failed",
			"event", "http_create_issuance_failed",
			"module", "hospital-supply/supply-escrow-service",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.IssuanceResponse{}, err
	}
	return httptransport.IssuanceResponse{Item: mapIssuance(result.Request), Replayed: result.Replayed}, nil
}

// StoreApprovalHandler godoc
// @Summary Approve an issuance request as store manager
// @Tags supply-escrow
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.IssuanceResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/issuance-requests/{request_id}/store-approval [post]
func (h Handler) StoreApprovalHandler(ctx context.Context, callerID string, requestID uint64) (httptransport.IssuanceResponse, error) {
	request, err := h.ApproveIssuance.Execute(ctx, commands.ApproveIssuanceCommand{
		RequestID: requestID,
		CallerID:  callerID,
		Action:    commands.ApprovalActionStore,
	})
	if err != nil {
		return httptransport.IssuanceResponse{}, err
	}
	return httptransport.IssuanceResponse{Item: mapIssuance(request)}, nil
}

// AdminApprovalHandler godoc
// @Summary Approve an issuance request as hospital admin
// @Description Requires the store approval to have happened first.
// @Tags supply-escrow
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.IssuanceResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/issuance-requests/{request_id}/admin-approval [post]
func (h Handler) AdminApprovalHandler(ctx context.Context, callerID string, requestID uint64) (httptransport.IssuanceResponse, error) {
	request, err := h.ApproveIssuance.Execute(ctx, commands.ApproveIssuanceCommand{
		RequestID: requestID,
		CallerID:  callerID,
		Action:    commands.ApprovalActionAdmin,
	})
	if err != nil {
		return httptransport.IssuanceResponse{}, err
	}
	return httptransport.IssuanceResponse{Item: mapIssuance(request)}, nil
}

// IssueAssetHandler godoc
// @Summary Execute an approved issuance
// @Description Re-checks stock atomically and moves the quantity to the ward/patient.
// @Tags supply-escrow
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.IssuanceResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/issuance-requests/{request_id}/issue [post]
func (h Handler) IssueAssetHandler(ctx context.Context, callerID string, requestID uint64) (httptransport.IssuanceResponse, error) {
	request, err := h.IssueAsset.Execute(ctx, commands.IssueAssetCommand{
		RequestID: requestID,
		CallerID:  callerID,
	})
	if err != nil {
		return httptransport.IssuanceResponse{}, err
	}
	return httptransport.IssuanceResponse{Item: mapIssuance(request)}, nil
}

// CancelIssuanceHandler godoc
// @Summary Cancel an issuance request
// @Tags supply-escrow
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.IssuanceResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/issuance-requests/{request_id}/cancel [post]
func (h Handler) CancelIssuanceHandler(ctx context.Context, callerID string, requestID uint64, req httptransport.CancelIssuanceRequest) (httptransport.IssuanceResponse, error) {
	request, err := h.CancelIssuance.Execute(ctx, commands.CancelIssuanceCommand{
		RequestID: requestID,
		CallerID:  callerID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.IssuanceResponse{}, err
	}
	return httptransport.IssuanceResponse{Item: mapIssuance(request)}, nil
}

// GetIssuanceHandler godoc
// @Summary Get one issuance request
// @Tags supply-escrow
// @Produce json
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.IssuanceResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/issuance-requests/{request_id} [get]
func (h Handler) GetIssuanceHandler(ctx context.Context, requestID uint64) (httptransport.IssuanceResponse, error) {
	result, err := h.GetIssuance.Execute(ctx, queries.GetIssuanceQuery{RequestID: requestID})
	if err != nil {
		return httptransport.IssuanceResponse{}, err
	}
	return httptransport.IssuanceResponse{Item: mapIssuance(result.Request)}, nil
}

// ListIssuanceHandler godoc
// @Summary List issuance requests
// @Tags supply-escrow
// @Produce json
// @Param pending query bool false "Only requests that are neither issued nor cancelled"
// @Success 200 {object} httptransport.ListIssuanceResponse
// @Router /api/supply/v1/issuance-requests [get]
func (h Handler) ListIssuanceHandler(ctx context.Context, q queries.ListIssuanceQuery) (httptransport.ListIssuanceResponse, error) {
	result, err := h.ListIssuance.Execute(ctx, q)
	if err != nil {
		return httptransport.ListIssuanceResponse{}, err
	}
	resp := httptransport.ListIssuanceResponse{Items: make([]httptransport.IssuanceRequestDTO, 0, len(result.Items))}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, mapIssuance(item))
	}
	return resp, nil
}

// CreateProcurementHandler godoc
// @Summary Create a procurement request
// @Description Store manager asks the hospital admin for restock.
// @Tags supply-escrow
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param Idempotency-Key header string true "Idempotency key"
// @Success 201 {object} httptransport.ProcurementResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/procurement-requests [post]
func (h Handler) CreateProcurementHandler(ctx context.Context, callerID string, idempotencyKey string, req httptransport.CreateProcurementRequest) (httptransport.ProcurementResponse, error) {
	result, err := h.CreateProcurement.Execute(ctx, commands.CreateProcurementCommand{
		IdempotencyKey:  idempotencyKey,
		RequesterID:     callerID,
		ItemName:        req.ItemName,
		ItemType:        req.ItemType,
		Quantity:        req.Quantity,
		Reason:          req.Reason,
		Urgency:         req.Urgency,
		AdditionalNotes: req.AdditionalNotes,
	})
	if err != nil {
		return httptransport.ProcurementResponse{}, err
	}
	return httptransport.ProcurementResponse{Item: mapProcurement(result.Request), Replayed: result.Replayed}, nil
}

// ApproveProcurementHandler godoc
// @Summary Approve a procurement request
// @Tags supply-escrow
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.ProcurementResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/procurement-requests/{request_id}/approve [post]
func (h Handler) ApproveProcurementHandler(ctx context.Context, callerID string, requestID uint64, req httptransport.ResolveProcurementRequest) (httptransport.ProcurementResponse, error) {
	return h.resolveProcurement(ctx, callerID, requestID, commands.ProcurementDecisionApprove, req.Response)
}

// RejectProcurementHandler godoc
// @Summary Reject a procurement request
// @Tags supply-escrow
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.ProcurementResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/procurement-requests/{request_id}/reject [post]
func (h Handler) RejectProcurementHandler(ctx context.Context, callerID string, requestID uint64, req httptransport.ResolveProcurementRequest) (httptransport.ProcurementResponse, error) {
	return h.resolveProcurement(ctx, callerID, requestID, commands.ProcurementDecisionReject, req.Response)
}

func (h Handler) resolveProcurement(ctx context.Context, callerID string, requestID uint64, decision commands.ProcurementDecision, response string) (httptransport.ProcurementResponse, error) {
	request, err := h.ResolveProcurement.Execute(ctx, commands.ResolveProcurementCommand{
		RequestID:    requestID,
		CallerID:     callerID,
		Decision:     decision,
		ResponseText: response,
	})
	if err != nil {
		return httptransport.ProcurementResponse{}, err
	}
	return httptransport.ProcurementResponse{Item: mapProcurement(request)}, nil
}

// GetProcurementHandler godoc
// @Summary Get one procurement request
// @Tags supply-escrow
// @Produce json
// @Param request_id path int true "Request id"
// @Success 200 {object} httptransport.ProcurementResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/supply/v1/procurement-requests/{request_id} [get]
func (h Handler) GetProcurementHandler(ctx context.Context, requestID uint64) (httptransport.ProcurementResponse, error) {
	result, err := h.GetProcurement.Execute(ctx, queries.GetProcurementQuery{RequestID: requestID})
	if err != nil {
		return httptransport.ProcurementResponse{}, err
	}
	return httptransport.ProcurementResponse{Item: mapProcurement(result.Request)}, nil
}

// ListProcurementHandler godoc
// @Summary List procurement requests
// @Tags supply-escrow
// @Produce json
// @Param pending query bool false "Only unresolved requests"
// @Param requester_id query string false "Filter by requester"
// @Success 200 {object} httptransport.ListProcurementResponse
// @Router /api/supply/v1/procurement-requests [get]
func (h Handler) ListProcurementHandler(ctx context.Context, q queries.ListProcurementQuery) (httptransport.ListProcurementResponse, error) {
	result, err := h.ListProcurement.Execute(ctx, q)
	if err != nil {
		return httptransport.ListProcurementResponse{}, err
	}
	resp := httptransport.ListProcurementResponse{Items: make([]httptransport.ProcurementRequestDTO, 0, len(result.Items))}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, mapProcurement(item))
	}
	return resp, nil
}

func mapIssuance(item entities.IssuanceRequest) httptransport.IssuanceRequestDTO {
	return httptransport.IssuanceRequestDTO{
		RequestID:         item.RequestID,
		AssetID:           item.AssetID,
		RequesterID:       item.RequesterID,
		WardName:          item.WardName,
		PatientID:         item.PatientID,
		RequestedQuantity: item.RequestedQuantity,
		Remarks:           item.Remarks,
		Stage:             string(item.Stage()),
		StoreApproved:     item.StoreApproved,
		AdminApproved:     item.AdminApproved,
		Issued:            item.Issued,
		Cancelled:         item.Cancelled,
		CancelReason:      item.CancelReason,
		RequestedAt:       item.RequestedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapProcurement(item entities.ProcurementRequest) httptransport.ProcurementRequestDTO {
	dto := httptransport.ProcurementRequestDTO{
		RequestID:        item.RequestID,
		RequesterID:      item.RequesterID,
		ItemName:         item.ItemName,
		ItemType:         item.ItemType,
		Quantity:         item.Quantity,
		Reason:           item.Reason,
		Urgency:          string(item.Urgency),
		AdditionalNotes:  item.AdditionalNotes,
		State:            string(item.State()),
		HospitalResponse: item.HospitalResponse,
		RequestedAt:      item.RequestedAt.UTC().Format(time.RFC3339),
	}
	if item.ResolvedAt != nil {
		dto.ResolvedAt = item.ResolvedAt.UTC().Format(time.RFC3339)
	}
	if item.ApprovedAt != nil {
		dto.ApprovedAt = item.ApprovedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
