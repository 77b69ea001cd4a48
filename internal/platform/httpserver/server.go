package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	assetregistryservice "nightingale/contexts/hospital-supply/asset-registry-service"
	registryentities "nightingale/contexts/hospital-supply/asset-registry-service/domain/entities"
	registryerrors "nightingale/contexts/hospital-supply/asset-registry-service/domain/errors"
	registryports "nightingale/contexts/hospital-supply/asset-registry-service/ports"
	registryhttp "nightingale/contexts/hospital-supply/asset-registry-service/transport/http"
	supplyescrowservice "nightingale/contexts/hospital-supply/supply-escrow-service"
	"nightingale/contexts/hospital-supply/supply-escrow-service/application/queries"
	escrowerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	escrowhttp "nightingale/contexts/hospital-supply/supply-escrow-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "nightingale/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	registry assetregistryservice.Module
	escrow   supplyescrowservice.Module
}

func New(
	registry assetregistryservice.Module,
	escrow supplyescrowservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		registry: registry,
		escrow:   escrow,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/supply/v1/assets", s.handleCreateBatch)
	s.mux.HandleFunc("GET /api/supply/v1/assets", s.handleListBatches)
	s.mux.HandleFunc("GET /api/supply/v1/assets/{asset_id}", s.handleGetBatch)
	s.mux.HandleFunc("POST /api/supply/v1/delegations", s.handleGrantAuthority)

	s.mux.HandleFunc("POST /api/supply/v1/issuance-requests", s.handleCreateIssuance)
	s.mux.HandleFunc("GET /api/supply/v1/issuance-requests", s.handleListIssuance)
	s.mux.HandleFunc("GET /api/supply/v1/issuance-requests/{request_id}", s.handleGetIssuance)
	s.mux.HandleFunc("POST /api/supply/v1/issuance-requests/{request_id}/store-approval", s.handleStoreApproval)
	s.mux.HandleFunc("POST /api/supply/v1/issuance-requests/{request_id}/admin-approval", s.handleAdminApproval)
	s.mux.HandleFunc("POST /api/supply/v1/issuance-requests/{request_id}/issue", s.handleIssueAsset)
	s.mux.HandleFunc("POST /api/supply/v1/issuance-requests/{request_id}/cancel", s.handleCancelIssuance)

	s.mux.HandleFunc("POST /api/supply/v1/procurement-requests", s.handleCreateProcurement)
	s.mux.HandleFunc("GET /api/supply/v1/procurement-requests", s.handleListProcurement)
	s.mux.HandleFunc("GET /api/supply/v1/procurement-requests/{request_id}", s.handleGetProcurement)
	s.mux.HandleFunc("POST /api/supply/v1/procurement-requests/{request_id}/approve", s.handleApproveProcurement)
	s.mux.HandleFunc("POST /api/supply/v1/procurement-requests/{request_id}/reject", s.handleRejectProcurement)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.CreateBatchHandler(r.Context(), callerID, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := registryports.AssetFilter{
		Status:   registryentities.AssetStatus(query.Get("status")),
		ItemKind: registryentities.ItemKind(query.Get("item_kind")),
		HolderID: query.Get("holder_id"),
	}

	resp, err := s.registry.Handler.ListBatchesHandler(r.Context(), filter)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseID(w, r, "asset_id", writeRegistryError)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.GetBatchHandler(r.Context(), assetID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantAuthority(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.GrantAuthorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.registry.Handler.GrantAuthorityHandler(r.Context(), callerID, req); err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateIssuance(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req escrowhttp.CreateIssuanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.CreateIssuanceHandler(
		r.Context(),
		callerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListIssuance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := queries.ListIssuanceQuery{
		PendingOnly: query.Get("pending_only") == "true",
		RequesterID: query.Get("requester_id"),
	}
	if raw := query.Get("asset_id"); raw != "" {
		assetID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeEscrowError(w, http.StatusBadRequest, "invalid_asset_id", "asset_id must be an unsigned integer")
			return
		}
		q.AssetID = assetID
	}

	resp, err := s.escrow.Handler.ListIssuanceHandler(r.Context(), q)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetIssuance(w http.ResponseWriter, r *http.Request) {
	requestID, ok := parseID(w, r, "request_id", writeEscrowError)
	if !ok {
		return
	}
	resp, err := s.escrow.Handler.GetIssuanceHandler(r.Context(), requestID)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStoreApproval(w http.ResponseWriter, r *http.Request) {
	s.handleIssuanceAction(w, r, s.escrow.Handler.StoreApprovalHandler)
}

func (s *Server) handleAdminApproval(w http.ResponseWriter, r *http.Request) {
	s.handleIssuanceAction(w, r, s.escrow.Handler.AdminApprovalHandler)
}

func (s *Server) handleIssueAsset(w http.ResponseWriter, r *http.Request) {
	s.handleIssuanceAction(w, r, s.escrow.Handler.IssueAssetHandler)
}

func (s *Server) handleIssuanceAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, callerID string, requestID uint64) (escrowhttp.IssuanceResponse, error),
) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	requestID, ok := parseID(w, r, "request_id", writeEscrowError)
	if !ok {
		return
	}

	resp, err := action(r.Context(), callerID, requestID)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelIssuance(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	requestID, ok := parseID(w, r, "request_id", writeEscrowError)
	if !ok {
		return
	}

	var req escrowhttp.CancelIssuanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.CancelIssuanceHandler(r.Context(), callerID, requestID, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProcurement(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req escrowhttp.CreateProcurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.escrow.Handler.CreateProcurementHandler(
		r.Context(),
		callerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProcurement(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.escrow.Handler.ListProcurementHandler(r.Context(), queries.ListProcurementQuery{
		PendingOnly: query.Get("pending_only") == "true",
		RequesterID: query.Get("requester_id"),
	})
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProcurement(w http.ResponseWriter, r *http.Request) {
	requestID, ok := parseID(w, r, "request_id", writeEscrowError)
	if !ok {
		return
	}
	resp, err := s.escrow.Handler.GetProcurementHandler(r.Context(), requestID)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveProcurement(w http.ResponseWriter, r *http.Request) {
	s.handleProcurementResolution(w, r, s.escrow.Handler.ApproveProcurementHandler)
}

func (s *Server) handleRejectProcurement(w http.ResponseWriter, r *http.Request) {
	s.handleProcurementResolution(w, r, s.escrow.Handler.RejectProcurementHandler)
}

func (s *Server) handleProcurementResolution(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, callerID string, requestID uint64, req escrowhttp.ResolveProcurementRequest) (escrowhttp.ProcurementResponse, error),
) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	requestID, ok := parseID(w, r, "request_id", writeEscrowError)
	if !ok {
		return
	}

	var req escrowhttp.ResolveProcurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := action(r.Context(), callerID, requestID, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrAssetNotFound):
		writeRegistryError(w, http.StatusNotFound, "asset_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidQuantity):
		writeRegistryError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidAssetInput):
		writeRegistryError(w, http.StatusBadRequest, "invalid_asset_input", err.Error())
	case errors.Is(err, registryerrors.ErrInsufficientStock):
		writeRegistryError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, registryerrors.ErrUnauthorized):
		writeRegistryError(w, http.StatusForbidden, "unauthorized", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEscrowDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, escrowerrors.ErrRequestNotFound):
		writeEscrowError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, escrowerrors.ErrAssetNotFound):
		writeEscrowError(w, http.StatusNotFound, "asset_not_found", err.Error())
	case errors.Is(err, escrowerrors.ErrInvalidQuantity):
		writeEscrowError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, escrowerrors.ErrInvalidRequestInput):
		writeEscrowError(w, http.StatusBadRequest, "invalid_request_input", err.Error())
	case errors.Is(err, escrowerrors.ErrIdempotencyKeyRequired):
		writeEscrowError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, escrowerrors.ErrInsufficientStock):
		writeEscrowError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, escrowerrors.ErrAlreadyProcessed):
		writeEscrowError(w, http.StatusConflict, "already_processed", err.Error())
	case errors.Is(err, escrowerrors.ErrOutOfOrder):
		writeEscrowError(w, http.StatusConflict, "out_of_order", err.Error())
	case errors.Is(err, escrowerrors.ErrNotReady):
		writeEscrowError(w, http.StatusConflict, "not_ready", err.Error())
	case errors.Is(err, escrowerrors.ErrIdempotencyKeyConflict):
		writeEscrowError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, escrowerrors.ErrUnauthorized):
		writeEscrowError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, escrowerrors.ErrMovementUnauthorized):
		writeEscrowError(w, http.StatusForbidden, "movement_unauthorized", err.Error())
	default:
		writeEscrowError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeEscrowError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, escrowhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseID(w http.ResponseWriter, r *http.Request, name string, writeErr func(http.ResponseWriter, int, string, string)) (uint64, bool) {
	value, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_"+name, name+" must be an unsigned integer")
		return 0, false
	}
	return value, true
}
