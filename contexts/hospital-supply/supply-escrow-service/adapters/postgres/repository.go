package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateIssuance(ctx context.Context, request entities.IssuanceRequest) (entities.IssuanceRequest, error) {
	row := issuanceModelFromEntity(request)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.IssuanceRequest{}, domainerrors.ErrInvalidRequestInput
		}
		return entities.IssuanceRequest{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetIssuance(ctx context.Context, requestID uint64) (entities.IssuanceRequest, error) {
	var row issuanceModel
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.IssuanceRequest{}, domainerrors.ErrRequestNotFound
		}
		return entities.IssuanceRequest{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateIssuance(ctx context.Context, request entities.IssuanceRequest) error {
	row := issuanceModelFromEntity(request)
	// The WHERE guard keeps terminal requests immutable; a cancel racing an
	// issue loses here instead of clobbering the issued row.
	result := r.db.WithContext(ctx).
		Model(&issuanceModel{}).
		Where("request_id = ? AND issued = FALSE AND cancelled = FALSE", request.RequestID).
		Updates(map[string]any{
			"store_approved": row.StoreApproved,
			"admin_approved": row.AdminApproved,
			"issued":         row.Issued,
			"cancelled":      row.Cancelled,
			"cancel_reason":  row.CancelReason,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&issuanceModel{}).
			Where("request_id = ?", request.RequestID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrRequestNotFound
		}
		return domainerrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *Repository) MarkIssuedWithOutbox(ctx context.Context, requestID uint64, envelope ports.EventEnvelope, now time.Time) (entities.IssuanceRequest, error) {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return entities.IssuanceRequest{}, err
	}

	var row issuanceModel
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The WHERE guard makes the claim first-writer-wins: exactly one
		// caller flips the issued flag on an approved request, and the
		// outbox row commits with it or not at all.
		result := tx.Model(&issuanceModel{}).
			Where("request_id = ? AND store_approved = TRUE AND admin_approved = TRUE AND issued = FALSE AND cancelled = FALSE", requestID).
			Updates(map[string]any{
				"issued":     true,
				"updated_at": now.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var current issuanceModel
			if err := tx.Where("request_id = ?", requestID).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrRequestNotFound
				}
				return err
			}
			if current.Issued || current.Cancelled {
				return domainerrors.ErrAlreadyProcessed
			}
			return domainerrors.ErrNotReady
		}

		outboxRow := outboxModel{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			Status:    outboxStatusPending,
			CreatedAt: envelope.OccurredAt.UTC(),
		}
		if err := tx.Create(&outboxRow).Error; err != nil {
			return err
		}
		return tx.Where("request_id = ?", requestID).First(&row).Error
	})
	if err != nil {
		return entities.IssuanceRequest{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ReleaseIssued(ctx context.Context, requestID uint64, eventID string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&issuanceModel{}).
			Where("request_id = ? AND issued = TRUE AND cancelled = FALSE", requestID).
			Updates(map[string]any{
				"issued":     false,
				"updated_at": now.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrRequestNotFound
		}
		return tx.Where("outbox_id = ? AND status = ?", eventID, outboxStatusPending).
			Delete(&outboxModel{}).
			Error
	})
}

func (r *Repository) ListIssuance(ctx context.Context, filter ports.IssuanceFilter) ([]entities.IssuanceRequest, error) {
	tx := r.db.WithContext(ctx).Model(&issuanceModel{})
	if filter.PendingOnly {
		tx = tx.Where("issued = FALSE AND cancelled = FALSE")
	}
	if filter.AssetID != 0 {
		tx = tx.Where("asset_id = ?", filter.AssetID)
	}
	if strings.TrimSpace(filter.RequesterID) != "" {
		tx = tx.Where("requester_id = ?", strings.TrimSpace(filter.RequesterID))
	}

	var rows []issuanceModel
	if err := tx.Order("request_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.IssuanceRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateProcurement(ctx context.Context, request entities.ProcurementRequest) (entities.ProcurementRequest, error) {
	row := procurementModelFromEntity(request)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.ProcurementRequest{}, domainerrors.ErrInvalidRequestInput
		}
		return entities.ProcurementRequest{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetProcurement(ctx context.Context, requestID uint64) (entities.ProcurementRequest, error) {
	var row procurementModel
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ProcurementRequest{}, domainerrors.ErrRequestNotFound
		}
		return entities.ProcurementRequest{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ResolveWithOutbox(ctx context.Context, request entities.ProcurementRequest, envelope ports.EventEnvelope) error {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return err
	}
	row := procurementModelFromEntity(request)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The WHERE pending guard makes resolution first-writer-wins; a
		// losing concurrent resolve surfaces as AlreadyProcessed. The outbox
		// row commits with the resolution or not at all.
		result := tx.Model(&procurementModel{}).
			Where("request_id = ? AND pending = TRUE", request.RequestID).
			Updates(map[string]any{
				"pending":           row.Pending,
				"approved":          row.Approved,
				"rejected":          row.Rejected,
				"hospital_response": row.HospitalResponse,
				"resolved_at":       row.ResolvedAt,
				"approved_at":       row.ApprovedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&procurementModel{}).
				Where("request_id = ?", request.RequestID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrRequestNotFound
			}
			return domainerrors.ErrAlreadyProcessed
		}

		outboxRow := outboxModel{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			Status:    outboxStatusPending,
			CreatedAt: envelope.OccurredAt.UTC(),
		}
		return tx.Create(&outboxRow).Error
	})
}

func (r *Repository) ListProcurement(ctx context.Context, filter ports.ProcurementFilter) ([]entities.ProcurementRequest, error) {
	tx := r.db.WithContext(ctx).Model(&procurementModel{})
	if filter.PendingOnly {
		tx = tx.Where("pending = TRUE")
	}
	if strings.TrimSpace(filter.RequesterID) != "" {
		tx = tx.Where("requester_id = ?", strings.TrimSpace(filter.RequesterID))
	}

	var rows []procurementModel
	if err := tx.Order("request_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.ProcurementRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: row.ResponsePayload,
		ExpiresAt:       row.ExpiresAt,
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             record.Key,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return err
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND status = ?", outboxID, outboxStatusPending).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
