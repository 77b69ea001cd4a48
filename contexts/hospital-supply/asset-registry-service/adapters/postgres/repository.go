package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"nightingale/contexts/hospital-supply/asset-registry-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/asset-registry-service/domain/errors"
	"nightingale/contexts/hospital-supply/asset-registry-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) CreateAsset(ctx context.Context, batch entities.AssetBatch) (entities.AssetBatch, error) {
	row := assetModelFromEntity(batch)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.AssetBatch{}, domainerrors.ErrInvalidAssetInput
		}
		return entities.AssetBatch{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAsset(ctx context.Context, assetID uint64) (entities.AssetBatch, error) {
	var row assetModel
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AssetBatch{}, domainerrors.ErrAssetNotFound
		}
		return entities.AssetBatch{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAssets(ctx context.Context, filter ports.AssetFilter) ([]entities.AssetBatch, error) {
	tx := r.db.WithContext(ctx).Model(&assetModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.ItemKind != "" {
		tx = tx.Where("item_kind = ?", string(filter.ItemKind))
	}
	if strings.TrimSpace(filter.HolderID) != "" {
		tx = tx.Where("holder_id = ?", strings.TrimSpace(filter.HolderID))
	}

	var rows []assetModel
	if err := tx.Order("asset_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.AssetBatch, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// DecrementRemaining guards the stock check and the subtraction with one
// conditional UPDATE so concurrent issuers cannot both drain the same units.
func (r *Repository) DecrementRemaining(ctx context.Context, assetID uint64, amount int64, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&assetModel{}).
		Where("asset_id = ? AND remaining_quantity >= ?", assetID, amount).
		Updates(map[string]any{
			"remaining_quantity": gorm.Expr("remaining_quantity - ?", amount),
			"updated_at":         now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyStockFailure(ctx, assetID)
	}
	return nil
}

func (r *Repository) ApplyIssue(ctx context.Context, assetID uint64, amount int64, wardName string, patientID string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&assetModel{}).
		Where("asset_id = ? AND remaining_quantity >= ?", assetID, amount).
		Updates(map[string]any{
			"remaining_quantity": gorm.Expr("remaining_quantity - ?", amount),
			"status":             string(entities.IssuedStatus(patientID)),
			"ward_name":          wardName,
			"patient_id":         patientID,
			"updated_at":         now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyStockFailure(ctx, assetID)
	}
	return nil
}

func (r *Repository) classifyStockFailure(ctx context.Context, assetID uint64) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&assetModel{}).
		Where("asset_id = ?", assetID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainerrors.ErrAssetNotFound
	}
	return domainerrors.ErrInsufficientStock
}

func (r *Repository) SetDelegation(ctx context.Context, delegation entities.Delegation) error {
	row := delegationModel{
		HolderID:   strings.TrimSpace(delegation.HolderID),
		DelegateID: strings.TrimSpace(delegation.DelegateID),
		Granted:    delegation.Granted,
		UpdatedAt:  delegation.UpdatedAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "holder_id"}, {Name: "delegate_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"granted", "updated_at"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) HasDelegation(ctx context.Context, holderID string, delegateID string) (bool, error) {
	var row delegationModel
	err := r.db.WithContext(ctx).
		Where("holder_id = ? AND delegate_id = ?", strings.TrimSpace(holderID), strings.TrimSpace(delegateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return row.Granted, nil
}

type assetModel struct {
	AssetID           uint64    `gorm:"column:asset_id;primaryKey;autoIncrement"`
	ItemKind          string    `gorm:"column:item_kind"`
	TotalQuantity     int64     `gorm:"column:total_quantity"`
	RemainingQuantity int64     `gorm:"column:remaining_quantity"`
	Status            string    `gorm:"column:status"`
	HolderID          string    `gorm:"column:holder_id"`
	WardName          string    `gorm:"column:ward_name"`
	PatientID         string    `gorm:"column:patient_id"`
	MetadataRef       string    `gorm:"column:metadata_ref"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (assetModel) TableName() string {
	return "asset_batches"
}

func assetModelFromEntity(item entities.AssetBatch) assetModel {
	return assetModel{
		AssetID:           item.AssetID,
		ItemKind:          string(item.ItemKind),
		TotalQuantity:     item.TotalQuantity,
		RemainingQuantity: item.RemainingQuantity,
		Status:            string(item.Status),
		HolderID:          strings.TrimSpace(item.HolderID),
		WardName:          strings.TrimSpace(item.WardName),
		PatientID:         strings.TrimSpace(item.PatientID),
		MetadataRef:       strings.TrimSpace(item.MetadataRef),
		CreatedAt:         item.CreatedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
	}
}

func (m assetModel) toEntity() entities.AssetBatch {
	return entities.AssetBatch{
		AssetID:           m.AssetID,
		ItemKind:          entities.ItemKind(m.ItemKind),
		TotalQuantity:     m.TotalQuantity,
		RemainingQuantity: m.RemainingQuantity,
		Status:            entities.AssetStatus(m.Status),
		HolderID:          m.HolderID,
		WardName:          m.WardName,
		PatientID:         m.PatientID,
		MetadataRef:       m.MetadataRef,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

type delegationModel struct {
	HolderID   string    `gorm:"column:holder_id;primaryKey"`
	DelegateID string    `gorm:"column:delegate_id;primaryKey"`
	Granted    bool      `gorm:"column:granted"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (delegationModel) TableName() string {
	return "movement_delegations"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
