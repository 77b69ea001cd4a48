package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nightingale/contexts/hospital-supply/asset-registry-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/asset-registry-service/domain/errors"
	"nightingale/contexts/hospital-supply/asset-registry-service/ports"
)

type delegationKey struct {
	holderID   string
	delegateID string
}

type Store struct {
	mu sync.RWMutex

	nextAssetID uint64
	assets      map[uint64]entities.AssetBatch
	delegations map[delegationKey]entities.Delegation
}

func NewStore() *Store {
	return &Store{
		nextAssetID: 1,
		assets:      make(map[uint64]entities.AssetBatch),
		delegations: make(map[delegationKey]entities.Delegation),
	}
}

func (s *Store) CreateAsset(_ context.Context, batch entities.AssetBatch) (entities.AssetBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch.AssetID = s.nextAssetID
	s.nextAssetID++
	s.assets[batch.AssetID] = batch
	return batch, nil
}

func (s *Store) GetAsset(_ context.Context, assetID uint64) (entities.AssetBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, exists := s.assets[assetID]
	if !exists {
		return entities.AssetBatch{}, domainerrors.ErrAssetNotFound
	}
	return batch, nil
}

func (s *Store) ListAssets(_ context.Context, filter ports.AssetFilter) ([]entities.AssetBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AssetBatch, 0, len(s.assets))
	for _, batch := range s.assets {
		if filter.Status != "" && batch.Status != filter.Status {
			continue
		}
		if filter.ItemKind != "" && batch.ItemKind != filter.ItemKind {
			continue
		}
		if filter.HolderID != "" && batch.HolderID != filter.HolderID {
			continue
		}
		items = append(items, batch)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AssetID < items[j].AssetID
	})
	return items, nil
}

func (s *Store) DecrementRemaining(_ context.Context, assetID uint64, amount int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.assets[assetID]
	if !exists {
		return domainerrors.ErrAssetNotFound
	}
	if amount > batch.RemainingQuantity {
		return domainerrors.ErrInsufficientStock
	}
	batch.RemainingQuantity -= amount
	batch.UpdatedAt = now
	s.assets[assetID] = batch
	return nil
}

func (s *Store) ApplyIssue(_ context.Context, assetID uint64, amount int64, wardName string, patientID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.assets[assetID]
	if !exists {
		return domainerrors.ErrAssetNotFound
	}
	if amount > batch.RemainingQuantity {
		return domainerrors.ErrInsufficientStock
	}
	batch.RemainingQuantity -= amount
	batch.Status = entities.IssuedStatus(patientID)
	batch.WardName = wardName
	batch.PatientID = patientID
	batch.UpdatedAt = now
	s.assets[assetID] = batch
	return nil
}

func (s *Store) SetDelegation(_ context.Context, delegation entities.Delegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delegations[delegationKey{delegation.HolderID, delegation.DelegateID}] = delegation
	return nil
}

func (s *Store) HasDelegation(_ context.Context, holderID string, delegateID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delegation, exists := s.delegations[delegationKey{holderID, delegateID}]
	return exists && delegation.Granted, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
