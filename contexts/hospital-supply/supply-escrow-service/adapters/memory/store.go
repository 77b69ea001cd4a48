package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"

	"github.com/google/uuid"
)

type delegationKey struct {
	holderID   string
	delegateID string
}

// Store backs the escrow module in tests and local runs. It also carries a
// small in-process asset ledger so the module can exercise the full issuance
// path without the registry service; production wiring swaps in the registry
// through the AssetLedger port.
type Store struct {
	mu sync.RWMutex

	nextIssuanceID    uint64
	nextProcurementID uint64
	nextAssetID       uint64

	issuance    map[uint64]entities.IssuanceRequest
	procurement map[uint64]entities.ProcurementRequest

	batches     map[uint64]ports.BatchView
	delegations map[delegationKey]bool

	idempotency map[string]ports.IdempotencyRecord

	outbox    []outboxRow
	published []publishedEvent
}

type outboxRow struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

type publishedEvent struct {
	Topic    string
	Envelope ports.EventEnvelope
}

func NewStore() *Store {
	return &Store{
		nextIssuanceID:    1,
		nextProcurementID: 1,
		nextAssetID:       1,
		issuance:          make(map[uint64]entities.IssuanceRequest),
		procurement:       make(map[uint64]entities.ProcurementRequest),
		batches:           make(map[uint64]ports.BatchView),
		delegations:       make(map[delegationKey]bool),
		idempotency:       make(map[string]ports.IdempotencyRecord),
	}
}

func (s *Store) CreateIssuance(_ context.Context, request entities.IssuanceRequest) (entities.IssuanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request.RequestID = s.nextIssuanceID
	s.nextIssuanceID++
	s.issuance[request.RequestID] = request
	return request, nil
}

func (s *Store) GetIssuance(_ context.Context, requestID uint64) (entities.IssuanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, exists := s.issuance[requestID]
	if !exists {
		return entities.IssuanceRequest{}, domainerrors.ErrRequestNotFound
	}
	return request, nil
}

func (s *Store) UpdateIssuance(_ context.Context, request entities.IssuanceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.issuance[request.RequestID]
	if !exists {
		return domainerrors.ErrRequestNotFound
	}
	if stored.Terminal() {
		return domainerrors.ErrAlreadyProcessed
	}
	s.issuance[request.RequestID] = request
	return nil
}

func (s *Store) MarkIssuedWithOutbox(_ context.Context, requestID uint64, envelope ports.EventEnvelope, now time.Time) (entities.IssuanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, exists := s.issuance[requestID]
	if !exists {
		return entities.IssuanceRequest{}, domainerrors.ErrRequestNotFound
	}
	if request.Terminal() {
		return entities.IssuanceRequest{}, domainerrors.ErrAlreadyProcessed
	}
	if !request.ReadyToIssue() {
		return entities.IssuanceRequest{}, domainerrors.ErrNotReady
	}

	// One critical section approximates the transaction: the issued flag
	// and the outbox row land together or not at all, and only the first
	// caller gets past the readiness check above.
	if err := s.appendOutboxLocked(envelope); err != nil {
		return entities.IssuanceRequest{}, err
	}
	request.Issued = true
	request.UpdatedAt = now
	s.issuance[requestID] = request
	return request, nil
}

func (s *Store) ReleaseIssued(_ context.Context, requestID uint64, eventID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, exists := s.issuance[requestID]
	if !exists {
		return domainerrors.ErrRequestNotFound
	}
	request.Issued = false
	request.UpdatedAt = now
	s.issuance[requestID] = request

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == eventID {
			s.outbox = append(s.outbox[:i], s.outbox[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ListIssuance(_ context.Context, filter ports.IssuanceFilter) ([]entities.IssuanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.IssuanceRequest, 0, len(s.issuance))
	for _, request := range s.issuance {
		if filter.PendingOnly && request.Terminal() {
			continue
		}
		if filter.AssetID != 0 && request.AssetID != filter.AssetID {
			continue
		}
		if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
			continue
		}
		items = append(items, request)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RequestID < items[j].RequestID
	})
	return items, nil
}

func (s *Store) CreateProcurement(_ context.Context, request entities.ProcurementRequest) (entities.ProcurementRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request.RequestID = s.nextProcurementID
	s.nextProcurementID++
	s.procurement[request.RequestID] = request
	return request, nil
}

func (s *Store) GetProcurement(_ context.Context, requestID uint64) (entities.ProcurementRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, exists := s.procurement[requestID]
	if !exists {
		return entities.ProcurementRequest{}, domainerrors.ErrRequestNotFound
	}
	return request, nil
}

func (s *Store) ResolveWithOutbox(_ context.Context, request entities.ProcurementRequest, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.procurement[request.RequestID]
	if !exists {
		return domainerrors.ErrRequestNotFound
	}
	if stored.Terminal() {
		return domainerrors.ErrAlreadyProcessed
	}
	if err := s.appendOutboxLocked(envelope); err != nil {
		return err
	}
	s.procurement[request.RequestID] = request
	return nil
}

func (s *Store) ListProcurement(_ context.Context, filter ports.ProcurementFilter) ([]entities.ProcurementRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.ProcurementRequest, 0, len(s.procurement))
	for _, request := range s.procurement {
		if filter.PendingOnly && request.Terminal() {
			continue
		}
		if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
			continue
		}
		items = append(items, request)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RequestID < items[j].RequestID
	})
	return items, nil
}

// SeedBatch registers a batch in the in-process ledger and returns its id.
func (s *Store) SeedBatch(view ports.BatchView) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	view.AssetID = s.nextAssetID
	s.nextAssetID++
	if view.RemainingQuantity == 0 {
		view.RemainingQuantity = view.TotalQuantity
	}
	if view.Status == "" {
		view.Status = "in_store"
	}
	s.batches[view.AssetID] = view
	return view.AssetID
}

// SeedDelegation flips the movement-authority flag for a (holder, delegate) pair.
func (s *Store) SeedDelegation(holderID string, delegateID string, granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delegations[delegationKey{holderID, delegateID}] = granted
}

func (s *Store) GetBatch(_ context.Context, assetID uint64) (ports.BatchView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, exists := s.batches[assetID]
	if !exists {
		return ports.BatchView{}, domainerrors.ErrAssetNotFound
	}
	return batch, nil
}

func (s *Store) IsAuthorizedMover(_ context.Context, assetID uint64, callerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, exists := s.batches[assetID]
	if !exists {
		return false, domainerrors.ErrAssetNotFound
	}
	if batch.HolderID == callerID {
		return true, nil
	}
	return s.delegations[delegationKey{batch.HolderID, callerID}], nil
}

func (s *Store) IssueFromBatch(_ context.Context, assetID uint64, amount int64, wardName string, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[assetID]
	if !exists {
		return domainerrors.ErrAssetNotFound
	}
	if amount > batch.RemainingQuantity {
		return domainerrors.ErrInsufficientStock
	}
	batch.RemainingQuantity -= amount
	if patientID != "" {
		batch.Status = "issued_to_patient"
	} else {
		batch.Status = "issued_to_ward"
	}
	s.batches[assetID] = batch
	return nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	s.idempotency[record.Key] = record
	return nil
}

// AppendOutbox stages an event outside any request mutation. The relay tests
// seed rows through it; request mutations stage their events atomically via
// MarkIssuedWithOutbox and ResolveWithOutbox instead.
func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendOutboxLocked(envelope)
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			CreatedAt: envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.publishedAt != nil {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			at := publishedAt
			s.outbox[i].publishedAt = &at
			return nil
		}
	}
	return domainerrors.ErrRequestNotFound
}

func (s *Store) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published = append(s.published, publishedEvent{Topic: topic, Envelope: event})
	return nil
}

// PublishedEvents returns what the in-process publisher has seen, for tests.
func (s *Store) PublishedEvents() []ports.EventEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.EventEnvelope, 0, len(s.published))
	for _, item := range s.published {
		items = append(items, item.Envelope)
	}
	return items
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
