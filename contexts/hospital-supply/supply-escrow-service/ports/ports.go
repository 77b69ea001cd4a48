package ports

import (
	"context"
	"time"

	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	contractsv1 "nightingale/contracts/gen/events/v1"
)

type IssuanceFilter struct {
	// PendingOnly keeps requests that are neither issued nor cancelled.
	PendingOnly bool
	AssetID     uint64
	RequesterID string
}

type IssuanceRepository interface {
	// CreateIssuance assigns the next monotonic request id (starting at 1)
	// and persists the request, returning it with the id set.
	CreateIssuance(ctx context.Context, request entities.IssuanceRequest) (entities.IssuanceRequest, error)
	GetIssuance(ctx context.Context, requestID uint64) (entities.IssuanceRequest, error)
	// UpdateIssuance rejects writes against terminal requests with
	// ErrAlreadyProcessed, so a cancel racing an issue cannot clobber it.
	UpdateIssuance(ctx context.Context, request entities.IssuanceRequest) error
	// MarkIssuedWithOutbox claims an approved request for issuance: the
	// issued flag and the staged outbox event commit together or not at
	// all, and the claim is first-writer-wins. A losing concurrent caller
	// sees ErrAlreadyProcessed; a request missing an approval sees
	// ErrNotReady.
	MarkIssuedWithOutbox(ctx context.Context, requestID uint64, envelope EventEnvelope, now time.Time) (entities.IssuanceRequest, error)
	// ReleaseIssued undoes a claim whose ledger decrement failed,
	// discarding the staged event so the relay never publishes it.
	ReleaseIssued(ctx context.Context, requestID uint64, eventID string, now time.Time) error
	// ListIssuance returns requests in insertion order (ascending request id).
	ListIssuance(ctx context.Context, filter IssuanceFilter) ([]entities.IssuanceRequest, error)
}

type ProcurementFilter struct {
	PendingOnly bool
	RequesterID string
}

type ProcurementRepository interface {
	CreateProcurement(ctx context.Context, request entities.ProcurementRequest) (entities.ProcurementRequest, error)
	GetProcurement(ctx context.Context, requestID uint64) (entities.ProcurementRequest, error)
	// ResolveWithOutbox persists the resolution and the staged outbox event
	// atomically. Resolution is first-writer-wins on the pending flag; a
	// losing concurrent resolve sees ErrAlreadyProcessed.
	ResolveWithOutbox(ctx context.Context, request entities.ProcurementRequest, envelope EventEnvelope) error
	ListProcurement(ctx context.Context, filter ProcurementFilter) ([]entities.ProcurementRequest, error)
}

// BatchView is the escrow side's read model of one asset batch. The registry
// owns the batch; the escrow only reads it and issues through it.
type BatchView struct {
	AssetID           uint64
	ItemKind          string
	TotalQuantity     int64
	RemainingQuantity int64
	Status            string
	HolderID          string
}

// AssetLedger is the escrow's gateway to the asset registry. Implementations
// must make IssueFromBatch atomic: the stock re-check and the decrement are
// one step, so a concurrent issuance against the same batch cannot interleave.
type AssetLedger interface {
	GetBatch(ctx context.Context, assetID uint64) (BatchView, error)
	IsAuthorizedMover(ctx context.Context, assetID uint64, callerID string) (bool, error)
	IssueFromBatch(ctx context.Context, assetID uint64, amount int64, wardName string, patientID string) error
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

// IDGenerator supplies opaque ids for events and outbox rows. Request and
// asset ids are not drawn from here; repositories assign those monotonically.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
