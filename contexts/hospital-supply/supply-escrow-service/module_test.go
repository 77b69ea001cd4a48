package supplyescrowservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	supplyescrowservice "nightingale/contexts/hospital-supply/supply-escrow-service"
	"nightingale/contexts/hospital-supply/supply-escrow-service/adapters/memory"
	"nightingale/contexts/hospital-supply/supply-escrow-service/application/queries"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/supply-escrow-service/domain/errors"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
	httptransport "nightingale/contexts/hospital-supply/supply-escrow-service/transport/http"
)

const (
	adminID = "hospital-admin-1"
	storeID = "store-manager-1"
	wardID  = "ward-nurse-1"
)

func newTestModule() supplyescrowservice.Module {
	return supplyescrowservice.NewInMemoryModule(entities.StaffDirectory{
		AdminID: adminID,
		StoreID: storeID,
	}, nil)
}

func seedBatch(module supplyescrowservice.Module, total int64) uint64 {
	return module.Store.SeedBatch(ports.BatchView{
		ItemKind:      "medicine",
		TotalQuantity: total,
		HolderID:      adminID,
	})
}

func createIssuance(t *testing.T, module supplyescrowservice.Module, key string, assetID uint64, quantity int64) httptransport.IssuanceResponse {
	t.Helper()
	resp, err := module.Handler.CreateIssuanceHandler(context.Background(), wardID, key, httptransport.CreateIssuanceRequest{
		AssetID:           assetID,
		WardName:          "ICU",
		RequestedQuantity: quantity,
		Remarks:           "morning round",
	})
	if err != nil {
		t.Fatalf("create issuance failed: %v", err)
	}
	return resp
}

func TestIssuanceFullApprovalChain(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 100)

	created := createIssuance(t, module, "idem-issue-1", assetID, 30)
	if created.Item.Stage != string(entities.IssuanceStagePending) {
		t.Fatalf("expected pending stage, got %s", created.Item.Stage)
	}

	if _, err := module.Handler.StoreApprovalHandler(context.Background(), storeID, created.Item.RequestID); err != nil {
		t.Fatalf("store approval failed: %v", err)
	}
	if _, err := module.Handler.AdminApprovalHandler(context.Background(), adminID, created.Item.RequestID); err != nil {
		t.Fatalf("admin approval failed: %v", err)
	}

	issued, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if issued.Item.Stage != string(entities.IssuanceStageIssued) {
		t.Fatalf("expected issued stage, got %s", issued.Item.Stage)
	}

	batch, err := module.Store.GetBatch(context.Background(), assetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if batch.RemainingQuantity != 70 {
		t.Fatalf("expected remaining 70, got %d", batch.RemainingQuantity)
	}
	if batch.Status != "issued_to_ward" {
		t.Fatalf("expected issued_to_ward, got %s", batch.Status)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one outbox message, got %d", len(pending))
	}
	if pending[0].EventType != "supply.asset_issued" {
		t.Fatalf("unexpected event type %s", pending[0].EventType)
	}
}

func TestIssuanceInsufficientStockAtIssueTime(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 100)

	first := createIssuance(t, module, "idem-stock-1", assetID, 60)
	second := createIssuance(t, module, "idem-stock-2", assetID, 60)

	for _, requestID := range []uint64{first.Item.RequestID, second.Item.RequestID} {
		if _, err := module.Handler.StoreApprovalHandler(context.Background(), storeID, requestID); err != nil {
			t.Fatalf("store approval failed: %v", err)
		}
		if _, err := module.Handler.AdminApprovalHandler(context.Background(), adminID, requestID); err != nil {
			t.Fatalf("admin approval failed: %v", err)
		}
	}

	if _, err := module.Handler.IssueAssetHandler(context.Background(), adminID, first.Item.RequestID); err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	_, err := module.Handler.IssueAssetHandler(context.Background(), adminID, second.Item.RequestID)
	if !errors.Is(err, domainerrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	batch, err := module.Store.GetBatch(context.Background(), assetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if batch.RemainingQuantity != 40 {
		t.Fatalf("expected remaining 40 after failed issue, got %d", batch.RemainingQuantity)
	}
}

func TestIssuanceAdminApprovalBeforeStoreIsOutOfOrder(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 50)

	created := createIssuance(t, module, "idem-order-1", assetID, 10)

	_, err := module.Handler.AdminApprovalHandler(context.Background(), adminID, created.Item.RequestID)
	if !errors.Is(err, domainerrors.ErrOutOfOrder) {
		t.Fatalf("expected out of order, got %v", err)
	}
}

func TestIssuanceApproveAfterCancel(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 50)

	created := createIssuance(t, module, "idem-cancel-1", assetID, 10)

	cancelled, err := module.Handler.CancelIssuanceHandler(context.Background(), storeID, created.Item.RequestID, httptransport.CancelIssuanceRequest{
		Reason: "ward withdrew the request",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Item.Stage != string(entities.IssuanceStageCancelled) {
		t.Fatalf("expected cancelled stage, got %s", cancelled.Item.Stage)
	}

	_, err = module.Handler.StoreApprovalHandler(context.Background(), storeID, created.Item.RequestID)
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected already processed, got %v", err)
	}
}

func TestIssuanceRoleGates(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 50)

	created := createIssuance(t, module, "idem-roles-1", assetID, 10)

	if _, err := module.Handler.StoreApprovalHandler(context.Background(), wardID, created.Item.RequestID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for ward store-approval, got %v", err)
	}
	if _, err := module.Handler.StoreApprovalHandler(context.Background(), storeID, created.Item.RequestID); err != nil {
		t.Fatalf("store approval failed: %v", err)
	}
	if _, err := module.Handler.AdminApprovalHandler(context.Background(), storeID, created.Item.RequestID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for store admin-approval, got %v", err)
	}
	if _, err := module.Handler.IssueAssetHandler(context.Background(), storeID, created.Item.RequestID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for store issue, got %v", err)
	}
	if _, err := module.Handler.CancelIssuanceHandler(context.Background(), wardID, created.Item.RequestID, httptransport.CancelIssuanceRequest{Reason: "x"}); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for ward cancel, got %v", err)
	}
}

func TestIssuanceIssueBeforeBothApprovals(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 50)

	created := createIssuance(t, module, "idem-notready-1", assetID, 10)

	if _, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID); !errors.Is(err, domainerrors.ErrNotReady) {
		t.Fatalf("expected not ready before approvals, got %v", err)
	}

	if _, err := module.Handler.StoreApprovalHandler(context.Background(), storeID, created.Item.RequestID); err != nil {
		t.Fatalf("store approval failed: %v", err)
	}
	if _, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID); !errors.Is(err, domainerrors.ErrNotReady) {
		t.Fatalf("expected not ready after store approval only, got %v", err)
	}
}

func TestIssuanceMovementAuthorityGate(t *testing.T) {
	module := newTestModule()
	// Batch held by the store manager, so the admin needs a delegation to move it.
	assetID := module.Store.SeedBatch(ports.BatchView{
		ItemKind:      "equipment",
		TotalQuantity: 5,
		HolderID:      storeID,
	})

	created := createIssuance(t, module, "idem-move-1", assetID, 1)
	if _, err := module.Handler.StoreApprovalHandler(context.Background(), storeID, created.Item.RequestID); err != nil {
		t.Fatalf("store approval failed: %v", err)
	}
	if _, err := module.Handler.AdminApprovalHandler(context.Background(), adminID, created.Item.RequestID); err != nil {
		t.Fatalf("admin approval failed: %v", err)
	}

	_, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID)
	if !errors.Is(err, domainerrors.ErrMovementUnauthorized) {
		t.Fatalf("expected movement unauthorized, got %v", err)
	}

	module.Store.SeedDelegation(storeID, adminID, true)
	if _, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID); err != nil {
		t.Fatalf("issue after delegation failed: %v", err)
	}
}

func TestIssuanceIdempotentReplay(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 50)

	first := createIssuance(t, module, "idem-replay-1", assetID, 10)
	second := createIssuance(t, module, "idem-replay-1", assetID, 10)

	if !second.Replayed {
		t.Fatalf("expected replayed response")
	}
	if first.Item.RequestID != second.Item.RequestID {
		t.Fatalf("expected same request id, got %d and %d", first.Item.RequestID, second.Item.RequestID)
	}

	items, err := module.Handler.ListIssuanceHandler(context.Background(), queries.ListIssuanceQuery{})
	if err != nil {
		t.Fatalf("list issuance failed: %v", err)
	}
	if len(items.Items) != 1 {
		t.Fatalf("expected one stored request, got %d", len(items.Items))
	}
}

func TestIssuanceCreateRejectsBadInput(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 10)

	_, err := module.Handler.CreateIssuanceHandler(context.Background(), wardID, "idem-bad-1", httptransport.CreateIssuanceRequest{
		AssetID:           assetID,
		WardName:          "ICU",
		RequestedQuantity: 0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}

	_, err = module.Handler.CreateIssuanceHandler(context.Background(), wardID, "idem-bad-2", httptransport.CreateIssuanceRequest{
		AssetID:           assetID,
		WardName:          "ICU",
		RequestedQuantity: 11,
	})
	if !errors.Is(err, domainerrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock at create, got %v", err)
	}

	_, err = module.Handler.CreateIssuanceHandler(context.Background(), wardID, "", httptransport.CreateIssuanceRequest{
		AssetID:           assetID,
		WardName:          "ICU",
		RequestedQuantity: 1,
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected idempotency key required, got %v", err)
	}

	_, err = module.Handler.CreateIssuanceHandler(context.Background(), wardID, "idem-bad-3", httptransport.CreateIssuanceRequest{
		AssetID:           9999,
		WardName:          "ICU",
		RequestedQuantity: 1,
	})
	if !errors.Is(err, domainerrors.ErrAssetNotFound) {
		t.Fatalf("expected asset not found, got %v", err)
	}
}

func TestIssuanceListPendingKeepsInsertionOrder(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 100)

	first := createIssuance(t, module, "idem-list-1", assetID, 5)
	second := createIssuance(t, module, "idem-list-2", assetID, 5)
	third := createIssuance(t, module, "idem-list-3", assetID, 5)

	if _, err := module.Handler.CancelIssuanceHandler(context.Background(), storeID, second.Item.RequestID, httptransport.CancelIssuanceRequest{Reason: "duplicate"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	pending, err := module.Handler.ListIssuanceHandler(context.Background(), queries.ListIssuanceQuery{PendingOnly: true})
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending.Items) != 2 {
		t.Fatalf("expected two pending requests, got %d", len(pending.Items))
	}
	if pending.Items[0].RequestID != first.Item.RequestID || pending.Items[1].RequestID != third.Item.RequestID {
		t.Fatalf("unexpected pending order: %d, %d", pending.Items[0].RequestID, pending.Items[1].RequestID)
	}
}

func TestProcurementApproveAndReject(t *testing.T) {
	module := newTestModule()

	created, err := module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-proc-1", httptransport.CreateProcurementRequest{
		ItemName: "surgical gloves",
		ItemType: "equipment",
		Quantity: 500,
		Reason:   "stock below reorder level",
		Urgency:  "high",
	})
	if err != nil {
		t.Fatalf("create procurement failed: %v", err)
	}
	if created.Item.State != string(entities.ProcurementStatePending) {
		t.Fatalf("expected pending state, got %s", created.Item.State)
	}

	approved, err := module.Handler.ApproveProcurementHandler(context.Background(), adminID, created.Item.RequestID, httptransport.ResolveProcurementRequest{
		Response: "approved, order via the usual vendor",
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Item.State != string(entities.ProcurementStateApproved) {
		t.Fatalf("expected approved state, got %s", approved.Item.State)
	}
	if approved.Item.ApprovedAt == "" {
		t.Fatalf("expected approved_at to be set")
	}

	rejectedReq, err := module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-proc-2", httptransport.CreateProcurementRequest{
		ItemName: "mri scanner",
		Quantity: 1,
		Reason:   "replacement",
	})
	if err != nil {
		t.Fatalf("create procurement failed: %v", err)
	}
	rejected, err := module.Handler.RejectProcurementHandler(context.Background(), adminID, rejectedReq.Item.RequestID, httptransport.ResolveProcurementRequest{
		Response: "no budget this quarter",
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Item.State != string(entities.ProcurementStateRejected) {
		t.Fatalf("expected rejected state, got %s", rejected.Item.State)
	}
	if rejected.Item.ApprovedAt != "" {
		t.Fatalf("expected approved_at to stay empty on rejection")
	}
}

func TestProcurementResolveIsTerminal(t *testing.T) {
	module := newTestModule()

	created, err := module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-term-1", httptransport.CreateProcurementRequest{
		ItemName: "saline bags",
		Quantity: 200,
		Reason:   "restock",
	})
	if err != nil {
		t.Fatalf("create procurement failed: %v", err)
	}

	if _, err := module.Handler.RejectProcurementHandler(context.Background(), adminID, created.Item.RequestID, httptransport.ResolveProcurementRequest{
		Response: "no budget this quarter",
	}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	_, err = module.Handler.ApproveProcurementHandler(context.Background(), adminID, created.Item.RequestID, httptransport.ResolveProcurementRequest{
		Response: "changed my mind",
	})
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected already processed, got %v", err)
	}

	got, err := module.Handler.GetProcurementHandler(context.Background(), created.Item.RequestID)
	if err != nil {
		t.Fatalf("get procurement failed: %v", err)
	}
	if got.Item.HospitalResponse != "no budget this quarter" {
		t.Fatalf("expected first response preserved, got %q", got.Item.HospitalResponse)
	}
}

func TestProcurementRoleGates(t *testing.T) {
	module := newTestModule()

	_, err := module.Handler.CreateProcurementHandler(context.Background(), wardID, "idem-gate-1", httptransport.CreateProcurementRequest{
		ItemName: "bandages",
		Quantity: 10,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for ward create, got %v", err)
	}

	created, err := module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-gate-2", httptransport.CreateProcurementRequest{
		ItemName: "bandages",
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("create procurement failed: %v", err)
	}

	_, err = module.Handler.ApproveProcurementHandler(context.Background(), storeID, created.Item.RequestID, httptransport.ResolveProcurementRequest{Response: "self approve"})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for store approve, got %v", err)
	}
}

func TestProcurementUrgencyValidation(t *testing.T) {
	module := newTestModule()

	created, err := module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-urg-1", httptransport.CreateProcurementRequest{
		ItemName: "oxygen cylinders",
		Quantity: 20,
	})
	if err != nil {
		t.Fatalf("create procurement failed: %v", err)
	}
	if created.Item.Urgency != string(entities.UrgencyNormal) {
		t.Fatalf("expected urgency to default to normal, got %s", created.Item.Urgency)
	}

	_, err = module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-urg-2", httptransport.CreateProcurementRequest{
		ItemName: "oxygen cylinders",
		Quantity: 20,
		Urgency:  "immediately",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequestInput) {
		t.Fatalf("expected invalid input for unknown urgency, got %v", err)
	}
}

func TestProcurementResolvedEventIsQueued(t *testing.T) {
	module := newTestModule()

	created, err := module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-evt-1", httptransport.CreateProcurementRequest{
		ItemName: "defibrillator pads",
		Quantity: 40,
		Reason:   "restock",
	})
	if err != nil {
		t.Fatalf("create procurement failed: %v", err)
	}
	if _, err := module.Handler.ApproveProcurementHandler(context.Background(), adminID, created.Item.RequestID, httptransport.ResolveProcurementRequest{
		Response: "approved",
	}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one outbox message, got %d", len(pending))
	}
	if pending[0].EventType != "supply.procurement_resolved" {
		t.Fatalf("unexpected event type %s", pending[0].EventType)
	}
}

// failingIssuanceRepo rejects the issuance claim while delegating every other
// repository call to the embedded store.
type failingIssuanceRepo struct {
	*memory.Store
	err error
}

func (r failingIssuanceRepo) MarkIssuedWithOutbox(context.Context, uint64, ports.EventEnvelope, time.Time) (entities.IssuanceRequest, error) {
	return entities.IssuanceRequest{}, r.err
}

type failingProcurementRepo struct {
	*memory.Store
	err error
}

func (r failingProcurementRepo) ResolveWithOutbox(context.Context, entities.ProcurementRequest, ports.EventEnvelope) error {
	return r.err
}

type failingLedger struct {
	*memory.Store
	err error
}

func (l failingLedger) IssueFromBatch(context.Context, uint64, int64, string, string) error {
	return l.err
}

func newWiredModule(store *memory.Store, issuance ports.IssuanceRepository, procurement ports.ProcurementRepository, ledger ports.AssetLedger) supplyescrowservice.Module {
	module := supplyescrowservice.NewModule(supplyescrowservice.Dependencies{
		Issuance:       issuance,
		Procurement:    procurement,
		Ledger:         ledger,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		Directory:      entities.StaffDirectory{AdminID: adminID, StoreID: storeID},
		IdempotencyTTL: 7 * 24 * time.Hour,
	})
	module.Store = store
	return module
}

func approveBoth(t *testing.T, module supplyescrowservice.Module, requestID uint64) {
	t.Helper()
	if _, err := module.Handler.StoreApprovalHandler(context.Background(), storeID, requestID); err != nil {
		t.Fatalf("store approval failed: %v", err)
	}
	if _, err := module.Handler.AdminApprovalHandler(context.Background(), adminID, requestID); err != nil {
		t.Fatalf("admin approval failed: %v", err)
	}
}

func TestIssuanceConcurrentIssueDecrementsOnce(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 100)
	created := createIssuance(t, module, "idem-race-1", assetID, 30)
	approveBoth(t, module, created.Item.RequestID)

	start := make(chan struct{})
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID)
			results[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domainerrors.ErrAlreadyProcessed):
			losses++
		default:
			t.Fatalf("unexpected issue error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one successful issue, got %d wins and %d losses", wins, losses)
	}

	batch, err := module.Store.GetBatch(context.Background(), assetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if batch.RemainingQuantity != 70 {
		t.Fatalf("expected remaining 70 after a single 30 issue, got %d", batch.RemainingQuantity)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one staged event, got %d", len(pending))
	}
}

func TestIssuanceRepeatedIssueIsAlreadyProcessed(t *testing.T) {
	module := newTestModule()
	assetID := seedBatch(module, 100)
	created := createIssuance(t, module, "idem-repeat-1", assetID, 30)
	approveBoth(t, module, created.Item.RequestID)

	if _, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID)
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected already processed, got %v", err)
	}

	batch, err := module.Store.GetBatch(context.Background(), assetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if batch.RemainingQuantity != 70 {
		t.Fatalf("expected remaining 70, got %d", batch.RemainingQuantity)
	}
}

func TestIssuanceClaimFailureLeavesStateUntouched(t *testing.T) {
	store := memory.NewStore()
	claimErr := errors.New("outbox insert rejected")
	module := newWiredModule(store, failingIssuanceRepo{Store: store, err: claimErr}, store, store)

	assetID := seedBatch(module, 100)
	created := createIssuance(t, module, "idem-claim-1", assetID, 30)
	approveBoth(t, module, created.Item.RequestID)

	_, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID)
	if !errors.Is(err, claimErr) {
		t.Fatalf("expected the claim error, got %v", err)
	}

	got, err := module.Handler.GetIssuanceHandler(context.Background(), created.Item.RequestID)
	if err != nil {
		t.Fatalf("get issuance failed: %v", err)
	}
	if got.Item.Stage != string(entities.IssuanceStageBothApproved) {
		t.Fatalf("expected request to stay both_approved, got %s", got.Item.Stage)
	}

	batch, err := store.GetBatch(context.Background(), assetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if batch.RemainingQuantity != 100 {
		t.Fatalf("expected stock untouched at 100, got %d", batch.RemainingQuantity)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no staged events, got %d", len(pending))
	}
}

func TestIssuanceLedgerFailureReleasesClaim(t *testing.T) {
	store := memory.NewStore()
	ledgerErr := errors.New("registry unavailable")
	module := newWiredModule(store, store, store, failingLedger{Store: store, err: ledgerErr})

	assetID := seedBatch(module, 100)
	created := createIssuance(t, module, "idem-release-1", assetID, 30)
	approveBoth(t, module, created.Item.RequestID)

	_, err := module.Handler.IssueAssetHandler(context.Background(), adminID, created.Item.RequestID)
	if !errors.Is(err, ledgerErr) {
		t.Fatalf("expected the ledger error, got %v", err)
	}

	got, err := module.Handler.GetIssuanceHandler(context.Background(), created.Item.RequestID)
	if err != nil {
		t.Fatalf("get issuance failed: %v", err)
	}
	if got.Item.Stage != string(entities.IssuanceStageBothApproved) {
		t.Fatalf("expected claim released back to both_approved, got %s", got.Item.Stage)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected the staged event to be discarded, got %d", len(pending))
	}
}

func TestProcurementResolveFailureLeavesRequestPending(t *testing.T) {
	store := memory.NewStore()
	resolveErr := errors.New("outbox insert rejected")
	module := newWiredModule(store, store, failingProcurementRepo{Store: store, err: resolveErr}, store)

	created, err := module.Handler.CreateProcurementHandler(context.Background(), storeID, "idem-atomic-1", httptransport.CreateProcurementRequest{
		ItemName: "saline bags",
		Quantity: 200,
		Reason:   "restock",
	})
	if err != nil {
		t.Fatalf("create procurement failed: %v", err)
	}

	_, err = module.Handler.ApproveProcurementHandler(context.Background(), adminID, created.Item.RequestID, httptransport.ResolveProcurementRequest{
		Response: "approved, order via the usual vendor",
	})
	if !errors.Is(err, resolveErr) {
		t.Fatalf("expected the resolve error, got %v", err)
	}

	got, err := module.Handler.GetProcurementHandler(context.Background(), created.Item.RequestID)
	if err != nil {
		t.Fatalf("get procurement failed: %v", err)
	}
	if got.Item.State != string(entities.ProcurementStatePending) {
		t.Fatalf("expected request to stay pending, got %s", got.Item.State)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no staged events, got %d", len(pending))
	}
}
