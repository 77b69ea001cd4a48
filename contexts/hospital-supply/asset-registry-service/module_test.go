package assetregistryservice_test

import (
	"context"
	"errors"
	"testing"

	assetregistryservice "nightingale/contexts/hospital-supply/asset-registry-service"
	"nightingale/contexts/hospital-supply/asset-registry-service/domain/entities"
	domainerrors "nightingale/contexts/hospital-supply/asset-registry-service/domain/errors"
	"nightingale/contexts/hospital-supply/asset-registry-service/ports"
	httptransport "nightingale/contexts/hospital-supply/asset-registry-service/transport/http"
)

const minterID = "hospital-admin-1"

func TestCreateBatchAndGet(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	created, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "medicine",
		TotalQuantity: 100,
		MetadataRef:   "ipfs://paracetamol-batch-2026-08",
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	if created.Item.AssetID != 1 {
		t.Fatalf("expected first asset id 1, got %d", created.Item.AssetID)
	}
	if created.Item.RemainingQuantity != created.Item.TotalQuantity {
		t.Fatalf("expected remaining to equal total, got %d and %d", created.Item.RemainingQuantity, created.Item.TotalQuantity)
	}
	if created.Item.Status != string(entities.AssetStatusInStore) {
		t.Fatalf("expected in_store status, got %s", created.Item.Status)
	}
	if created.Item.HolderID != minterID {
		t.Fatalf("expected holder %s, got %s", minterID, created.Item.HolderID)
	}

	got, err := module.Handler.GetBatchHandler(context.Background(), created.Item.AssetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if got.Item != created.Item {
		t.Fatalf("get returned a different batch: %+v vs %+v", got.Item, created.Item)
	}
}

func TestCreateBatchRejectsNonMinter(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	_, err := module.Handler.CreateBatchHandler(context.Background(), "store-manager-1", httptransport.CreateBatchRequest{
		ItemKind:      "medicine",
		TotalQuantity: 10,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCreateBatchValidatesInput(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	_, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "medicine",
		TotalQuantity: 0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity for zero total, got %v", err)
	}

	_, err = module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "furniture",
		TotalQuantity: 5,
	})
	if !errors.Is(err, domainerrors.ErrInvalidAssetInput) {
		t.Fatalf("expected invalid input for unknown item kind, got %v", err)
	}
}

func TestIssueFromBatchConservesQuantity(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	created, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "medicine",
		TotalQuantity: 100,
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	if err := module.Service.IssueFromBatch(context.Background(), created.Item.AssetID, 30, "ICU", ""); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	got, err := module.Service.GetInfo(context.Background(), created.Item.AssetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if got.RemainingQuantity != 70 {
		t.Fatalf("expected remaining 70, got %d", got.RemainingQuantity)
	}
	if !got.QuantityConserved() {
		t.Fatalf("quantity not conserved: total %d, remaining %d", got.TotalQuantity, got.RemainingQuantity)
	}
	if got.Status != entities.AssetStatusIssuedToWard {
		t.Fatalf("expected issued_to_ward, got %s", got.Status)
	}
	if got.WardName != "ICU" {
		t.Fatalf("expected ward ICU, got %s", got.WardName)
	}
}

func TestIssueFromBatchPatientDestination(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	created, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "equipment",
		TotalQuantity: 3,
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	if err := module.Service.IssueFromBatch(context.Background(), created.Item.AssetID, 1, "Ward B", "patient-77"); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	got, err := module.Service.GetInfo(context.Background(), created.Item.AssetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if got.Status != entities.AssetStatusIssuedToPatient {
		t.Fatalf("expected issued_to_patient, got %s", got.Status)
	}
	if got.PatientID != "patient-77" {
		t.Fatalf("expected patient id recorded, got %s", got.PatientID)
	}
}

func TestIssueFromBatchUnderflow(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	created, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "medicine",
		TotalQuantity: 10,
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	err = module.Service.IssueFromBatch(context.Background(), created.Item.AssetID, 11, "ICU", "")
	if !errors.Is(err, domainerrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	got, err := module.Service.GetInfo(context.Background(), created.Item.AssetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if got.RemainingQuantity != 10 {
		t.Fatalf("expected remaining untouched at 10, got %d", got.RemainingQuantity)
	}

	if err := module.Service.IssueFromBatch(context.Background(), created.Item.AssetID, -1, "ICU", ""); !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity for negative amount, got %v", err)
	}
}

func TestIssueFromBatchUnknownAsset(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	err := module.Service.IssueFromBatch(context.Background(), 42, 1, "ICU", "")
	if !errors.Is(err, domainerrors.ErrAssetNotFound) {
		t.Fatalf("expected asset not found, got %v", err)
	}
}

func TestDecrementRemaining(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	created, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "medicine",
		TotalQuantity: 20,
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	if err := module.Service.DecrementRemaining(context.Background(), created.Item.AssetID, 5); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if err := module.Service.DecrementRemaining(context.Background(), created.Item.AssetID, 16); !errors.Is(err, domainerrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	got, err := module.Service.GetInfo(context.Background(), created.Item.AssetID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if got.RemainingQuantity != 15 {
		t.Fatalf("expected remaining 15, got %d", got.RemainingQuantity)
	}
}

func TestMovementAuthority(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	created, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
		ItemKind:      "equipment",
		TotalQuantity: 2,
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	authorized, err := module.Service.IsAuthorizedMover(context.Background(), created.Item.AssetID, minterID)
	if err != nil || !authorized {
		t.Fatalf("expected holder to be authorized, got %v %v", authorized, err)
	}
	authorized, err = module.Service.IsAuthorizedMover(context.Background(), created.Item.AssetID, "porter-9")
	if err != nil || authorized {
		t.Fatalf("expected porter to be unauthorized, got %v %v", authorized, err)
	}

	if err := module.Handler.GrantAuthorityHandler(context.Background(), minterID, httptransport.GrantAuthorityRequest{
		DelegateID: "porter-9",
		Granted:    true,
	}); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	authorized, err = module.Service.IsAuthorizedMover(context.Background(), created.Item.AssetID, "porter-9")
	if err != nil || !authorized {
		t.Fatalf("expected porter to be authorized after grant, got %v %v", authorized, err)
	}

	if err := module.Handler.GrantAuthorityHandler(context.Background(), minterID, httptransport.GrantAuthorityRequest{
		DelegateID: "porter-9",
		Granted:    false,
	}); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	authorized, err = module.Service.IsAuthorizedMover(context.Background(), created.Item.AssetID, "porter-9")
	if err != nil || authorized {
		t.Fatalf("expected porter to be unauthorized after revoke, got %v %v", authorized, err)
	}
}

func TestGrantAuthorityRejectsSelfAndEmpty(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	if err := module.Handler.GrantAuthorityHandler(context.Background(), minterID, httptransport.GrantAuthorityRequest{
		DelegateID: minterID,
		Granted:    true,
	}); !errors.Is(err, domainerrors.ErrInvalidAssetInput) {
		t.Fatalf("expected invalid input for self delegation, got %v", err)
	}
	if err := module.Handler.GrantAuthorityHandler(context.Background(), minterID, httptransport.GrantAuthorityRequest{
		DelegateID: "",
		Granted:    true,
	}); !errors.Is(err, domainerrors.ErrInvalidAssetInput) {
		t.Fatalf("expected invalid input for empty delegate, got %v", err)
	}
}

func TestListBatchesFilters(t *testing.T) {
	module := assetregistryservice.NewInMemoryModule(minterID, nil)

	for _, kind := range []string{"medicine", "medicine", "equipment"} {
		if _, err := module.Handler.CreateBatchHandler(context.Background(), minterID, httptransport.CreateBatchRequest{
			ItemKind:      kind,
			TotalQuantity: 10,
		}); err != nil {
			t.Fatalf("create batch failed: %v", err)
		}
	}

	all, err := module.Handler.ListBatchesHandler(context.Background(), ports.AssetFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all.Items) != 3 {
		t.Fatalf("expected three batches, got %d", len(all.Items))
	}
	for i, item := range all.Items {
		if item.AssetID != uint64(i+1) {
			t.Fatalf("expected monotonic ids, got %d at position %d", item.AssetID, i)
		}
	}

	medicines, err := module.Handler.ListBatchesHandler(context.Background(), ports.AssetFilter{ItemKind: "medicine"})
	if err != nil {
		t.Fatalf("list by kind failed: %v", err)
	}
	if len(medicines.Items) != 2 {
		t.Fatalf("expected two medicine batches, got %d", len(medicines.Items))
	}
}
