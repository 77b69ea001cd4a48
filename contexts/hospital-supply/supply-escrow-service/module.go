package supplyescrowservice

import (
	"log/slog"
	"time"

	httpadapter "nightingale/contexts/hospital-supply/supply-escrow-service/adapters/http"
	"nightingale/contexts/hospital-supply/supply-escrow-service/adapters/memory"
	"nightingale/contexts/hospital-supply/supply-escrow-service/application/commands"
	"nightingale/contexts/hospital-supply/supply-escrow-service/application/queries"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Issuance       ports.IssuanceRepository
	Procurement    ports.ProcurementRepository
	Ledger         ports.AssetLedger
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Directory      entities.StaffDirectory
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createIssuance := commands.CreateIssuanceUseCase{
		Requests:       deps.Issuance,
		Ledger:         deps.Ledger,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	approveIssuance := commands.ApproveIssuanceUseCase{
		Requests:  deps.Issuance,
		Directory: deps.Directory,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	issueAsset := commands.IssueAssetUseCase{
		Requests:    deps.Issuance,
		Ledger:      deps.Ledger,
		Directory:   deps.Directory,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	cancelIssuance := commands.CancelIssuanceUseCase{
		Requests:  deps.Issuance,
		Directory: deps.Directory,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	createProcurement := commands.CreateProcurementUseCase{
		Requests:       deps.Procurement,
		Directory:      deps.Directory,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	resolveProcurement := commands.ResolveProcurementUseCase{
		Requests:    deps.Procurement,
		Directory:   deps.Directory,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateIssuance:     createIssuance,
			ApproveIssuance:    approveIssuance,
			IssueAsset:         issueAsset,
			CancelIssuance:     cancelIssuance,
			CreateProcurement:  createProcurement,
			ResolveProcurement: resolveProcurement,
			GetIssuance:        queries.GetIssuanceUseCase{Requests: deps.Issuance, Logger: deps.Logger},
			ListIssuance:       queries.ListIssuanceUseCase{Requests: deps.Issuance, Logger: deps.Logger},
			GetProcurement:     queries.GetProcurementUseCase{Requests: deps.Procurement, Logger: deps.Logger},
			ListProcurement:    queries.ListProcurementUseCase{Requests: deps.Procurement, Logger: deps.Logger},
			Logger:             deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against a single in-process store,
// including the store's built-in asset ledger. Production wiring passes the
// asset registry service through the Ledger dependency instead.
func NewInMemoryModule(directory entities.StaffDirectory, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Issuance:       store,
		Procurement:    store,
		Ledger:         store,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		Directory:      directory,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
