package assetregistryservice

import (
	"log/slog"

	httpadapter "nightingale/contexts/hospital-supply/asset-registry-service/adapters/http"
	"nightingale/contexts/hospital-supply/asset-registry-service/adapters/memory"
	"nightingale/contexts/hospital-supply/asset-registry-service/application"
	"nightingale/contexts/hospital-supply/asset-registry-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Assets      ports.AssetRepository
	Delegations ports.DelegationRepository
	Clock       ports.Clock
	MinterID    string
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Assets:      deps.Assets,
		Delegations: deps.Delegations,
		Clock:       deps.Clock,
		MinterID:    deps.MinterID,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(minterID string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Assets:      store,
		Delegations: store,
		Clock:       store,
		MinterID:    minterID,
		Logger:      logger,
	})
	module.Store = store
	return module
}
