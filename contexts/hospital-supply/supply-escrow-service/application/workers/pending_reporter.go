package workers

import (
	"context"
	"log/slog"

	application "nightingale/contexts/hospital-supply/supply-escrow-service/application"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/contexts/hospital-supply/supply-escrow-service/ports"
)

// PendingReporter periodically surfaces the approval backlog for operators.
// It never mutates workflow state; it only reads and logs, and raises the log
// level when critical-urgency procurement is sitting unresolved.
type PendingReporter struct {
	Issuance    ports.IssuanceRepository
	Procurement ports.ProcurementRepository
	Logger      *slog.Logger
}

func (r PendingReporter) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)

	issuance, err := r.Issuance.ListIssuance(ctx, ports.IssuanceFilter{PendingOnly: true})
	if err != nil {
		return err
	}
	procurement, err := r.Procurement.ListProcurement(ctx, ports.ProcurementFilter{PendingOnly: true})
	if err != nil {
		return err
	}

	criticalCount := 0
	for _, request := range procurement {
		if request.Urgency == entities.UrgencyCritical {
			criticalCount++
		}
	}

	if criticalCount > 0 {
		logger.Warn("critical procurement requests awaiting resolution",
			"event", "supply_pending_backlog_critical",
			"module", "hospital-supply/supply-escrow-service",
			"layer", "worker",
			"pending_issuance", len(issuance),
			"pending_procurement", len(procurement),
			"critical_procurement", criticalCount,
		)
		return nil
	}

	logger.Info("pending request backlog",
		"event", "supply_pending_backlog",
		"module", "hospital-supply/supply-escrow-service",
		"layer", "worker",
		"pending_issuance", len(issuance),
		"pending_procurement", len(procurement),
	)
	return nil
}
