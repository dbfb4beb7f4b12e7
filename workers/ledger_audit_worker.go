package workers

import (
	"context"
	"log"
	"time"

	"firefight-platform/services"
)

// Reconciler is the part of the ledger the audit needs.
type Reconciler interface {
	ReconcileAll(ctx context.Context) ([]services.Reconciliation, error)
}

// AuditOnce reconciles every wallet and returns the number of drifted ones.
func AuditOnce(ctx context.Context, ledger Reconciler) (int, error) {
	drifted, err := ledger.ReconcileAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(drifted) == 0 {
		log.Println("✅ [AUDIT] all wallets match their ledgers.")
	} else {
		log.Printf("🚨 [AUDIT] %d wallet(s) drifted from their ledger; manual reconciliation required.", len(drifted))
	}
	return len(drifted), nil
}

// AuditLedgers runs AuditOnce every interval until ctx is done.
func AuditLedgers(ctx context.Context, ledger Reconciler, interval time.Duration) {
	log.Printf("Starting ledger audit (every %s)...", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger audit stopped.")
			return
		case <-ticker.C:
			if _, err := AuditOnce(ctx, ledger); err != nil {
				log.Printf("❌ [AUDIT] error reconciling ledgers: %v", err)
			}
		}
	}
}
