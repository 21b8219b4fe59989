package utils

import (
	"log"
	"time"

	"github.com/rahatcse5bu/Finder-Backend/database"
	"github.com/rahatcse5bu/Finder-Backend/ledger"
	"github.com/rahatcse5bu/Finder-Backend/models"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[RECONCILE-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// reconcilePendingRecharges sweeps gateway-backed transactions stuck
// PENDING past the grace window and runs them through the same
// idempotent reconcile the webhook and verify paths use. Losing a race
// against either of those is harmless.
func reconcilePendingRecharges(provider ledger.ProviderClient) {
	db := database.Database.Db
	cutoff := time.Now().Add(-5 * time.Minute)

	var stuck []models.Transaction
	if err := db.Where(
		"status = ? AND payment_method = ? AND payment_id <> '' AND transaction_date < ? AND is_deleted = false",
		models.TransactionStatusPending, models.PaymentMethodGateway, cutoff,
	).Limit(50).Find(&stuck).Error; err != nil {
		logScheduler("Error fetching pending transactions: " + err.Error())
		return
	}

	for _, trx := range stuck {
		result, err := ledger.Reconcile(db, provider, trx.TrxID)
		if err != nil {
			logScheduler("Reconcile " + trx.TrxID + " error: " + err.Error())
			continue
		}
		if result.Status != models.TransactionStatusPending {
			logScheduler("Reconciled " + trx.TrxID + " -> " + string(result.Status))
		}
	}
}

// StartReconciliationScheduler runs the pending-transaction sweep on a
// fixed interval for payments whose callback never arrived.
func StartReconciliationScheduler(provider ledger.ProviderClient) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("@every 10m", func() {
		reconcilePendingRecharges(provider)
	}); err != nil {
		log.Fatalf("Failed to register reconciliation job: %v", err)
	}

	c.Start()
	logScheduler("Reconciliation scheduler started")
	return c
}
