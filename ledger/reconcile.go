package ledger

import (
	"errors"

	"github.com/rahatcse5bu/Finder-Backend/gateway"
	"github.com/rahatcse5bu/Finder-Backend/models"

	"gorm.io/gorm"
)

// ProviderClient is the slice of the gateway surface reconciliation
// needs. The webhook callback, the client verify call and the cron
// sweep all converge on Reconcile with an implementation of this.
type ProviderClient interface {
	ExecutePayment(paymentID string) (*gateway.PaymentResult, error)
	QueryPayment(paymentID string) (*gateway.PaymentResult, error)
}

// Reconcile brings a gateway-backed transaction in line with the
// provider's state. Safe to run concurrently for the same id: the
// first caller to reach Complete or Fail wins, the rest observe the
// terminal record and mutate nothing. The amount credited is always
// the ledger's own; nothing from the provider response is trusted
// beyond its status and transaction id.
func Reconcile(db *gorm.DB, provider ProviderClient, trxID string) (*models.Transaction, error) {
	var trx models.Transaction
	if err := db.Where("trx_id = ? AND is_deleted = false", trxID).First(&trx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if trx.Status.IsTerminal() {
		// Duplicate webhook delivery or a lost race lands here.
		return &trx, nil
	}
	if trx.PaymentID == "" {
		// The gateway session was never opened; nothing to ask for.
		return &trx, nil
	}

	res, err := provider.ExecutePayment(trx.PaymentID)
	if err != nil {
		var gwErr *gateway.GatewayError
		if errors.As(err, &gwErr) && gwErr.Retryable {
			// Transport exhausted its retry budget. The transaction is
			// failed with a retryable reason; the caller may open a
			// fresh one but never reuses this id.
			failed, ferr := Fail(db, trxID, "payment gateway unreachable during execution")
			if ferr != nil {
				return nil, ferr
			}
			return failed, err
		}
		// Execution can be rejected because a racing caller already
		// executed this payment. Ask for the provider's current state
		// before concluding anything.
		res, err = provider.QueryPayment(trx.PaymentID)
		if err != nil {
			if errors.As(err, &gwErr) && gwErr.Retryable {
				// Read-only probe failed transiently; stay pending for
				// the next verify or sweep.
				return &trx, err
			}
			return Fail(db, trxID, "payment rejected by gateway")
		}
	}

	switch {
	case res.Succeeded():
		return Complete(db, trxID, GatewayDetails{PaymentID: trx.PaymentID, GatewayTrxID: res.TrxID})
	case res.Cancelled():
		return Cancel(db, trxID, "payment cancelled by payer")
	case res.Failed():
		return Fail(db, trxID, "payment failed at gateway")
	default:
		// Still initiated on the provider side; leave pending.
		return &trx, nil
	}
}
