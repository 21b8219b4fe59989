package ledger_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rahatcse5bu/Finder-Backend/gateway"
	"github.com/rahatcse5bu/Finder-Backend/ledger"
	"github.com/rahatcse5bu/Finder-Backend/models"
)

type fakeProvider struct {
	mu sync.Mutex

	executeResult *gateway.PaymentResult
	executeErr    error
	queryResult   *gateway.PaymentResult
	queryErr      error

	executeCalls int
	queryCalls   int
}

func (f *fakeProvider) ExecutePayment(paymentID string) (*gateway.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executeCalls++
	return f.executeResult, f.executeErr
}

func (f *fakeProvider) QueryPayment(paymentID string) (*gateway.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	return f.queryResult, f.queryErr
}

func succeededResult(trxID string) *gateway.PaymentResult {
	return &gateway.PaymentResult{
		PaymentID:         "P1",
		TrxID:             trxID,
		StatusCode:        gateway.StatusCodeSuccess,
		TransactionStatus: gateway.TrxStatusCompleted,
	}
}

func openGatewayRecharge(t *testing.T, db *gorm.DB, userID uint, amount float64) *models.Transaction {
	t.Helper()

	trx, err := ledger.Open(db, userID, models.TransactionTypeRecharge, amount, models.PaymentMethodGateway, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Transaction{}).Where("trx_id = ?", trx.TrxID).Update("payment_id", "P1").Error)
	trx.PaymentID = "P1"
	return trx
}

func TestReconcileCompletesOnExecuteSuccess(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec1@test.com", 0)
	trx := openGatewayRecharge(t, db, user.ID, 100)

	provider := &fakeProvider{executeResult: succeededResult("BK900")}

	result, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusCompleted, result.Status)
	require.NotNil(t, result.BalanceBefore)
	require.NotNil(t, result.BalanceAfter)
	assert.Equal(t, 0.0, *result.BalanceBefore)
	assert.Equal(t, 100.0, *result.BalanceAfter)
	assert.Equal(t, "BK900", result.GatewayTrxID)
	assert.Equal(t, 100.0, userBalance(t, db, user.ID))
}

func TestReconcileDuplicateDeliveryCreditsOnce(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec2@test.com", 0)
	trx := openGatewayRecharge(t, db, user.ID, 100)

	provider := &fakeProvider{executeResult: succeededResult("BK901")}

	// Provider retries its webhook; both deliveries run reconcile
	_, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.NoError(t, err)
	result, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusCompleted, result.Status)
	assert.Equal(t, 100.0, userBalance(t, db, user.ID))
	// The second delivery short-circuits on the terminal state and
	// never reaches the gateway
	assert.Equal(t, 1, provider.executeCalls)
}

func TestReconcileConcurrentWebhookAndVerify(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec3@test.com", 0)
	trx := openGatewayRecharge(t, db, user.ID, 100)

	provider := &fakeProvider{executeResult: succeededResult("BK902")}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reconcile(db, provider, trx.TrxID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100.0, userBalance(t, db, user.ID))
}

func TestReconcileTransportFailureFailsTransaction(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec4@test.com", 0)
	trx := openGatewayRecharge(t, db, user.ID, 100)

	provider := &fakeProvider{
		executeErr: &gateway.GatewayError{Code: "EXECUTE_UNAVAILABLE", Message: "could not reach payment gateway", Retryable: true},
	}

	result, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.Error(t, err)

	var gwErr *gateway.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, gwErr.Retryable)

	assert.Equal(t, models.TransactionStatusFailed, result.Status)
	assert.Equal(t, 0.0, userBalance(t, db, user.ID))
}

func TestReconcileFallsBackToQueryAfterExecuteRejection(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec5@test.com", 0)
	trx := openGatewayRecharge(t, db, user.ID, 100)

	// Execute rejected because a racing caller already executed; the
	// status query shows the payment went through
	provider := &fakeProvider{
		executeErr:  &gateway.GatewayError{Code: "EXECUTE_REJECTED", Message: "already executed", Retryable: false},
		queryResult: succeededResult("BK903"),
	}

	result, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusCompleted, result.Status)
	assert.Equal(t, 100.0, userBalance(t, db, user.ID))
	assert.Equal(t, 1, provider.queryCalls)
}

func TestReconcileCancelledPayment(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec6@test.com", 0)
	trx := openGatewayRecharge(t, db, user.ID, 100)

	provider := &fakeProvider{
		executeErr: &gateway.GatewayError{Code: "EXECUTE_REJECTED", Message: "not executable", Retryable: false},
		queryResult: &gateway.PaymentResult{
			PaymentID:         "P1",
			StatusCode:        gateway.StatusCodeSuccess,
			TransactionStatus: gateway.TrxStatusCancelled,
		},
	}

	result, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusCancelled, result.Status)
	assert.Equal(t, 0.0, userBalance(t, db, user.ID))
}

func TestReconcileStillInitiatedStaysPending(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec7@test.com", 0)
	trx := openGatewayRecharge(t, db, user.ID, 100)

	provider := &fakeProvider{
		executeErr: &gateway.GatewayError{Code: "EXECUTE_REJECTED", Message: "not yet approved", Retryable: false},
		queryResult: &gateway.PaymentResult{
			PaymentID:         "P1",
			StatusCode:        gateway.StatusCodeSuccess,
			TransactionStatus: gateway.TrxStatusInitiated,
		},
	}

	result, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusPending, result.Status)
	assert.Equal(t, 0.0, userBalance(t, db, user.ID))
}

func TestReconcileWithoutPaymentSession(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "rec8@test.com", 0)

	trx, err := ledger.Open(db, user.ID, models.TransactionTypeRecharge, 100, models.PaymentMethodGateway, nil)
	require.NoError(t, err)

	provider := &fakeProvider{}

	result, err := ledger.Reconcile(db, provider, trx.TrxID)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusPending, result.Status)
	assert.Equal(t, 0, provider.executeCalls)
	assert.Equal(t, 0, provider.queryCalls)
}

func TestReconcileUnknownTransaction(t *testing.T) {
	db := newTestDB(t)

	_, err := ledger.Reconcile(db, &fakeProvider{}, "TRXMISSING")
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}
