package paymentController

import (
	"errors"
	"log"

	"github.com/rahatcse5bu/Finder-Backend/database"
	"github.com/rahatcse5bu/Finder-Backend/gateway"
	"github.com/rahatcse5bu/Finder-Backend/ledger"
	"github.com/rahatcse5bu/Finder-Backend/middleware"
	"github.com/rahatcse5bu/Finder-Backend/models"
	"github.com/rahatcse5bu/Finder-Backend/utils"

	"github.com/gofiber/fiber/v2"
)

// GatewayClient is wired in main with the configured bKash adapter;
// tests swap in a stub.
var GatewayClient gateway.Client

// InitiateRecharge opens a pending recharge transaction and a bKash
// payment session, returning the redirect URL the client completes the
// payment on.
func InitiateRecharge(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	reqData, ok := c.Locals("validatedRecharge").(*struct {
		Amount        float64 `json:"amount" validate:"required,gt=0"`
		PaymentMethod string  `json:"paymentMethod" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	trx, err := ledger.Open(db, userId, models.TransactionTypeRecharge, reqData.Amount, models.PaymentMethodGateway, nil)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid recharge amount!", fiber.Map{"code": "VALIDATION_ERROR"})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create transaction!", nil)
	}

	payerReference := user.Mobile
	if payerReference == "" {
		payerReference = user.Email
	}

	// The ledger's transaction id rides along as the merchant invoice
	// number so callback and verify can correlate either way.
	session, err := GatewayClient.CreatePayment(payerReference, reqData.Amount, "BDT", trx.TrxID)
	if err != nil {
		if _, ferr := ledger.Fail(db, trx.TrxID, "failed to open gateway payment session"); ferr != nil {
			log.Printf("Error failing transaction %s: %v", trx.TrxID, ferr)
		}
		return gatewayErrorResponse(c, err)
	}

	if err := db.Model(&models.Transaction{}).Where("trx_id = ?", trx.TrxID).
		Update("payment_id", session.PaymentID).Error; err != nil {
		log.Printf("Error recording payment id for %s: %v", trx.TrxID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recharge initiated!", fiber.Map{
		"transactionId": trx.TrxID,
		"paymentID":     session.PaymentID,
		"redirectURL":   session.RedirectURL,
		"amount":        reqData.Amount,
		"currency":      "BDT",
		"status":        trx.Status,
	})
}

// PaymentCallback is bKash's webhook. Providers retry on anything but
// a success-shaped acknowledgment, so this always answers 200; the
// ledger's own record carries the real outcome.
func PaymentCallback(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCallback").(*struct {
		PaymentID     string `json:"paymentID"`
		Status        string `json:"status"`
		TransactionID string `json:"transactionId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Callback acknowledged.", nil)
	}

	db := database.Database.Db

	var trx models.Transaction
	if err := db.Where("trx_id = ? AND is_deleted = false", reqData.TransactionID).First(&trx).Error; err != nil {
		log.Printf("Callback for unknown transaction %s (paymentID %s)", reqData.TransactionID, reqData.PaymentID)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Callback acknowledged.", nil)
	}

	if trx.Status.IsTerminal() {
		// Duplicate delivery; nothing to do and nothing to complain
		// about to the provider.
		log.Printf("Duplicate callback for transaction %s (status %s)", trx.TrxID, trx.Status)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Callback already processed.", nil)
	}

	switch reqData.Status {
	case "failure":
		if _, err := ledger.Fail(db, trx.TrxID, "payment failed at gateway"); err != nil {
			log.Printf("Error failing transaction %s: %v", trx.TrxID, err)
		}
	case "cancel":
		if _, err := ledger.Cancel(db, trx.TrxID, "payment cancelled by payer"); err != nil {
			log.Printf("Error cancelling transaction %s: %v", trx.TrxID, err)
		}
	default:
		// The callback's word is never enough to credit anything; the
		// reconcile routine confirms against the gateway itself.
		result, err := ledger.Reconcile(db, GatewayClient, trx.TrxID)
		if err != nil {
			log.Printf("Error reconciling transaction %s: %v", trx.TrxID, err)
		} else if result.Status == models.TransactionStatusCompleted {
			sendReceiptAsync(result)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Callback processed.", nil)
}

// VerifyPayment lets the owning user poll a transaction it believes
// completed out-of-band, triggering reconciliation if still pending.
func VerifyPayment(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	reqData, ok := c.Locals("validatedVerify").(*struct {
		TransactionID string `json:"transactionId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Owner-scoped lookup; somebody else's transaction id is a 404.
	var trx models.Transaction
	if err := db.Where("trx_id = ? AND user_id = ? AND is_deleted = false", reqData.TransactionID, userId).First(&trx).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Transaction not found!", fiber.Map{"code": "NOT_FOUND"})
	}

	if trx.Status == models.TransactionStatusPending {
		result, err := ledger.Reconcile(db, GatewayClient, trx.TrxID)
		if err != nil {
			if result != nil {
				trx = *result
			}
			var gwErr *gateway.GatewayError
			if errors.As(err, &gwErr) && gwErr.Retryable {
				return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway unavailable, try again later.", fiber.Map{
					"code":        "GATEWAY_UNAVAILABLE",
					"transaction": trx,
				})
			}
			log.Printf("Error reconciling transaction %s: %v", trx.TrxID, err)
		} else {
			trx = *result
			if trx.Status == models.TransactionStatusCompleted {
				sendReceiptAsync(&trx)
			}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction state fetched!", fiber.Map{
		"transaction": trx,
	})
}

// GetWalletBalance returns user's current wallet balance
func GetWalletBalance(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet balance fetched!", fiber.Map{
		"balance":     user.Balance,
		"totalSpent":  user.TotalSpent,
		"totalEarned": user.TotalEarned,
		"currency":    "BDT",
	})
}

// GetTransactionHistory returns the user's transaction history
func GetTransactionHistory(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	// Parse query params
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	txnType := c.Query("type") // RECHARGE, PAID_FEATURE_DEBIT, REFUND

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	offset := (page - 1) * limit
	db := database.Database.Db

	query := db.Model(&models.Transaction{}).Where("user_id = ? AND is_deleted = false", userId)

	if txnType != "" {
		query = query.Where("transaction_type = ?", txnType)
	}

	var total int64
	query.Count(&total)

	var transactions []models.Transaction
	if err := query.
		Order("transaction_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction history fetched!", fiber.Map{
		"transactions":   transactions,
		"currentBalance": user.Balance,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetTransactionDetail returns one transaction, owner-scoped
func GetTransactionDetail(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	trxId := c.Params("trxId")

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	var trx models.Transaction
	if err := database.Database.Db.Where("trx_id = ? AND user_id = ? AND is_deleted = false", trxId, userId).First(&trx).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Transaction not found!", fiber.Map{"code": "NOT_FOUND"})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction fetched!", fiber.Map{
		"transaction": trx,
	})
}

// RefundTransaction credits back a completed recharge (Admin only)
func RefundTransaction(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var admin models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false AND role IN ?", userId, []string{"ADMIN", "SUPER-ADMIN"}).First(&admin).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied! Admin role required.", nil)
	}

	reqData, ok := c.Locals("validatedRefund").(*struct {
		TransactionID string `json:"transactionId"`
		Reason        string `json:"reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	refund, err := ledger.Refund(db, reqData.TransactionID, reqData.Reason, userId)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrTransactionNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Transaction not found!", fiber.Map{"code": "NOT_FOUND"})
		case errors.Is(err, ledger.ErrNotRefundable):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only completed recharges can be refunded!", fiber.Map{"code": "VALIDATION_ERROR"})
		case errors.Is(err, ledger.ErrAlreadyRefunded):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Transaction already refunded!", fiber.Map{"code": "ALREADY_REFUNDED"})
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process refund!", nil)
		}
	}

	// Notify outside the completed transition
	go func(t models.Transaction) {
		var u models.User
		if err := database.Database.Db.Select("name, email").First(&u, t.UserID).Error; err == nil && u.Email != "" {
			utils.SendRefundEmail(u.Email, u.Name, t.Amount, t.TrxID)
		}
	}(*refund)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Refund processed!", fiber.Map{
		"refund": refund,
	})
}

// sendReceiptAsync mails the recharge receipt after a completed
// transition; kept off the atomic path so a mailer fault cannot touch
// the committed payment.
func sendReceiptAsync(trx *models.Transaction) {
	go func(t models.Transaction) {
		var u models.User
		if err := database.Database.Db.Select("name, email").First(&u, t.UserID).Error; err == nil && u.Email != "" {
			after := 0.0
			if t.BalanceAfter != nil {
				after = *t.BalanceAfter
			}
			utils.SendRechargeReceiptEmail(u.Email, u.Name, t.Amount, t.TrxID, after)
		}
	}(*trx)
}

func gatewayErrorResponse(c *fiber.Ctx, err error) error {
	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) && gwErr.Retryable {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway unavailable, try again later.", fiber.Map{
			"code": "GATEWAY_UNAVAILABLE",
		})
	}
	return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Payment was rejected by the gateway.", fiber.Map{
		"code": "GATEWAY_REJECTED",
	})
}
