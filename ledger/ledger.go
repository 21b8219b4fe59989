// Package ledger owns every movement of value in Finder. Balances are
// mutated here and nowhere else: request handlers create and read
// transactions through these functions, each of which takes the store
// handle explicitly and returns the resulting record.
package ledger

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rahatcse5bu/Finder-Backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GatewayDetails carries the provider-side fields recorded when a
// gateway-backed transaction completes.
type GatewayDetails struct {
	PaymentID    string
	GatewayTrxID string
	Fee          float64
}

// Open creates a pending transaction and snapshots the current balance
// into BalanceBefore. No balance mutation happens here.
func Open(db *gorm.DB, userID uint, txType models.TransactionType, amount float64, method models.PaymentMethod, metadata datatypes.JSON) (*models.Transaction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if method == models.PaymentMethodGateway && amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var user models.User
	if err := db.Where("id = ? AND is_deleted = false", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	before := user.Balance
	trx := models.Transaction{
		TrxID:           GenerateTrxID(),
		UserID:          userID,
		TransactionType: txType,
		Amount:          amount,
		Currency:        "BDT",
		PaymentMethod:   method,
		Status:          models.TransactionStatusPending,
		BalanceBefore:   &before,
		Metadata:        metadata,
		TransactionDate: time.Now(),
	}
	if method == models.PaymentMethodGateway {
		trx.PaymentGateway = "bkash"
	}

	if err := db.Create(&trx).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

// Complete transitions a pending transaction to COMPLETED and applies
// its signed amount to the owner's balance, all inside one store
// transaction. Idempotent: if the record is already terminal the
// existing record is returned unchanged and the balance is untouched.
func Complete(db *gorm.DB, trxID string, gw GatewayDetails) (*models.Transaction, error) {
	var result models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var trx models.Transaction
		if err := tx.Where("trx_id = ? AND is_deleted = false", trxID).First(&trx).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if trx.Status.IsTerminal() {
			result = trx
			return nil
		}

		now := time.Now()
		// Claim the pending row first. The status guard is the
		// serialization point: of two racing callers exactly one sees
		// RowsAffected == 1 and gets to mutate the balance.
		claim := tx.Model(&models.Transaction{}).
			Where("trx_id = ? AND status = ?", trxID, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":       models.TransactionStatusCompleted,
				"completed_at": now,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			// Another caller reached the terminal state first.
			if err := tx.Where("trx_id = ?", trxID).First(&result).Error; err != nil {
				return err
			}
			return nil
		}

		// Apply the signed amount. The balance guard keeps the account
		// from ever going negative; failing it rolls the claim back.
		updates := map[string]interface{}{
			"balance": gorm.Expr("balance + ?", trx.Amount),
		}
		if trx.Amount > 0 && trx.TransactionType == models.TransactionTypeRecharge {
			updates["total_earned"] = gorm.Expr("total_earned + ?", trx.Amount)
		}
		if trx.Amount < 0 {
			updates["total_spent"] = gorm.Expr("total_spent + ?", -trx.Amount)
		}
		account := tx.Model(&models.User{}).
			Where("id = ? AND is_deleted = false AND balance + ? >= 0", trx.UserID, trx.Amount).
			Updates(updates)
		if account.Error != nil {
			return account.Error
		}
		if account.RowsAffected == 0 {
			var count int64
			tx.Model(&models.User{}).Where("id = ? AND is_deleted = false", trx.UserID).Count(&count)
			if count == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientBalance
		}

		var user models.User
		if err := tx.First(&user, trx.UserID).Error; err != nil {
			return err
		}
		after := user.Balance
		before := after - trx.Amount

		snapshot := map[string]interface{}{
			"balance_before": before,
			"balance_after":  after,
		}
		if gw.PaymentID != "" {
			snapshot["payment_id"] = gw.PaymentID
		}
		if gw.GatewayTrxID != "" {
			snapshot["gateway_trx_id"] = gw.GatewayTrxID
		}
		if gw.Fee != 0 {
			snapshot["gateway_fee"] = gw.Fee
		}
		if err := tx.Model(&models.Transaction{}).Where("trx_id = ?", trxID).Updates(snapshot).Error; err != nil {
			return err
		}

		return tx.Where("trx_id = ?", trxID).First(&result).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Fail marks a pending transaction FAILED. Idempotent: an already
// terminal record is returned unchanged. The balance is never touched.
func Fail(db *gorm.DB, trxID, reason string) (*models.Transaction, error) {
	return terminate(db, trxID, models.TransactionStatusFailed, reason)
}

// Cancel marks a pending transaction CANCELLED on explicit user or
// provider cancellation. Same idempotence contract as Fail.
func Cancel(db *gorm.DB, trxID, reason string) (*models.Transaction, error) {
	return terminate(db, trxID, models.TransactionStatusCancelled, reason)
}

func terminate(db *gorm.DB, trxID string, status models.TransactionStatus, reason string) (*models.Transaction, error) {
	var result models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var trx models.Transaction
		if err := tx.Where("trx_id = ? AND is_deleted = false", trxID).First(&trx).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if trx.Status.IsTerminal() {
			result = trx
			return nil
		}

		now := time.Now()
		claim := tx.Model(&models.Transaction{}).
			Where("trx_id = ? AND status = ?", trxID, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":         status,
				"failed_at":      now,
				"failure_reason": reason,
			})
		if claim.Error != nil {
			return claim.Error
		}
		return tx.Where("trx_id = ?", trxID).First(&result).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DebitForContact is the paywall gate: check-then-debit for unlocking a
// listing's contact details. The conditional decrement is the race
// guard; two concurrent debits against funds for exactly one cannot
// both pass it. The transaction is created already COMPLETED, so open
// and complete are one atomic step for internal-balance debits.
func DebitForContact(db *gorm.DB, userID uint, listing *models.Listing, price float64) (*models.Transaction, error) {
	if price <= 0 {
		return nil, ErrInvalidAmount
	}

	var result models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		debit := tx.Model(&models.User{}).
			Where("id = ? AND is_deleted = false AND balance >= ?", userID, price).
			Updates(map[string]interface{}{
				"balance":     gorm.Expr("balance - ?", price),
				"total_spent": gorm.Expr("total_spent + ?", price),
			})
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			var count int64
			tx.Model(&models.User{}).Where("id = ? AND is_deleted = false", userID).Count(&count)
			if count == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientBalance
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		after := user.Balance
		before := after + price

		meta, _ := json.Marshal(map[string]interface{}{
			"resourceType": "listing",
			"resourceId":   listing.ID,
			"listingType":  listing.ListingType,
		})

		now := time.Now()
		result = models.Transaction{
			TrxID:           GenerateTrxID(),
			UserID:          userID,
			TransactionType: models.TransactionTypePaidFeatureDebit,
			Amount:          -price,
			Currency:        "BDT",
			PaymentMethod:   models.PaymentMethodInternalBalance,
			Status:          models.TransactionStatusCompleted,
			BalanceBefore:   &before,
			BalanceAfter:    &after,
			ReferenceType:   "listing",
			ReferenceID:     listing.ID,
			ReferenceName:   listing.Title,
			Metadata:        datatypes.JSON(meta),
			TransactionDate: now,
			CompletedAt:     &now,
		}
		return tx.Create(&result).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// HasUnlockedContact reports whether the user already paid to unlock
// this listing, so a repeat unlock never charges twice.
func HasUnlockedContact(db *gorm.DB, userID, listingID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND reference_type = ? AND reference_id = ? AND transaction_type = ? AND status = ? AND is_deleted = false",
			userID, "listing", listingID, models.TransactionTypePaidFeatureDebit, models.TransactionStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Refund spawns a new REFUND transaction crediting back a completed
// recharge. The original record is never mutated to a refunded status;
// it only gains the id of the refund that references it, and that
// linkage doubles as the guard against refunding twice.
func Refund(db *gorm.DB, originalTrxID, reason string, adminID uint) (*models.Transaction, error) {
	var result models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var orig models.Transaction
		if err := tx.Where("trx_id = ? AND is_deleted = false", originalTrxID).First(&orig).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if orig.TransactionType != models.TransactionTypeRecharge || orig.Status != models.TransactionStatusCompleted {
			return ErrNotRefundable
		}
		if orig.RefundedByTrxID != "" {
			return ErrAlreadyRefunded
		}

		refundTrxID := GenerateTrxID()
		claim := tx.Model(&models.Transaction{}).
			Where("trx_id = ? AND status = ? AND refunded_by_trx_id = ''", originalTrxID, models.TransactionStatusCompleted).
			Update("refunded_by_trx_id", refundTrxID)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrAlreadyRefunded
		}

		credit := tx.Model(&models.User{}).
			Where("id = ? AND is_deleted = false", orig.UserID).
			Update("balance", gorm.Expr("balance + ?", orig.Amount))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return ErrUserNotFound
		}

		var user models.User
		if err := tx.First(&user, orig.UserID).Error; err != nil {
			return err
		}
		after := user.Balance
		before := after - orig.Amount

		meta, _ := json.Marshal(map[string]interface{}{
			"reason":  reason,
			"adminId": adminID,
		})

		now := time.Now()
		result = models.Transaction{
			TrxID:           refundTrxID,
			UserID:          orig.UserID,
			TransactionType: models.TransactionTypeRefund,
			Amount:          orig.Amount,
			Currency:        orig.Currency,
			PaymentMethod:   models.PaymentMethodAdminCredit,
			Status:          models.TransactionStatusCompleted,
			BalanceBefore:   &before,
			BalanceAfter:    &after,
			RefundOfTrxID:   originalTrxID,
			Metadata:        datatypes.JSON(meta),
			TransactionDate: now,
			CompletedAt:     &now,
		}
		return tx.Create(&result).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
