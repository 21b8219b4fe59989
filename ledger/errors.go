package ledger

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid transaction amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotRefundable       = errors.New("transaction is not refundable")
	ErrAlreadyRefunded     = errors.New("transaction already refunded")
)
