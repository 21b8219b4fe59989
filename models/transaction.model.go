package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionType defines the type of wallet transaction
type TransactionType string

const (
	TransactionTypeRecharge         TransactionType = "RECHARGE"
	TransactionTypePaidFeatureDebit TransactionType = "PAID_FEATURE_DEBIT"
	TransactionTypeRefund           TransactionType = "REFUND"
)

// TransactionStatus defines the status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// PaymentMethod defines how value moved
type PaymentMethod string

const (
	PaymentMethodGateway         PaymentMethod = "GATEWAY"
	PaymentMethodInternalBalance PaymentMethod = "INTERNAL_BALANCE"
	PaymentMethodAdminCredit     PaymentMethod = "ADMIN_CREDIT"
)

// Transaction tracks every movement of value for a user. Amount is
// signed: credits (recharge, refund) are positive, debits negative.
// Once Status is terminal the record is immutable except the
// refund-linkage fields.
type Transaction struct {
	gorm.Model
	TrxID           string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"trxId"`
	UserID          uint              `gorm:"not null;index" json:"userId"`
	TransactionType TransactionType   `gorm:"type:varchar(50);not null" json:"transactionType"`
	Amount          float64           `gorm:"not null" json:"amount"`
	Currency        string            `gorm:"type:varchar(10);default:'BDT'" json:"currency"`
	PaymentMethod   PaymentMethod     `gorm:"type:varchar(50);not null" json:"paymentMethod"`
	Status          TransactionStatus `gorm:"type:varchar(20);default:'PENDING'" json:"status"`

	// Balance snapshots. BalanceBefore is set when the transaction is
	// opened, BalanceAfter only on completion. For a completed
	// transaction BalanceAfter - BalanceBefore equals Amount.
	BalanceBefore *float64 `json:"balanceBefore"`
	BalanceAfter  *float64 `json:"balanceAfter"`

	// Payment gateway details (for gateway-backed recharges)
	PaymentGateway string  `gorm:"type:varchar(50)" json:"paymentGateway"`   // bkash
	PaymentID      string  `gorm:"type:varchar(100);index" json:"paymentId"` // gateway payment session id
	GatewayTrxID   string  `gorm:"type:varchar(100)" json:"gatewayTrxId"`    // gateway's own transaction id
	GatewayFee     float64 `gorm:"default:0" json:"gatewayFee"`

	// Reference details (for paid-feature debits)
	ReferenceType string `gorm:"type:varchar(50)" json:"referenceType"` // listing
	ReferenceID   uint   `gorm:"default:0" json:"referenceId"`
	ReferenceName string `gorm:"type:varchar(255)" json:"referenceName"`

	// Refund linkage. A refund is a new transaction pointing back at
	// the original; the original only ever gains RefundedByTrxID.
	RefundOfTrxID   string `gorm:"type:varchar(64);default:''" json:"refundOfTrxId"`
	RefundedByTrxID string `gorm:"type:varchar(64);default:''" json:"refundedByTrxId"`

	FailureReason string         `gorm:"type:text" json:"failureReason"`
	Metadata      datatypes.JSON `json:"metadata"`

	TransactionDate time.Time  `gorm:"not null" json:"transactionDate"`
	CompletedAt     *time.Time `json:"completedAt"`
	FailedAt        *time.Time `json:"failedAt"`
	IsDeleted       bool       `gorm:"default:false" json:"isDeleted"`

	// Relations - omit in JSON by default (only load when needed)
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal reports whether the status allows no further transition.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed || s == TransactionStatusCancelled
}
