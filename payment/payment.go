package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the state of one charge attempt. Transitions are monotonic:
// PENDING moves to SUCCEEDED or FAILED, SUCCEEDED may move to REFUNDED,
// nothing else is valid.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

// Payment represents one charge attempt against a subscription. The
// subscription reference is a weak one, lookup only. RefundAmount and
// RefundTransactionID are set exactly once, on the SUCCEEDED to REFUNDED
// transition.
type Payment struct {
	ID                  string
	UserID              string
	SubscriptionID      string
	Amount              decimal.Decimal
	Status              Status
	TransactionID       string
	RefundAmount        decimal.Decimal
	RefundTransactionID string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Refundable reports whether a refund may be attempted.
func (p *Payment) Refundable() bool {
	return p.Status == StatusSucceeded
}

// Receipt is the public projection of a Payment returned to callers.
type Receipt struct {
	PaymentID      string          `json:"paymentId"`
	UserID         string          `json:"userId"`
	SubscriptionID string          `json:"subscriptionId"`
	Amount         decimal.Decimal `json:"amount"`
	Status         Status          `json:"status"`
	TransactionID  string           `json:"transactionId,omitempty"`
	RefundAmount   *decimal.Decimal `json:"refundAmount,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// Receipt builds the public projection of the payment. RefundAmount is nil
// until a refund has been recorded so unrefunded receipts omit the field.
func (p *Payment) Receipt() *Receipt {
	r := &Receipt{
		PaymentID:      p.ID,
		UserID:         p.UserID,
		SubscriptionID: p.SubscriptionID,
		Amount:         p.Amount,
		Status:         p.Status,
		TransactionID:  p.TransactionID,
		CreatedAt:      p.CreatedAt,
	}
	if p.Status == StatusRefunded {
		refund := p.RefundAmount
		r.RefundAmount = &refund
	}
	return r
}

// platformFeeRate is the fixed 1% fee retained on refunds. Not configurable.
var platformFeeRate = decimal.NewFromFloat(0.99)

// ComputeRefund returns the refundable portion of a charge: 99% of the
// amount, rounded half-up to 2 decimal places, so 100.00 refunds 99.00 and
// 7.50 refunds 7.43.
func ComputeRefund(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(platformFeeRate).Round(2)
}
