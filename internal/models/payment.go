package models

import "github.com/easyplit/easyplit/internal/money"

// Payment records one participant paying down their share of an expense.
// Each payment increments the participant's contribution.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// ExpenseID is the expense being paid down.
	ExpenseID string

	// UserID is the participant whose contribution increased.
	UserID string

	// Amount is the payment amount.
	Amount money.Amount

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64

	// RecordedBy is the user ID who recorded this payment.
	RecordedBy string
}
