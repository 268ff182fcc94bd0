package models

import (
	"github.com/easyplit/easyplit/internal/calculator"
	"github.com/easyplit/easyplit/internal/money"
)

// Expense is a shared cost fronted by one payer.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Amount is the total cost of the expense. Always positive.
	Amount money.Amount

	// PaidByID is the user who fronted the full amount.
	PaidByID string

	// GroupID is the owning group, empty for expenses outside a group.
	GroupID string

	// Participants are the users sharing the expense, payer included.
	Participants []ExpenseParticipant

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// PaidAt is the Unix timestamp of the purchase, zero if unknown.
	PaidAt int64
}

// ExpenseParticipant joins an expense and a user.
type ExpenseParticipant struct {
	UserID string

	// Amount is the cumulative amount this user has contributed. The payer
	// starts at the full expense amount, everyone else at zero.
	Amount money.Amount
}

// ParticipantIDs returns the user IDs of all participants.
func (e *Expense) ParticipantIDs() []string {
	ids := make([]string, len(e.Participants))
	for i, p := range e.Participants {
		ids[i] = p.UserID
	}
	return ids
}

// HasParticipant reports whether userID takes part in the expense.
func (e *Expense) HasParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// ForBalance converts the expense into the calculator's input shape.
func (e *Expense) ForBalance() calculator.Expense {
	participants := make([]calculator.Participant, len(e.Participants))
	for i, p := range e.Participants {
		participants[i] = calculator.Participant{UserID: p.UserID, Contributed: p.Amount}
	}
	return calculator.Expense{
		ID:           e.ID,
		Total:        e.Amount,
		PaidByID:     e.PaidByID,
		Participants: participants,
	}
}
