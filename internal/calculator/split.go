package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/easyplit/easyplit/internal/money"
)

var (
	// ErrInvalidArgument is returned when a balance is requested for an
	// expense without participants.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnbalanced signals that net balances do not sum to zero, which means
	// the aggregation upstream produced an inconsistent debt graph.
	ErrUnbalanced = errors.New("net balances do not sum to zero")
)

// Participant is one user's stake in an expense.
type Participant struct {
	UserID string
	// Contributed is the cumulative amount this user has paid toward the
	// expense. The payer starts at the full total, everyone else at zero.
	Contributed money.Amount
}

// Expense is an expense with the minimal information needed for balance
// calculations.
type Expense struct {
	ID           string
	Total        money.Amount
	PaidByID     string
	Participants []Participant
}

// PersonalBalance computes one participant's signed balance for an expense:
// the truncated per-person share minus what they have paid.
//
// Positive means the participant still owes, zero means settled and negative
// means they paid more than their share.
func PersonalBalance(paymentMade, totalAmount money.Amount, participantCount int) (money.Amount, error) {
	share, _, err := money.Split(totalAmount, participantCount)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return share - paymentMade, nil
}

// DisplayBalance is the positive, two-decimal truncated form of the exact
// (unrounded) personal balance, for presenting "owes" / "is owed" amounts.
func DisplayBalance(paymentMade, totalAmount money.Amount, participantCount int) (money.Amount, error) {
	if participantCount <= 0 {
		return 0, fmt.Errorf("%w: participant count %d", ErrInvalidArgument, participantCount)
	}
	exact := totalAmount.Decimal().
		Div(decimal.NewFromInt(int64(participantCount))).
		Sub(paymentMade.Decimal())
	return money.PositiveTruncated(exact), nil
}

// ExpenseBalances returns every participant's balance for a single expense.
//
// Each participant owes the truncated share. The cents that cannot be divided
// evenly are added to the payer's share, so the balances always sum to
// Total minus the sum of contributions (zero when the contributions add up to
// the total).
func ExpenseBalances(e Expense) (map[string]money.Amount, error) {
	if !e.wellFormed() {
		return nil, fmt.Errorf("%w: malformed expense %q", ErrInvalidArgument, e.ID)
	}

	n := len(e.Participants)
	_, remainder, err := money.Split(e.Total, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	balances := make(map[string]money.Amount, n)
	for _, p := range e.Participants {
		bal, err := PersonalBalance(p.Contributed, e.Total, n)
		if err != nil {
			return nil, err
		}
		if p.UserID == e.PaidByID {
			bal += remainder
		}
		balances[p.UserID] = bal
	}
	return balances, nil
}

// wellFormed reports whether the expense can take part in balance
// calculations: a positive total, a payer who is one of the participants and
// no blank or repeated participant ids.
func (e Expense) wellFormed() bool {
	if e.Total <= 0 || e.PaidByID == "" || len(e.Participants) == 0 {
		return false
	}
	seen := make(map[string]bool, len(e.Participants))
	for _, p := range e.Participants {
		if p.UserID == "" || seen[p.UserID] {
			return false
		}
		seen[p.UserID] = true
	}
	return seen[e.PaidByID]
}
