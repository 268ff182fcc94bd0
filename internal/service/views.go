package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/easyplit/easyplit/internal/calculator"
	"github.com/easyplit/easyplit/internal/models"
	"github.com/easyplit/easyplit/internal/money"
	"github.com/easyplit/easyplit/internal/storage"
)

// GroupDetail is a group with its members, expenses and the users they
// reference.
type GroupDetail struct {
	Group    *models.Group
	Expenses []*models.Expense
	Users    map[string]models.UserSummary
}

// PairBalance is one entry of the pairwise "who owes whom" view.
type PairBalance struct {
	From   string
	To     string
	Amount money.Amount
}

// GroupBalances is the full balance picture of a group.
type GroupBalances struct {
	GroupID  string
	Balances []PairBalance
	Members  []calculator.MemberBalance
	Debts    []calculator.SimplifiedDebt
}

// ParticipantBalance is one participant's standing on an expense.
type ParticipantBalance struct {
	UserID      string
	Contributed money.Amount
	// Balance is positive while the participant owes, negative for a credit.
	Balance money.Amount
	// Display is the positive, truncated amount shown next to "owes" or "is owed".
	Display money.Amount
	IsPayer bool
	Settled bool
}

// ExpenseDetail is an expense with per-participant balances.
type ExpenseDetail struct {
	Expense  *models.Expense
	Users    map[string]models.UserSummary
	Balances []ParticipantBalance
	// Settled is true once every non-payer's balance is zero or below.
	Settled bool
}

// sortedPairs flattens a balance map into a stable order.
func sortedPairs(balances calculator.Balances) []PairBalance {
	pairs := make([]PairBalance, 0, len(balances))
	for pair, amount := range balances {
		pairs = append(pairs, PairBalance{From: pair.From, To: pair.To, Amount: amount})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].From != pairs[j].From {
			return pairs[i].From < pairs[j].From
		}
		return pairs[i].To < pairs[j].To
	})
	return pairs
}

// participantBalances computes the per-participant view of an expense.
func participantBalances(expense *models.Expense) ([]ParticipantBalance, bool, error) {
	balances, err := calculator.ExpenseBalances(expense.ForBalance())
	if err != nil {
		return nil, false, err
	}

	n := len(expense.Participants)
	settled := true
	result := make([]ParticipantBalance, 0, n)
	for _, p := range expense.Participants {
		display, err := calculator.DisplayBalance(p.Amount, expense.Amount, n)
		if err != nil {
			return nil, false, err
		}
		isPayer := p.UserID == expense.PaidByID
		bal := balances[p.UserID]
		if isPayer {
			// The payer also absorbs the indivisible cents.
			display = bal.Abs()
		}
		pb := ParticipantBalance{
			UserID:      p.UserID,
			Contributed: p.Amount,
			Balance:     bal,
			Display:     display,
			IsPayer:     isPayer,
			Settled:     bal <= 0,
		}
		if !isPayer && bal > 0 {
			settled = false
		}
		result = append(result, pb)
	}
	return result, settled, nil
}

// userSummaries loads the public view of the given users.
func userSummaries(ctx context.Context, store storage.Store, ids []string) (map[string]models.UserSummary, error) {
	users, err := store.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	summaries := make(map[string]models.UserSummary, len(users))
	for id, u := range users {
		summaries[id] = u.Summary()
	}
	return summaries, nil
}

// requireUsers fails with ErrInvalidArgument if any ID has no user.
func requireUsers(ctx context.Context, store storage.Store, ids []string) error {
	users, err := store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	var missing []string
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unknown users %s", ErrInvalidArgument, strings.Join(missing, ", "))
	}
	return nil
}

// uniqueIDs trims, drops blanks and removes duplicates, keeping order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// contains reports whether id is in ids.
func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// findNewParticipants returns participants that are not already in existingMembers.
func findNewParticipants(participants, existingMembers []string) []string {
	memberSet := make(map[string]bool, len(existingMembers))
	for _, m := range existingMembers {
		memberSet[m] = true
	}
	var newOnes []string
	for _, p := range participants {
		if !memberSet[p] {
			newOnes = append(newOnes, p)
		}
	}
	return newOnes
}
