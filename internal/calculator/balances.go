package calculator

import (
	"sort"

	"github.com/easyplit/easyplit/internal/money"
)

// Pair is a directed debt relationship: From owes To.
type Pair struct {
	From string
	To   string
}

// Balances maps each directed pair to the net amount From owes To.
// A pair of users appears at most once, in its net direction.
type Balances map[Pair]money.Amount

// MemberBalance is the balance information for one group member.
type MemberBalance struct {
	UserID     string
	NetBalance money.Amount // Positive = owed money, Negative = owes money
	TotalPaid  money.Amount // Sum of contributions across expenses
	TotalShare money.Amount // Sum of this member's shares across expenses
}

// CalculateBalances aggregates the pairwise balances across expenses.
//
// Algorithm:
//   - For each expense, each non-payer participant with a positive balance
//     owes the payer that amount; a negative balance means the payer owes
//     the participant.
//   - Amounts for the same two users are netted across all expenses.
//   - Pairs that net to exactly zero are dropped.
//
// Malformed expenses are skipped.
func CalculateBalances(expenses []Expense) Balances {
	// Keyed by (lo, hi) with lo < hi; positive means lo owes hi.
	net := make(map[Pair]money.Amount)

	addDebt := func(from, to string, amount money.Amount) {
		if from < to {
			net[Pair{From: from, To: to}] += amount
		} else {
			net[Pair{From: to, To: from}] -= amount
		}
	}

	for _, e := range expenses {
		balances, err := ExpenseBalances(e)
		if err != nil {
			continue
		}

		for _, p := range e.Participants {
			if p.UserID == e.PaidByID {
				continue
			}
			switch bal := balances[p.UserID]; {
			case bal > 0:
				addDebt(p.UserID, e.PaidByID, bal)
			case bal < 0:
				addDebt(e.PaidByID, p.UserID, -bal)
			}
		}
	}

	result := make(Balances, len(net))
	for pair, amount := range net {
		switch {
		case amount > 0:
			result[pair] = amount
		case amount < 0:
			result[Pair{From: pair.To, To: pair.From}] = -amount
		}
	}
	return result
}

// NetBalances reduces pairwise balances to one net figure per user:
// what others owe them minus what they owe others.
func NetBalances(balances Balances) map[string]money.Amount {
	net := make(map[string]money.Amount)
	for pair, amount := range balances {
		net[pair.To] += amount
		net[pair.From] -= amount
	}
	return net
}

// MemberBalances summarizes every user involved in the given expenses,
// sorted by user ID. NetBalance comes from the pairwise aggregation so it
// always agrees with the simplified debts.
func MemberBalances(expenses []Expense) []MemberBalance {
	members := make(map[string]*MemberBalance)
	member := func(id string) *MemberBalance {
		m, ok := members[id]
		if !ok {
			m = &MemberBalance{UserID: id}
			members[id] = m
		}
		return m
	}

	for _, e := range expenses {
		if !e.wellFormed() {
			continue
		}
		share, remainder, err := money.Split(e.Total, len(e.Participants))
		if err != nil {
			continue
		}
		for _, p := range e.Participants {
			m := member(p.UserID)
			m.TotalPaid += p.Contributed
			m.TotalShare += share
			if p.UserID == e.PaidByID {
				m.TotalShare += remainder
			}
		}
	}

	for id, amount := range NetBalances(CalculateBalances(expenses)) {
		member(id).NetBalance = amount
	}

	result := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result
}
