package calculator

import (
	"fmt"
	"sort"

	"github.com/easyplit/easyplit/internal/money"
)

// SimplifiedDebt is one transfer in a minimal settlement plan.
type SimplifiedDebt struct {
	From   string
	To     string
	Amount money.Amount
}

type party struct {
	userID string
	amount money.Amount // always positive
}

// SimplifyDebts reduces pairwise balances to a minimal list of transfers
// that settles everyone.
func SimplifyDebts(balances Balances) ([]SimplifiedDebt, error) {
	return Settle(NetBalances(balances))
}

// Settle produces transfers that bring every net balance to zero using
// greedy matching: the largest creditor is paid by the largest debtor, the
// smaller of the two amounts is transferred, and settled parties drop out.
// Equal amounts are ordered by user ID so the output is deterministic.
//
// The result never has more than (users with a non-zero balance - 1)
// transfers. A net sum other than zero returns ErrUnbalanced.
func Settle(net map[string]money.Amount) ([]SimplifiedDebt, error) {
	var sum money.Amount
	var creditors, debtors []party
	for id, amount := range net {
		sum += amount
		switch {
		case amount > 0:
			creditors = append(creditors, party{userID: id, amount: amount})
		case amount < 0:
			debtors = append(debtors, party{userID: id, amount: -amount})
		}
	}
	if sum != 0 {
		return nil, fmt.Errorf("%w: residual %s", ErrUnbalanced, sum)
	}

	var transfers []SimplifiedDebt
	for len(creditors) > 0 && len(debtors) > 0 {
		sortParties(creditors)
		sortParties(debtors)

		creditor, debtor := &creditors[0], &debtors[0]
		amount := money.Min(creditor.amount, debtor.amount)
		transfers = append(transfers, SimplifiedDebt{
			From:   debtor.userID,
			To:     creditor.userID,
			Amount: amount,
		})

		creditor.amount -= amount
		debtor.amount -= amount
		creditors = dropSettled(creditors)
		debtors = dropSettled(debtors)
	}

	return transfers, nil
}

// sortParties orders by amount descending, then user ID ascending.
func sortParties(parties []party) {
	sort.Slice(parties, func(i, j int) bool {
		if parties[i].amount != parties[j].amount {
			return parties[i].amount > parties[j].amount
		}
		return parties[i].userID < parties[j].userID
	})
}

func dropSettled(parties []party) []party {
	out := parties[:0]
	for _, p := range parties {
		if p.amount > 0 {
			out = append(out, p)
		}
	}
	return out
}
