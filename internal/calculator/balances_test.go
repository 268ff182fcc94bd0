package calculator

import (
	"reflect"
	"testing"

	"github.com/easyplit/easyplit/internal/money"
)

// equalExpense builds an expense where the payer fronted the full total.
func equalExpense(id, payer string, total money.Amount, participants ...string) Expense {
	e := Expense{ID: id, Total: total, PaidByID: payer}
	for _, p := range participants {
		var contributed money.Amount
		if p == payer {
			contributed = total
		}
		e.Participants = append(e.Participants, Participant{UserID: p, Contributed: contributed})
	}
	return e
}

func TestCalculateBalances(t *testing.T) {
	tests := []struct {
		name     string
		expenses []Expense
		want     Balances
	}{
		{
			name:     "nil input",
			expenses: nil,
			want:     Balances{},
		},
		{
			name:     "empty input",
			expenses: []Expense{},
			want:     Balances{},
		},
		{
			name:     "single payer three participants",
			expenses: []Expense{equalExpense("e1", "A", 30000, "A", "B", "C")},
			want: Balances{
				{From: "B", To: "A"}: 10000,
				{From: "C", To: "A"}: 10000,
			},
		},
		{
			name: "mutual debts net to zero",
			expenses: []Expense{
				equalExpense("e1", "A", 10000, "A", "B"),
				equalExpense("e2", "B", 10000, "A", "B"),
			},
			want: Balances{},
		},
		{
			name: "same pair accumulates",
			expenses: []Expense{
				equalExpense("e1", "A", 10000, "A", "B"),
				equalExpense("e2", "A", 4000, "A", "B"),
			},
			want: Balances{{From: "B", To: "A"}: 7000},
		},
		{
			name: "opposite directions net to the larger side",
			expenses: []Expense{
				equalExpense("e1", "A", 10000, "A", "B"),
				equalExpense("e2", "B", 4000, "A", "B"),
			},
			want: Balances{{From: "B", To: "A"}: 3000},
		},
		{
			name: "overpaying participant is owed by the payer",
			expenses: []Expense{{
				ID:       "e1",
				Total:    10000,
				PaidByID: "A",
				Participants: []Participant{
					{UserID: "A", Contributed: 10000},
					{UserID: "B", Contributed: 8000},
				},
			}},
			want: Balances{{From: "A", To: "B"}: 3000},
		},
		{
			name: "partially settled participant",
			expenses: []Expense{{
				ID:       "e1",
				Total:    30000,
				PaidByID: "A",
				Participants: []Participant{
					{UserID: "A", Contributed: 30000},
					{UserID: "B", Contributed: 10000},
					{UserID: "C", Contributed: 2500},
				},
			}},
			want: Balances{{From: "C", To: "A"}: 7500},
		},
		{
			name: "malformed expenses are skipped",
			expenses: []Expense{
				{ID: "bad", Total: 500, PaidByID: "X"},
				equalExpense("e1", "A", 10000, "A", "B"),
			},
			want: Balances{{From: "B", To: "A"}: 5000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBalances(tt.expenses)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CalculateBalances() = %v, want %v", got, tt.want)
			}
			for pair := range got {
				if pair.From == pair.To {
					t.Errorf("self edge produced: %v", pair)
				}
				if _, ok := got[Pair{From: pair.To, To: pair.From}]; ok {
					t.Errorf("pair %v present in both directions", pair)
				}
			}
		})
	}
}

func TestCalculateBalances_Idempotent(t *testing.T) {
	expenses := []Expense{
		equalExpense("e1", "A", 30000, "A", "B", "C"),
		equalExpense("e2", "C", 9000, "B", "C"),
		equalExpense("e3", "B", 10000, "A", "B", "C", "D"),
	}
	first := CalculateBalances(expenses)
	second := CalculateBalances(expenses)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ: %v vs %v", first, second)
	}
}

func TestNetBalances(t *testing.T) {
	net := NetBalances(Balances{
		{From: "B", To: "A"}: 10000,
		{From: "C", To: "A"}: 10000,
		{From: "C", To: "B"}: 500,
	})
	want := map[string]money.Amount{"A": 20000, "B": -9500, "C": -10500}
	if !reflect.DeepEqual(net, want) {
		t.Errorf("NetBalances() = %v, want %v", net, want)
	}
}

func TestMemberBalances(t *testing.T) {
	expenses := []Expense{
		equalExpense("e1", "A", 10000, "A", "B", "C"),
	}
	got := MemberBalances(expenses)
	want := []MemberBalance{
		{UserID: "A", NetBalance: 6666, TotalPaid: 10000, TotalShare: 3334},
		{UserID: "B", NetBalance: -3333, TotalPaid: 0, TotalShare: 3333},
		{UserID: "C", NetBalance: -3333, TotalPaid: 0, TotalShare: 3333},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MemberBalances() = %+v, want %+v", got, want)
	}
}
