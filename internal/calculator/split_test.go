package calculator

import (
	"errors"
	"testing"

	"github.com/easyplit/easyplit/internal/money"
)

func TestPersonalBalance(t *testing.T) {
	tests := []struct {
		name         string
		paymentMade  money.Amount
		total        money.Amount
		participants int
		want         money.Amount
		wantErr      bool
	}{
		{name: "paid nothing owes full share", paymentMade: 0, total: 30000, participants: 3, want: 10000},
		{name: "paid exact share is settled", paymentMade: 10000, total: 30000, participants: 3, want: 0},
		{name: "payer has credit", paymentMade: 30000, total: 30000, participants: 3, want: -20000},
		{name: "partial payment", paymentMade: 2500, total: 10000, participants: 2, want: 2500},
		{name: "uneven split truncates share", paymentMade: 0, total: 10000, participants: 3, want: 3333},
		{name: "single participant", paymentMade: 4200, total: 4200, participants: 1, want: 0},
		{name: "zero participants", total: 10000, participants: 0, wantErr: true},
		{name: "negative participants", total: 10000, participants: -2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PersonalBalance(tt.paymentMade, tt.total, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PersonalBalance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("PersonalBalance() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPersonalBalance_ShareProperties(t *testing.T) {
	for _, total := range []money.Amount{1, 99, 10000, 12345, 30000} {
		for n := 1; n <= 7; n++ {
			share := total / money.Amount(n)

			settled, err := PersonalBalance(share, total, n)
			if err != nil {
				t.Fatalf("PersonalBalance failed: %v", err)
			}
			if settled != 0 {
				t.Errorf("total=%s n=%d: paying the share left balance %s", total, n, settled)
			}

			owed, err := PersonalBalance(0, total, n)
			if err != nil {
				t.Fatalf("PersonalBalance failed: %v", err)
			}
			if owed != share {
				t.Errorf("total=%s n=%d: paying nothing owes %s, want %s", total, n, owed, share)
			}
		}
	}
}

func TestDisplayBalance(t *testing.T) {
	// 100 split three ways is 33.333..., shown as 33.33 and never 33.34.
	got, err := DisplayBalance(0, 10000, 3)
	if err != nil {
		t.Fatalf("DisplayBalance failed: %v", err)
	}
	if got != 3333 {
		t.Errorf("DisplayBalance(0, 100, 3) = %s, want 33.33", got)
	}

	// The payer's credit of 66.666... is shown as 66.66.
	got, err = DisplayBalance(10000, 10000, 3)
	if err != nil {
		t.Fatalf("DisplayBalance failed: %v", err)
	}
	if got != 6666 {
		t.Errorf("DisplayBalance(100, 100, 3) = %s, want 66.66", got)
	}

	if _, err := DisplayBalance(0, 10000, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExpenseBalances(t *testing.T) {
	t.Run("payer fronted everything", func(t *testing.T) {
		e := Expense{
			ID:       "e1",
			Total:    30000,
			PaidByID: "A",
			Participants: []Participant{
				{UserID: "A", Contributed: 30000},
				{UserID: "B"},
				{UserID: "C"},
			},
		}
		got, err := ExpenseBalances(e)
		if err != nil {
			t.Fatalf("ExpenseBalances failed: %v", err)
		}
		want := map[string]money.Amount{"A": -20000, "B": 10000, "C": 10000}
		for id, w := range want {
			if got[id] != w {
				t.Errorf("balance[%s] = %s, want %s", id, got[id], w)
			}
		}
	})

	t.Run("remainder goes to payer and balances sum to zero", func(t *testing.T) {
		e := Expense{
			ID:       "e2",
			Total:    10000,
			PaidByID: "B",
			Participants: []Participant{
				{UserID: "A"},
				{UserID: "B", Contributed: 10000},
				{UserID: "C"},
			},
		}
		got, err := ExpenseBalances(e)
		if err != nil {
			t.Fatalf("ExpenseBalances failed: %v", err)
		}
		if got["A"] != 3333 || got["C"] != 3333 {
			t.Errorf("non-payers should owe 33.33, got A=%s C=%s", got["A"], got["C"])
		}
		if got["B"] != -6666 {
			t.Errorf("payer balance = %s, want -66.66", got["B"])
		}

		var sum money.Amount
		for _, b := range got {
			sum += b
		}
		if sum != 0 {
			t.Errorf("balances sum to %s, want 0", sum)
		}
	})

	t.Run("malformed expenses are rejected", func(t *testing.T) {
		bad := []Expense{
			{ID: "no-participants", Total: 100, PaidByID: "A"},
			{ID: "no-payer", Total: 100, Participants: []Participant{{UserID: "A"}}},
			{ID: "payer-outside", Total: 100, PaidByID: "Z", Participants: []Participant{{UserID: "A"}}},
			{ID: "zero-total", Total: 0, PaidByID: "A", Participants: []Participant{{UserID: "A"}}},
			{ID: "duplicate", Total: 100, PaidByID: "A", Participants: []Participant{{UserID: "A"}, {UserID: "A"}}},
		}
		for _, e := range bad {
			if _, err := ExpenseBalances(e); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", e.ID, err)
			}
		}
	})
}
