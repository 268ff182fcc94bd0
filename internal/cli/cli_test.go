package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyplit/easyplit/internal/money"
)

const tripExpenses = `[
  {"id": "hotel", "amount": "300.00", "paidBy": "alice", "participants": ["alice", "bob", "carol"]},
  {"id": "dinner", "amount": 90, "paidBy": "bob", "participants": ["alice", "bob", "carol"],
   "payments": {"carol": "30.00"}}
]`

func TestSettle(t *testing.T) {
	out, err := settle(strings.NewReader(tripExpenses))
	require.NoError(t, err)

	// hotel: bob and carol owe alice 100 each.
	// dinner: alice owes bob 30, carol already paid.
	assert.ElementsMatch(t, []transferJSON{
		{From: "bob", To: "alice", Amount: money.Cents(7000)},
		{From: "carol", To: "alice", Amount: money.Cents(10000)},
	}, out.Balances)
	assert.Equal(t, []transferJSON{
		{From: "carol", To: "alice", Amount: money.Cents(10000)},
		{From: "bob", To: "alice", Amount: money.Cents(7000)},
	}, out.Transfers)
}

func TestSettleEmptyAndInvalid(t *testing.T) {
	out, err := settle(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, out.Balances)
	assert.Empty(t, out.Transfers)

	_, err = settle(strings.NewReader(`[{"amount": "1.001"}]`))
	assert.Error(t, err)
}

func TestSettleCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")
	require.NoError(t, os.WriteFile(path, []byte(tripExpenses), 0o600))

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"settle", "-f", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())

	got := stdout.String()
	assert.Contains(t, got, "TRANSFERS")
	assert.Regexp(t, `carol\s+pays\s+alice\s+100\.00`, got)
	assert.Regexp(t, `bob\s+pays\s+alice\s+70\.00`, got)
}

func TestVersionCommand(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "easyplit dev\n", stdout.String())
}
