package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/easyplit/easyplit/internal/calculator"
	"github.com/easyplit/easyplit/internal/money"
	"github.com/easyplit/easyplit/internal/service"
)

// settleExpense is one entry of the settle input file.
//
//	{"id": "dinner", "amount": "90.00", "paidBy": "alice",
//	 "participants": ["alice", "bob", "carol"], "payments": {"bob": "10.00"}}
//
// The payer is credited with the full amount. payments lists what other
// participants have already paid toward their share.
type settleExpense struct {
	ID           string                  `json:"id"`
	Amount       money.Amount            `json:"amount"`
	PaidBy       string                  `json:"paidBy"`
	Participants []string                `json:"participants"`
	Payments     map[string]money.Amount `json:"payments"`
}

type settleOutput struct {
	Balances  []transferJSON `json:"balances"`
	Transfers []transferJSON `json:"transfers"`
}

type transferJSON struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Amount money.Amount `json:"amount"`
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Compute balances and settle-up transfers from a JSON file",
	Long: `Read a JSON array of expenses and print who owes whom, followed by the
smallest set of transfers that settles every balance. Nothing is stored.`,
	Args: cobra.NoArgs,
	RunE: runSettle,
}

func init() {
	rootCmd.AddCommand(settleCmd)
	settleCmd.Flags().StringP("file", "f", "", "Expenses JSON file (- for stdin)")
	settleCmd.Flags().Bool("json", false, "Print the result as JSON")
}

func runSettle(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")
	if file == "" {
		return fmt.Errorf("expenses file required: easyplit settle -f <file>")
	}

	var in io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("cannot read expenses file: %w", err)
		}
		defer f.Close()
		in = f
	}

	out, err := settle(in)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printSettlement(cmd.OutOrStdout(), out)
}

// settle runs the balance pipeline over the expenses read from r.
func settle(r io.Reader) (*settleOutput, error) {
	var raw []settleExpense
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse expenses: %w", err)
	}

	expenses := make([]calculator.Expense, len(raw))
	for i, e := range raw {
		expenses[i] = e.toCalculator(i)
	}

	result, err := service.ComputeBalances(expenses)
	if err != nil {
		return nil, err
	}

	out := &settleOutput{
		Balances:  make([]transferJSON, len(result.Balances)),
		Transfers: make([]transferJSON, len(result.Debts)),
	}
	for i, b := range result.Balances {
		out.Balances[i] = transferJSON{From: b.From, To: b.To, Amount: b.Amount}
	}
	for i, d := range result.Debts {
		out.Transfers[i] = transferJSON{From: d.From, To: d.To, Amount: d.Amount}
	}
	return out, nil
}

func (e settleExpense) toCalculator(index int) calculator.Expense {
	id := e.ID
	if id == "" {
		id = fmt.Sprintf("#%d", index+1)
	}
	participants := make([]calculator.Participant, len(e.Participants))
	for i, userID := range e.Participants {
		contributed := e.Payments[userID]
		if userID == e.PaidBy {
			contributed = e.Amount
		}
		participants[i] = calculator.Participant{UserID: userID, Contributed: contributed}
	}
	return calculator.Expense{
		ID:           id,
		Total:        e.Amount,
		PaidByID:     e.PaidBy,
		Participants: participants,
	}
}

func printSettlement(w io.Writer, out *settleOutput) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "BALANCES")
	if len(out.Balances) == 0 {
		fmt.Fprintln(tw, "  everyone is settled up")
	}
	for _, b := range out.Balances {
		fmt.Fprintf(tw, "  %s\towes\t%s\t%s\n", b.From, b.To, b.Amount)
	}

	fmt.Fprintln(tw, "")
	fmt.Fprintln(tw, "TRANSFERS")
	if len(out.Transfers) == 0 {
		fmt.Fprintln(tw, "  none")
	}
	for _, t := range out.Transfers {
		fmt.Fprintf(tw, "  %s\tpays\t%s\t%s\n", t.From, t.To, t.Amount)
	}
	return tw.Flush()
}
