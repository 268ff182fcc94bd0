package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/easyplit/easyplit/internal/models"
	"github.com/easyplit/easyplit/internal/storage"
)

const expenseColumns = `id, description, amount, paid_by_id, group_id, created_at, paid_at`

func scanExpense(row scanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var groupID sql.NullString
	err := row.Scan(
		&expense.ID,
		&expense.Description,
		&expense.Amount,
		&expense.PaidByID,
		&groupID,
		&expense.CreatedAt,
		&expense.PaidAt,
	)
	if groupID.Valid {
		expense.GroupID = groupID.String
	}
	return expense, err
}

// CreateExpense persists a new expense and its participants.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Description == "" {
		expense.Description = defaultDescription(expense.PaidAt, expense.CreatedAt)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.Amount, expense.PaidByID,
		nullable(expense.GroupID), expense.CreatedAt, expense.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", classify(err))
	}

	for _, p := range expense.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, p.UserID, p.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its participants.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID)

	expense, err := scanExpense(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadParticipants(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group with their
// participants, oldest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = ? ORDER BY created_at, id`,
		groupID,
	)
}

// ListExpensesForUser retrieves every expense the user participates in,
// newest first.
func (s *SQLiteStore) ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE id IN (SELECT expense_id FROM expense_participants WHERE user_id = ?)
		 ORDER BY created_at DESC, id`,
		userID,
	)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := s.loadParticipants(ctx, expenses); err != nil {
		return nil, err
	}

	return expenses, nil
}

// loadParticipants fills in the participants of the given expenses with a
// single query.
func (s *SQLiteStore) loadParticipants(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		ids[i] = e.ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, user_id, amount FROM expense_participants
		 WHERE expense_id IN (`+placeholders(len(ids))+`)
		 ORDER BY expense_id, user_id`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var p models.ExpenseParticipant
		if err := rows.Scan(&expenseID, &p.UserID, &p.Amount); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Participants = append(e.Participants, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	return nil
}

// UpdateExpense updates an expense's description and paid-at time.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET description = ?, paid_at = ? WHERE id = ?",
		expense.Description, expense.PaidAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: expense %s", storage.ErrNotFound, expense.ID)
	}
	return nil
}

// DeleteExpense removes an expense together with its participants and payments.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	return nil
}

// defaultDescription labels an expense created without a description.
func defaultDescription(paidAt, createdAt int64) string {
	ts := paidAt
	if ts == 0 {
		ts = createdAt
	}
	return fmt.Sprintf("Expense - %s", time.Unix(ts, 0).UTC().Format("Jan 2, 2006"))
}
