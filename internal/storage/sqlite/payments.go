package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/easyplit/easyplit/internal/models"
	"github.com/easyplit/easyplit/internal/storage"
)

// RecordParticipantPayment adds payment.Amount to the participant's
// contribution and stores the payment in one transaction.
func (s *SQLiteStore) RecordParticipantPayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE expense_participants SET amount = amount + ?
		 WHERE expense_id = ? AND user_id = ?`,
		payment.Amount, payment.ExpenseID, payment.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contribution: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s is not a participant of expense %s",
			storage.ErrNotFound, payment.UserID, payment.ExpenseID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, expense_id, user_id, amount, created_at, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.ExpenseID, payment.UserID, payment.Amount,
		payment.CreatedAt, payment.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListPaymentsByExpense retrieves all payments for an expense, newest first.
func (s *SQLiteStore) ListPaymentsByExpense(ctx context.Context, expenseID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expense_id, user_id, amount, created_at, recorded_by
		 FROM payments WHERE expense_id = ? ORDER BY created_at DESC, id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		if err := rows.Scan(&payment.ID, &payment.ExpenseID, &payment.UserID,
			&payment.Amount, &payment.CreatedAt, &payment.RecordedBy); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}
