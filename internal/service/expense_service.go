package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/easyplit/easyplit/internal/metrics"
	"github.com/easyplit/easyplit/internal/models"
	"github.com/easyplit/easyplit/internal/money"
	"github.com/easyplit/easyplit/internal/storage"
)

// ExpenseService manages expenses and the payments recorded against them.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// NewExpense holds the input for CreateExpense.
type NewExpense struct {
	Description string
	Amount      money.Amount
	// PaidByID defaults to the creating user.
	PaidByID       string
	GroupID        string
	ParticipantIDs []string
	PaidAt         int64
}

// ParticipantPayment is a payment toward one participant's share.
type ParticipantPayment struct {
	UserID string
	Amount money.Amount
}

// ExpenseUpdate lists the fields to change. Nil fields are left alone.
type ExpenseUpdate struct {
	Description *string
	PaidAt      *int64
	Payment     *ParticipantPayment
}

// validateExpense checks the invariants of a new expense.
func validateExpense(in NewExpense, participants []string) error {
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	if len(participants) == 0 {
		return fmt.Errorf("%w: at least one participant required", ErrInvalidArgument)
	}
	if !contains(participants, in.PaidByID) {
		return fmt.Errorf("%w: payer %s must be one of the participants", ErrInvalidArgument, in.PaidByID)
	}
	if in.PaidAt < 0 {
		return fmt.Errorf("%w: paid_at must not be negative", ErrInvalidArgument)
	}
	return nil
}

// CreateExpense records a new expense. The payer starts with the full amount
// contributed, everyone else with nothing.
func (s *ExpenseService) CreateExpense(ctx context.Context, actorID string, in NewExpense) (*ExpenseDetail, error) {
	slog.Info("CreateExpense request received",
		"user_id", actorID,
		"amount", in.Amount,
		"group_id", in.GroupID,
		"participants_count", len(in.ParticipantIDs),
	)

	if in.PaidByID == "" {
		in.PaidByID = actorID
	}
	participants := uniqueIDs(in.ParticipantIDs)
	if err := validateExpense(in, participants); err != nil {
		slog.Warn("CreateExpense validation failed", "error", err)
		return nil, err
	}
	if !contains(participants, actorID) {
		return nil, fmt.Errorf("%w: creator must be a participant", ErrForbidden)
	}
	if err := requireUsers(ctx, s.store, participants); err != nil {
		return nil, err
	}

	if in.GroupID != "" {
		group, err := s.store.GetGroup(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		if !group.HasMember(actorID) {
			return nil, fmt.Errorf("%w: not a member of group %s", ErrForbidden, in.GroupID)
		}
	}

	expense := &models.Expense{
		Description:  strings.TrimSpace(in.Description),
		Amount:       in.Amount,
		PaidByID:     in.PaidByID,
		GroupID:      in.GroupID,
		PaidAt:       in.PaidAt,
		Participants: make([]models.ExpenseParticipant, len(participants)),
	}
	for i, id := range participants {
		expense.Participants[i] = models.ExpenseParticipant{UserID: id}
		if id == in.PaidByID {
			expense.Participants[i].Amount = in.Amount
		}
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, err
	}

	s.autoAddParticipantsToGroup(ctx, expense.GroupID, participants)

	slog.Info("Expense created", "expense_id", expense.ID)
	return s.detail(ctx, expense)
}

// autoAddParticipantsToGroup adds any expense participants not already in the group.
func (s *ExpenseService) autoAddParticipantsToGroup(ctx context.Context, groupID string, participants []string) {
	if groupID == "" {
		return
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Warn("autoAddParticipantsToGroup: failed to get group", "group_id", groupID, "error", err)
		return
	}

	newMembers := findNewParticipants(participants, group.MemberIDs)
	if len(newMembers) == 0 {
		return
	}

	if err := s.store.AddGroupMembers(ctx, groupID, newMembers); err != nil {
		slog.Error("autoAddParticipantsToGroup: failed to add members", "group_id", groupID, "error", err)
		return
	}
	slog.Info("Auto-added participants to group", "group_id", groupID, "new_members", newMembers)
}

// visibleExpense loads an expense and checks that actorID participates in it.
func (s *ExpenseService) visibleExpense(ctx context.Context, actorID, expenseID string) (*models.Expense, error) {
	if expenseID == "" {
		return nil, fmt.Errorf("%w: expense_id required", ErrInvalidArgument)
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !expense.HasParticipant(actorID) {
		return nil, fmt.Errorf("%w: not a participant of expense %s", ErrForbidden, expenseID)
	}
	return expense, nil
}

func (s *ExpenseService) detail(ctx context.Context, expense *models.Expense) (*ExpenseDetail, error) {
	balances, settled, err := participantBalances(expense)
	if err != nil {
		return nil, err
	}
	users, err := userSummaries(ctx, s.store, expense.ParticipantIDs())
	if err != nil {
		return nil, err
	}
	return &ExpenseDetail{
		Expense:  expense,
		Users:    users,
		Balances: balances,
		Settled:  settled,
	}, nil
}

// GetExpense retrieves an expense with each participant's balance.
func (s *ExpenseService) GetExpense(ctx context.Context, actorID, expenseID string) (*ExpenseDetail, error) {
	slog.Info("GetExpense request received", "expense_id", expenseID, "user_id", actorID)

	expense, err := s.visibleExpense(ctx, actorID, expenseID)
	if err != nil {
		slog.Warn("GetExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}
	return s.detail(ctx, expense)
}

// ListExpenses retrieves every expense the actor participates in.
func (s *ExpenseService) ListExpenses(ctx context.Context, actorID string) ([]*models.Expense, error) {
	slog.Info("ListExpenses request received", "user_id", actorID)

	expenses, err := s.store.ListExpensesForUser(ctx, actorID)
	if err != nil {
		slog.Error("ListExpenses failed", "error", err)
		return nil, err
	}

	slog.Info("ListExpenses successful", "count", len(expenses))
	return expenses, nil
}

// UpdateExpense edits the description or purchase time and records a
// participant payment. Only the payer may edit the expense itself. A payment
// may be recorded by the paying participant or by the payer.
func (s *ExpenseService) UpdateExpense(ctx context.Context, actorID, expenseID string, update ExpenseUpdate) (*ExpenseDetail, error) {
	slog.Info("UpdateExpense request received", "expense_id", expenseID, "user_id", actorID)

	expense, err := s.visibleExpense(ctx, actorID, expenseID)
	if err != nil {
		return nil, err
	}

	if update.Description != nil || update.PaidAt != nil {
		if expense.PaidByID != actorID {
			return nil, fmt.Errorf("%w: only the payer can edit expense %s", ErrForbidden, expenseID)
		}
		if update.Description != nil {
			expense.Description = strings.TrimSpace(*update.Description)
		}
		if update.PaidAt != nil {
			if *update.PaidAt < 0 {
				return nil, fmt.Errorf("%w: paid_at must not be negative", ErrInvalidArgument)
			}
			expense.PaidAt = *update.PaidAt
		}
		if expense.Description == "" {
			return nil, fmt.Errorf("%w: description must not be empty", ErrInvalidArgument)
		}
		if err := s.store.UpdateExpense(ctx, expense); err != nil {
			slog.Error("UpdateExpense failed", "error", err)
			return nil, err
		}
	}

	if update.Payment != nil {
		if err := s.recordPayment(ctx, actorID, expense, *update.Payment); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	slog.Info("Expense updated", "expense_id", expenseID)
	return s.detail(ctx, updated)
}

func (s *ExpenseService) recordPayment(ctx context.Context, actorID string, expense *models.Expense, p ParticipantPayment) error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: payment amount must be positive", ErrInvalidArgument)
	}
	if p.UserID == "" {
		p.UserID = actorID
	}
	if !expense.HasParticipant(p.UserID) {
		return fmt.Errorf("%w: user %s is not a participant", ErrInvalidArgument, p.UserID)
	}
	if p.UserID == expense.PaidByID {
		return fmt.Errorf("%w: the payer cannot pay toward their own expense", ErrInvalidArgument)
	}
	if actorID != p.UserID && actorID != expense.PaidByID {
		return fmt.Errorf("%w: only %s or the payer can record this payment", ErrForbidden, p.UserID)
	}

	payment := &models.Payment{
		ExpenseID:  expense.ID,
		UserID:     p.UserID,
		Amount:     p.Amount,
		RecordedBy: actorID,
	}
	if err := s.store.RecordParticipantPayment(ctx, payment); err != nil {
		slog.Error("RecordParticipantPayment failed", "expense_id", expense.ID, "error", err)
		return err
	}
	metrics.ParticipantPayments.Inc()

	slog.Info("Participant payment recorded",
		"expense_id", expense.ID,
		"payment_id", payment.ID,
		"participant_id", p.UserID,
		"amount", p.Amount,
	)
	return nil
}

// DeleteExpense removes an expense. Only its payer may delete it.
func (s *ExpenseService) DeleteExpense(ctx context.Context, actorID, expenseID string) error {
	slog.Info("DeleteExpense request received", "expense_id", expenseID, "user_id", actorID)

	expense, err := s.visibleExpense(ctx, actorID, expenseID)
	if err != nil {
		return err
	}
	if expense.PaidByID != actorID {
		return fmt.Errorf("%w: only the payer can delete expense %s", ErrForbidden, expenseID)
	}

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		slog.Error("DeleteExpense failed", "error", err)
		return err
	}

	slog.Info("Expense deleted", "expense_id", expenseID)
	return nil
}

// ListPayments retrieves the payment history of an expense, newest first.
func (s *ExpenseService) ListPayments(ctx context.Context, actorID, expenseID string) ([]*models.Payment, error) {
	slog.Info("ListPayments request received", "expense_id", expenseID, "user_id", actorID)

	if _, err := s.visibleExpense(ctx, actorID, expenseID); err != nil {
		return nil, err
	}

	payments, err := s.store.ListPaymentsByExpense(ctx, expenseID)
	if err != nil {
		slog.Error("ListPayments failed", "error", err)
		return nil, err
	}
	return payments, nil
}
