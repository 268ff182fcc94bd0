// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/easyplit/easyplit/internal/models"
)

var (
	// ErrNotFound is returned when a requested record (or a record it
	// references) does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record already exists")
)

// Store defines the persistence operations used by the service layer.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the services.
type Store interface {
	// CreateUser persists a new user. Returns ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a new group and its members.
	// The group.ID and group.CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	// ListGroupsForUser returns the groups userID is a member of, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	// UpdateGroup replaces the group's name and member list.
	UpdateGroup(ctx context.Context, group *models.Group) error
	// AddGroupMembers adds users to a group, ignoring existing members.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error
	DeleteGroup(ctx context.Context, groupID string) error

	// CreateExpense persists a new expense with its participants.
	// The expense.ID and expense.CreatedAt fields are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	// ListExpensesForUser returns every expense userID participates in.
	ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error)
	// UpdateExpense updates the expense's description and paid-at time.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error

	// RecordParticipantPayment increments the participant's contribution and
	// stores the payment, atomically. Returns ErrNotFound if the user is not
	// a participant of the expense.
	RecordParticipantPayment(ctx context.Context, payment *models.Payment) error
	ListPaymentsByExpense(ctx context.Context, expenseID string) ([]*models.Payment, error)

	// Close releases any resources held by the store.
	Close() error
}
