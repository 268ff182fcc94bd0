package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/easyplit/easyplit/internal/calculator"
	"github.com/easyplit/easyplit/internal/metrics"
	"github.com/easyplit/easyplit/internal/models"
	"github.com/easyplit/easyplit/internal/storage"
)

// GroupService manages groups and computes their balances.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// GroupUpdate lists the fields to change. Nil fields are left alone.
type GroupUpdate struct {
	Name      *string
	MemberIDs []string
}

// CreateGroup creates a new group. The creator is always a member.
func (s *GroupService) CreateGroup(ctx context.Context, actorID, name string, memberIDs []string) (*models.Group, error) {
	slog.Info("CreateGroup request received",
		"user_id", actorID,
		"name", name,
		"members_count", len(memberIDs),
	)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name required", ErrInvalidArgument)
	}

	members := uniqueIDs(append([]string{actorID}, memberIDs...))
	if err := requireUsers(ctx, s.store, members); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:      name,
		CreatorID: actorID,
		MemberIDs: members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID)
	return group, nil
}

// memberGroup loads a group and checks that actorID belongs to it.
func (s *GroupService) memberGroup(ctx context.Context, actorID, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group_id required", ErrInvalidArgument)
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(actorID) {
		return nil, fmt.Errorf("%w: not a member of group %s", ErrForbidden, groupID)
	}
	return group, nil
}

// GetGroup retrieves a group with its expenses and user summaries.
func (s *GroupService) GetGroup(ctx context.Context, actorID, groupID string) (*GroupDetail, error) {
	slog.Info("GetGroup request received", "group_id", groupID, "user_id", actorID)

	group, err := s.memberGroup(ctx, actorID, groupID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("GetGroup failed - could not list expenses", "group_id", groupID, "error", err)
		return nil, err
	}

	ids := append([]string{}, group.MemberIDs...)
	for _, e := range expenses {
		ids = append(ids, e.PaidByID)
		ids = append(ids, e.ParticipantIDs()...)
	}
	users, err := userSummaries(ctx, s.store, ids)
	if err != nil {
		return nil, err
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "expenses_count", len(expenses))
	return &GroupDetail{Group: group, Expenses: expenses, Users: users}, nil
}

// ListGroups retrieves the groups the actor belongs to.
func (s *GroupService) ListGroups(ctx context.Context, actorID string) ([]*models.Group, error) {
	slog.Info("ListGroups request received", "user_id", actorID)

	groups, err := s.store.ListGroupsForUser(ctx, actorID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, err
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return groups, nil
}

// UpdateGroup renames a group and/or replaces its members. Members with an
// outstanding balance in the group cannot be removed, and the creator always
// stays.
func (s *GroupService) UpdateGroup(ctx context.Context, actorID, groupID string, update GroupUpdate) (*models.Group, error) {
	slog.Info("UpdateGroup request received", "group_id", groupID, "user_id", actorID)

	group, err := s.memberGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: group name required", ErrInvalidArgument)
		}
		group.Name = name
	}

	if update.MemberIDs != nil {
		members := uniqueIDs(append([]string{group.CreatorID}, update.MemberIDs...))
		if err := requireUsers(ctx, s.store, members); err != nil {
			return nil, err
		}
		removed := findNewParticipants(group.MemberIDs, members)
		if err := s.checkRemovable(ctx, group.ID, removed); err != nil {
			return nil, err
		}
		group.MemberIDs = members
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group updated", "group_id", group.ID)
	return s.store.GetGroup(ctx, group.ID)
}

// checkRemovable rejects removing members who still owe or are owed money.
func (s *GroupService) checkRemovable(ctx context.Context, groupID string, removed []string) error {
	if len(removed) == 0 {
		return nil
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	net := calculator.NetBalances(calculator.CalculateBalances(forBalance(expenses)))
	for _, id := range removed {
		if net[id] != 0 {
			return fmt.Errorf("%w: member %s has an outstanding balance of %s", ErrInvalidArgument, id, net[id])
		}
	}
	return nil
}

// DeleteGroup removes a group. Only its creator may delete it.
func (s *GroupService) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	slog.Info("DeleteGroup request received", "group_id", groupID, "user_id", actorID)

	group, err := s.memberGroup(ctx, actorID, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != actorID {
		return fmt.Errorf("%w: only the creator can delete group %s", ErrForbidden, groupID)
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return err
	}

	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// GetGroupBalances computes pairwise balances, member summaries and the
// simplified settlement plan across all expenses in a group.
func (s *GroupService) GetGroupBalances(ctx context.Context, actorID, groupID string) (*GroupBalances, error) {
	slog.Info("GetGroupBalances request received", "group_id", groupID, "user_id", actorID)

	if _, err := s.memberGroup(ctx, actorID, groupID); err != nil {
		slog.Warn("GetGroupBalances failed", "group_id", groupID, "error", err)
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupBalances failed - could not list expenses", "group_id", groupID, "error", err)
		return nil, err
	}

	result, err := computeBalances(forBalance(expenses), "group")
	if err != nil {
		slog.Error("GetGroupBalances failed - calculation error", "group_id", groupID, "error", err)
		return nil, err
	}
	result.GroupID = groupID

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"expenses_count", len(expenses),
		"members_count", len(result.Members),
		"debts_count", len(result.Debts),
	)
	return result, nil
}

// computeBalances runs the balance pipeline and records its metrics.
// An unbalanced result is reported and counted, never returned as a plan.
func computeBalances(expenses []calculator.Expense, scope string) (*GroupBalances, error) {
	metrics.BalanceComputations.WithLabelValues(scope).Inc()

	balances := calculator.CalculateBalances(expenses)
	debts, err := calculator.SimplifyDebts(balances)
	if err != nil {
		if errors.Is(err, calculator.ErrUnbalanced) {
			metrics.ConsistencyErrors.Inc()
		}
		return nil, fmt.Errorf("failed to simplify debts: %w", err)
	}
	metrics.SimplifiedTransfers.Observe(float64(len(debts)))

	return &GroupBalances{
		Balances: sortedPairs(balances),
		Members:  calculator.MemberBalances(expenses),
		Debts:    debts,
	}, nil
}

// ComputeBalances runs the balance pipeline over expenses that did not come
// from storage, e.g. a file passed to the CLI.
func ComputeBalances(expenses []calculator.Expense) (*GroupBalances, error) {
	return computeBalances(expenses, "offline")
}

func forBalance(expenses []*models.Expense) []calculator.Expense {
	out := make([]calculator.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = e.ForBalance()
	}
	return out
}
