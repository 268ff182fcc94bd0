package api

import (
	"time"

	"github.com/easyplit/easyplit/internal/calculator"
	"github.com/easyplit/easyplit/internal/models"
	"github.com/easyplit/easyplit/internal/money"
	"github.com/easyplit/easyplit/internal/service"
)

type userJSON struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type userSummaryJSON struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type sessionJSON struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

type groupJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creatorId"`
	MemberIDs []string  `json:"memberIds"`
	CreatedAt time.Time `json:"createdAt"`
}

type participantJSON struct {
	UserID      string       `json:"userId"`
	Contributed money.Amount `json:"contributed"`
}

type expenseJSON struct {
	ID           string            `json:"id"`
	Description  string            `json:"description"`
	Amount       money.Amount      `json:"amount"`
	PaidByID     string            `json:"paidById"`
	GroupID      string            `json:"groupId,omitempty"`
	Participants []participantJSON `json:"participants"`
	CreatedAt    time.Time         `json:"createdAt"`
	PaidAt       *time.Time        `json:"paidAt,omitempty"`
}

type groupDetailJSON struct {
	Group    groupJSON                  `json:"group"`
	Expenses []expenseJSON              `json:"expenses"`
	Users    map[string]userSummaryJSON `json:"users"`
}

type pairBalanceJSON struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Amount money.Amount `json:"amount"`
}

type memberBalanceJSON struct {
	UserID     string       `json:"userId"`
	NetBalance money.Amount `json:"netBalance"`
	TotalPaid  money.Amount `json:"totalPaid"`
	TotalShare money.Amount `json:"totalShare"`
}

type groupBalancesJSON struct {
	GroupID  string              `json:"groupId"`
	Balances []pairBalanceJSON   `json:"balances"`
	Members  []memberBalanceJSON `json:"members"`
	Debts    []pairBalanceJSON   `json:"debts"`
}

type participantBalanceJSON struct {
	UserID      string       `json:"userId"`
	Contributed money.Amount `json:"contributed"`
	Balance     money.Amount `json:"balance"`
	Display     money.Amount `json:"displayBalance"`
	IsPayer     bool         `json:"isPayer"`
	Settled     bool         `json:"settled"`
}

type expenseDetailJSON struct {
	Expense  expenseJSON                `json:"expense"`
	Users    map[string]userSummaryJSON `json:"users"`
	Balances []participantBalanceJSON   `json:"balances"`
	Settled  bool                       `json:"settled"`
}

type paymentJSON struct {
	ID         string       `json:"id"`
	ExpenseID  string       `json:"expenseId"`
	UserID     string       `json:"userId"`
	Amount     money.Amount `json:"amount"`
	RecordedBy string       `json:"recordedBy"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Requests

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

type updateGroupRequest struct {
	Name      *string   `json:"name"`
	MemberIDs *[]string `json:"memberIds"`
}

type createExpenseRequest struct {
	Description    string       `json:"description"`
	Amount         money.Amount `json:"amount"`
	PaidByID       string       `json:"paidById"`
	GroupID        string       `json:"groupId"`
	ParticipantIDs []string     `json:"participantIds"`
	PaidAt         *time.Time   `json:"paidAt"`
}

type participantPaymentRequest struct {
	UserID string       `json:"userId"`
	Amount money.Amount `json:"amount"`
}

type updateExpenseRequest struct {
	Description        *string                    `json:"description"`
	PaidAt             *time.Time                 `json:"paidAt"`
	ParticipantPayment *participantPaymentRequest `json:"participantPayment"`
}

// Conversions

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func toUserJSON(u *models.User) userJSON {
	return userJSON{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   unixTime(u.CreatedAt),
	}
}

func toUsersJSON(users map[string]models.UserSummary) map[string]userSummaryJSON {
	out := make(map[string]userSummaryJSON, len(users))
	for id, u := range users {
		out[id] = userSummaryJSON{
			ID:          u.ID,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			AvatarURL:   u.AvatarURL,
		}
	}
	return out
}

func toSessionJSON(s *service.Session) sessionJSON {
	return sessionJSON{Token: s.Token, User: toUserJSON(s.User)}
}

func toGroupJSON(g *models.Group) groupJSON {
	members := g.MemberIDs
	if members == nil {
		members = []string{}
	}
	return groupJSON{
		ID:        g.ID,
		Name:      g.Name,
		CreatorID: g.CreatorID,
		MemberIDs: members,
		CreatedAt: unixTime(g.CreatedAt),
	}
}

func toExpenseJSON(e *models.Expense) expenseJSON {
	participants := make([]participantJSON, len(e.Participants))
	for i, p := range e.Participants {
		participants[i] = participantJSON{UserID: p.UserID, Contributed: p.Amount}
	}
	out := expenseJSON{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		PaidByID:     e.PaidByID,
		GroupID:      e.GroupID,
		Participants: participants,
		CreatedAt:    unixTime(e.CreatedAt),
	}
	if e.PaidAt != 0 {
		paidAt := unixTime(e.PaidAt)
		out.PaidAt = &paidAt
	}
	return out
}

func toExpensesJSON(expenses []*models.Expense) []expenseJSON {
	out := make([]expenseJSON, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseJSON(e)
	}
	return out
}

func toGroupDetailJSON(d *service.GroupDetail) groupDetailJSON {
	return groupDetailJSON{
		Group:    toGroupJSON(d.Group),
		Expenses: toExpensesJSON(d.Expenses),
		Users:    toUsersJSON(d.Users),
	}
}

func toDebtsJSON(debts []calculator.SimplifiedDebt) []pairBalanceJSON {
	out := make([]pairBalanceJSON, len(debts))
	for i, d := range debts {
		out[i] = pairBalanceJSON{From: d.From, To: d.To, Amount: d.Amount}
	}
	return out
}

func toGroupBalancesJSON(b *service.GroupBalances) groupBalancesJSON {
	balances := make([]pairBalanceJSON, len(b.Balances))
	for i, p := range b.Balances {
		balances[i] = pairBalanceJSON{From: p.From, To: p.To, Amount: p.Amount}
	}
	members := make([]memberBalanceJSON, len(b.Members))
	for i, m := range b.Members {
		members[i] = memberBalanceJSON{
			UserID:     m.UserID,
			NetBalance: m.NetBalance,
			TotalPaid:  m.TotalPaid,
			TotalShare: m.TotalShare,
		}
	}
	return groupBalancesJSON{
		GroupID:  b.GroupID,
		Balances: balances,
		Members:  members,
		Debts:    toDebtsJSON(b.Debts),
	}
}

func toExpenseDetailJSON(d *service.ExpenseDetail) expenseDetailJSON {
	balances := make([]participantBalanceJSON, len(d.Balances))
	for i, b := range d.Balances {
		balances[i] = participantBalanceJSON{
			UserID:      b.UserID,
			Contributed: b.Contributed,
			Balance:     b.Balance,
			Display:     b.Display,
			IsPayer:     b.IsPayer,
			Settled:     b.Settled,
		}
	}
	return expenseDetailJSON{
		Expense:  toExpenseJSON(d.Expense),
		Users:    toUsersJSON(d.Users),
		Balances: balances,
		Settled:  d.Settled,
	}
}

func toPaymentsJSON(payments []*models.Payment) []paymentJSON {
	out := make([]paymentJSON, len(payments))
	for i, p := range payments {
		out[i] = paymentJSON{
			ID:         p.ID,
			ExpenseID:  p.ExpenseID,
			UserID:     p.UserID,
			Amount:     p.Amount,
			RecordedBy: p.RecordedBy,
			CreatedAt:  unixTime(p.CreatedAt),
		}
	}
	return out
}
