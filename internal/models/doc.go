// Package models defines the core domain models for Easyplit.
//
// # Models
//
//   - User: a registered account, referenced everywhere by ID
//   - Group: a named set of members that owns expenses
//   - Expense: a monetary event fronted by one payer and shared by participants
//   - ExpenseParticipant: a participant's cumulative contribution to an expense
//   - Payment: an audit record of one participant paying down their share
//
// Balances and simplified debts are not stored. They are derived on every
// read by the calculator package.
//
// # Design Principles
//
//  1. Amounts are money.Amount (integer cents), never floats
//  2. Relationships use ID strings instead of pointers
//  3. Timestamps are Unix seconds, matching the storage layer
package models
