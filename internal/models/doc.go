// Package models defines the core domain models for ebills.
//
// # Bills and participants
//
//   - Bill: a shared expense record with a splitting scenario and its participants
//   - Participant: one user's stake in a bill (assigned share, paid, spent)
//   - ScenarioKind: how the bill's cost is split (equal, individual amounts, shared expenses)
//
// Derived fields (debt, balance, participant status, settlement state, and the
// total of individual-amount and shared-expense bills) are owned by the
// calculator package and must only be read after calculator.Reconcile.
//
// # Supporting records
//
//   - User: a registered account, also the source of display names
//   - Group: a reusable list of user ids used to seed bill participants
//   - Comment, HistoryEntry: discussion and audit trail of a bill
//   - Payment: a payment-gateway round trip against one participant's debt
//
// # Design Principles
//
// 1. Relationships use ID strings instead of pointers
// 2. Money fields use money.Money, never float64
// 3. Timestamps are Unix seconds, matching the storage layer
package models
