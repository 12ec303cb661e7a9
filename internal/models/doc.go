// Package models defines the core domain models for the meu-bolso debt backend.
//
// # Models
//
//   - Debt: an installment obligation with a fixed payment schedule
//   - Installment: one scheduled payment of a debt
//   - LedgerEntry: durable record of a reminder already sent for an installment
//   - InboxNotification: a message delivered to a user's notification inbox
//   - User: a registered account owning debts
//
// # Design Principles
//
// 1. **Relationships by ID**: models reference each other through ID strings,
// never pointers, to avoid circular references.
// 2. **Money as decimal**: all amounts use shopspring decimal so installment
// arithmetic never drifts through float rounding.
// 3. **Dates vs timestamps**: due dates and paid dates are calendar dates
// (midnight, no clock component); created_at/updated_at are Unix timestamps.
package models
