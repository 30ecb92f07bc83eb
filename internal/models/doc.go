// Package models defines the records ZapSplit persists.
//
// # Records
//
//   - User: a bill creator with a payout account on the payment gateway
//   - Split: a receipt being divided, with its line items (SplitItem)
//   - PaymentLink: a short code that lets anyone with the link pay their share
//   - ItemClaim: a payer's recorded ownership of some quantity of a line item
//   - Payment: one payer's attempt to settle their share through the gateway
//
// Payers do not have accounts. They are identified on claims and payments by
// their email address, normalised to lower case.
//
// # Money
//
// Amounts are stored as whole cents (int64) in a single currency. Quantities
// are float64 because a unit shared N ways is claimed as 1/N.
package models
