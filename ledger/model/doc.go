// Package model holds the ledger records, accounts and transactions, the money helpers used to keep
// every amount at two fractional digits, and the typed errors the ledger returns.
package model
