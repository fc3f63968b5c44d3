// Package engine_util contains helpers for working with the badger engine behind the ledger.
//
// Badger has no column families, so every record kind (accounts, transactions) is stored under
// its own key prefix: the CF name followed by an underscore. The helpers in this package hide that
// prefix from callers: keys passed in and returned out are always user keys.
//
// WriteBatch collects puts and deletes across column families and writes them in one badger update
// transaction. Either every entry of a batch is committed or none is; the transfer engine relies on
// this to move funds between two accounts and complete the transaction record in a single step.
package engine_util
