package tinyledger

/*
TinyLedger is a small ledger service: it keeps account balances and records money transfers between accounts. Every
transfer is atomic, balances never go negative and an account cannot pay itself. It is written entirely in Go.

Building TinyLedger produces two executables: ledger-server, which serves the ledger over HTTP, and ledger-ctl, a
command line client for that API.

The `tinyledger` module is organized into the following packages:

* `ledger/config`: server configuration, loaded from flags and a toml file.
* `ledger/storage`: the ledger store, a key/value store with one column family for accounts and one for transactions.
  It has an in-memory implementation and a badger backed one (`ledger/storage/standalone_storage`).
* `ledger/model`: accounts, transactions, money rounding and the errors the ledger returns.
* `ledger/repository`: reading and writing accounts and transactions in the store.
* `ledger/transfer`: the transfer engine, the core of the ledger. `ledger/transfer/latches` serializes transfers that
  touch the same account.
* `ledger/server`: the HTTP API.
*/
