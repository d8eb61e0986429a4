// Package batchledger implements the atomic batch transfer ledger for the multisender monolith.
//
// The module owns ledger counters and receipts and exposes HTTP handlers for batch
// submission, access control operations, read accessors, and gas estimation.
package batchledger
