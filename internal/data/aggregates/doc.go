// Package aggregates implements the lexicon and user aggregates over the gorm repos.
//
// A write authorizes the caller against the static requirement table, then runs in a
// single transaction that mutates the rows, appends the Edit and appends the Change Feed
// entry. Feed notifiers are told about the new sequence only after commit.
package aggregates
