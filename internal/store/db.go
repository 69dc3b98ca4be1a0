// Package store persists users, rooms, and messages in BadgerDB. Keys are
// built so a prefix scan returns records in the order callers need them.
package store

import "github.com/dgraph-io/badger/v4"

// Open opens the database at path. An empty path opens an in-memory
// database, which tests use.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}
