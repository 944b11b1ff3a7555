// Package database opens the storage engines shared by the repositories.
package database

import (
	"fmt"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

// Open initializes BadgerDB and the Bluge index at the given paths.
// Badger's own logger is silenced; the application logs through slog.
func Open(badgerPath, blugePath string) (*badger.DB, *bluge.Writer, error) {
	db, err := badger.Open(badger.DefaultOptions(badgerPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, nil, fmt.Errorf("open badger at %s: %w", badgerPath, err)
	}

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(blugePath))
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("open bluge at %s: %w", blugePath, err)
	}
	return db, writer, nil
}

// Cleanup closes both engines, index first so in-flight batches land before
// badger shuts down.
func Cleanup(db *badger.DB, writer *bluge.Writer) {
	_ = writer.Close()
	_ = db.Close()
}
