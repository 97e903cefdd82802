package audit

import (
	"encoding/json"
	"errors"

	"okx-grid-bot-go/internal/models"

	"github.com/dgraph-io/badger/v3"
)

// badgerRecorder is the BadgerDB implementation of the Recorder.
type badgerRecorder struct {
	db         *badger.DB
	historyKey []byte
}

// NewBadgerRecorder creates a recorder backed by a BadgerDB database at dbPath.
func NewBadgerRecorder(dbPath string) (Recorder, error) {
	opts := badger.DefaultOptions(dbPath)
	// Badger's own logging is noisy; errors still surface through returned values.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &badgerRecorder{
		db:         db,
		historyKey: []byte("audit_history"),
	}, nil
}

// Record appends one entry and trims the stored history to MaxEntries.
// The whole read-modify-write happens inside a single transaction.
func (r *badgerRecorder) Record(entry models.AuditEntry) error {
	return r.db.Update(func(txn *badger.Txn) error {
		entries, err := readHistory(txn, r.historyKey)
		if err != nil {
			return err
		}

		entries = append(entries, entry)
		if len(entries) > MaxEntries {
			entries = entries[len(entries)-MaxEntries:]
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		return txn.Set(r.historyKey, data)
	})
}

// History returns up to limit entries, most recent last.
func (r *badgerRecorder) History(limit int) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		entries, err = readHistory(txn, r.historyKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Close gracefully closes the connection to the database.
func (r *badgerRecorder) Close() error {
	return r.db.Close()
}

// readHistory loads the stored entry list, treating a missing key as empty.
func readHistory(txn *badger.Txn, key []byte) ([]models.AuditEntry, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.AuditEntry
	err = item.Value(func(val []byte) error {
		if len(val) == 0 {
			return nil
		}
		return json.Unmarshal(val, &entries)
	})
	return entries, err
}
