package audit

import "okx-grid-bot-go/internal/models"

// MaxEntries is the retention cap of the audit history. Older entries are
// discarded once the cap is exceeded.
const MaxEntries = 100

// Recorder persists a bounded history of cycle outcomes.
// It abstracts the underlying storage mechanism (e.g., BadgerDB, in-memory)
// from the rest of the application. Writes are best-effort: callers log
// failures but never fail a trading cycle because of them.
type Recorder interface {
	// Record appends one entry, trimming the history to MaxEntries.
	Record(entry models.AuditEntry) error

	// History returns up to limit entries, most recent last.
	// A limit <= 0 returns the full retained history.
	History(limit int) ([]models.AuditEntry, error)

	// Close gracefully closes the connection to the database.
	Close() error
}
