package catalog

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a local collection of externally-sourced release records,
// their catalog-owned annotations, and the derived lookup indexes kept
// consistent with them.
//
// Readers may run concurrently; writers are serialized, and a rebuild
// holds the write lock for its whole drop-and-repopulate pass so a
// half-rebuilt index is never observable.
type Catalog struct {
	mu  sync.RWMutex
	db  *sql.DB
	log *Logger

	// coverDir caches one cover image per record id, exported and
	// imported alongside the database. Empty disables cover handling.
	coverDir string

	// now is the clock used for digest defaults and annotation events.
	// Tests override it.
	now func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the structured logger. Defaults to a text logger.
func WithLogger(log *Logger) Option {
	return func(c *Catalog) { c.log = log }
}

// WithCoverDir sets the directory holding cached cover images.
func WithCoverDir(dir string) Option {
	return func(c *Catalog) { c.coverDir = dir }
}

// withClock overrides the catalog clock. Test hook.
func withClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// Open opens (creating if necessary) the catalog database at path.
func Open(path string, opts ...Option) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = NewLogger(nil)
	}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) initSchema() error {
	if _, err := c.db.Exec(recordsSchema); err != nil {
		return err
	}
	for _, idx := range allIndexes {
		if _, err := c.db.Exec(idx.createSQL()); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// inTx runs fn inside one transaction, committing on success and rolling
// back on any error, including a panic unwinding through fn.
func (c *Catalog) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Count returns the number of stored records.
func (c *Catalog) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return recordCount(c.db)
}

// Contains reports whether id is stored.
func (c *Catalog) Contains(id string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return contains(c.db, id)
}

// ListIDs returns every stored record id in lexical order.
func (c *Catalog) ListIDs() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return listIDs(c.db)
}

// Metadata returns the stored metadata document for id, decompressed.
func (c *Catalog) Metadata(id string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getMetadata(c.db, id)
}

// Record returns the cached scalar projection and annotation state for id.
func (c *Catalog) Record(id string) (*Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getRecord(c.db, id)
}

// Records returns every stored record ordered by sort key.
func (c *Catalog) Records() ([]*Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, err := listIDs(c.db)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := getRecord(c.db, id)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		records = append(records, r)
	}
	sortRecords(records)
	return records, nil
}

// Recording returns the recording index entry for recordingID.
func (c *Catalog) Recording(recordingID string) (*RecordingInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getRecording(c.db, recordingID)
}

func sortRecords(records []*Record) {
	// sort key is precomputed and lowercased; plain string order suffices
	sort.Slice(records, func(i, j int) bool {
		return records[i].SortKey < records[j].SortKey
	})
}
