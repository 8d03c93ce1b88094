package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// querier is the slice of database/sql shared by *sql.DB and *sql.Tx,
// so the store primitives compose into whatever transaction the
// consistency controller is running.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Purchase is one purchase event on a record.
type Purchase struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Vendor string    `json:"vendor"`
}

// LendEvent is one check-out or check-in event. Kind discriminates the union.
type LendEvent struct {
	Kind LendKind  `json:"kind"`
	Date time.Time `json:"date"`
	To   string    `json:"to,omitempty"`
}

// LendKind discriminates LendEvent.
type LendKind string

const (
	LendOut LendKind = "out"
	LendIn  LendKind = "in"
)

// Record is one cataloged release: the cached scalar projection of its
// metadata document plus the catalog-owned annotation state. The raw
// document itself is read separately via Metadata.
type Record struct {
	ID             string
	SortKey        string
	Artist         string
	Title          string
	Date           string
	Country        string
	Label          string
	CatalogNumber  string
	Barcode        string
	ExternalID     string
	Format         string
	RefreshedAt    time.Time

	Purchases    []Purchase
	Added        []time.Time
	LendEvents   []LendEvent
	Listens      []time.Time
	DigitalPaths []string
	Count        int
	Comment      string
	Rating       int
}

// scalarFields is the projection of a metadata document cached on the
// record row. It is recomputed wholesale by every digest, never patched.
type scalarFields struct {
	sortKey       string
	artist        string
	title         string
	date          string
	country       string
	label         string
	catalogNumber string
	barcode       string
	externalID    string
	format        string
	refreshedAt   time.Time
}

// annotations is the catalog-owned mutable state on a record row.
// Digest and un-digest never touch it.
type annotations struct {
	purchases    []Purchase
	added        []time.Time
	lendEvents   []LendEvent
	listens      []time.Time
	digitalPaths []string
	count        int
	comment      string
	rating       int
}

const recordsSchema = `CREATE TABLE IF NOT EXISTS records(
	id TEXT PRIMARY KEY,
	metadata BLOB NOT NULL,
	sortkey TEXT NOT NULL DEFAULT '',
	artist TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	label TEXT NOT NULL DEFAULT '',
	catno TEXT NOT NULL DEFAULT '',
	barcode TEXT NOT NULL DEFAULT '',
	externalid TEXT NOT NULL DEFAULT '',
	format TEXT NOT NULL DEFAULT '',
	refreshedat TEXT NOT NULL DEFAULT '',
	purchases BLOB NOT NULL DEFAULT '[]',
	added BLOB NOT NULL DEFAULT '[]',
	lendevents BLOB NOT NULL DEFAULT '[]',
	listendates BLOB NOT NULL DEFAULT '[]',
	digitalpaths BLOB NOT NULL DEFAULT '[]',
	count INTEGER NOT NULL DEFAULT 1,
	comment TEXT NOT NULL DEFAULT '',
	rating INTEGER NOT NULL DEFAULT 0
);`

// insertNew creates a fresh record row with default annotation state:
// one copy on hand, added now. The metadata is compressed before storage.
func insertNew(q querier, id string, metadata []byte, now time.Time) error {
	exists, err := contains(q, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}
	compressed, err := compressMetadata(metadata)
	if err != nil {
		return err
	}
	added, err := encodeJSONList([]time.Time{now})
	if err != nil {
		return err
	}
	_, err = q.Exec(
		"INSERT INTO records (id, metadata, added, count) VALUES (?, ?, ?, 1)",
		id, compressed, added,
	)
	return err
}

// replaceMetadata overwrites the stored document wholesale. Re-fetch
// never merges.
func replaceMetadata(q querier, id string, metadata []byte) error {
	compressed, err := compressMetadata(metadata)
	if err != nil {
		return err
	}
	res, err := q.Exec("UPDATE records SET metadata = ? WHERE id = ?", compressed, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func updateScalarFields(q querier, id string, f scalarFields) error {
	res, err := q.Exec(
		`UPDATE records SET sortkey=?, artist=?, title=?, date=?, country=?,
		 label=?, catno=?, barcode=?, externalid=?, format=?, refreshedat=?
		 WHERE id=?`,
		f.sortKey, f.artist, f.title, f.date, f.country,
		f.label, f.catalogNumber, f.barcode, f.externalID, f.format,
		f.refreshedAt.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// getMetadata returns the record's stored metadata document, decompressed.
func getMetadata(q querier, id string) ([]byte, error) {
	var compressed []byte
	err := q.QueryRow("SELECT metadata FROM records WHERE id = ?", id).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decompressMetadata(compressed)
}

func getRecord(q querier, id string) (*Record, error) {
	row := q.QueryRow(
		`SELECT id, sortkey, artist, title, date, country, label, catno,
		 barcode, externalid, format, refreshedat, purchases, added,
		 lendevents, listendates, digitalpaths, count, comment, rating
		 FROM records WHERE id = ?`, id)
	return scanRecord(row)
}

func scanRecord(row *sql.Row) (*Record, error) {
	var r Record
	var refreshedAt string
	var purchases, added, lendEvents, listens, paths []byte
	err := row.Scan(&r.ID, &r.SortKey, &r.Artist, &r.Title, &r.Date, &r.Country,
		&r.Label, &r.CatalogNumber, &r.Barcode, &r.ExternalID, &r.Format,
		&refreshedAt, &purchases, &added, &lendEvents, &listens, &paths,
		&r.Count, &r.Comment, &r.Rating)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if refreshedAt != "" {
		if r.RefreshedAt, err = time.Parse(time.RFC3339, refreshedAt); err != nil {
			return nil, err
		}
	}
	if r.Purchases, err = decodeJSONList[Purchase](purchases); err != nil {
		return nil, err
	}
	if r.Added, err = decodeJSONList[time.Time](added); err != nil {
		return nil, err
	}
	if r.LendEvents, err = decodeJSONList[LendEvent](lendEvents); err != nil {
		return nil, err
	}
	if r.Listens, err = decodeJSONList[time.Time](listens); err != nil {
		return nil, err
	}
	if r.DigitalPaths, err = decodeList(paths); err != nil {
		return nil, err
	}
	return &r, nil
}

func getAnnotations(q querier, id string) (*annotations, error) {
	r, err := getRecord(q, id)
	if err != nil {
		return nil, err
	}
	return &annotations{
		purchases:    r.Purchases,
		added:        r.Added,
		lendEvents:   r.LendEvents,
		listens:      r.Listens,
		digitalPaths: r.DigitalPaths,
		count:        r.Count,
		comment:      r.Comment,
		rating:       r.Rating,
	}, nil
}

func putAnnotations(q querier, id string, a *annotations) error {
	purchases, err := encodeJSONList(a.purchases)
	if err != nil {
		return err
	}
	added, err := encodeJSONList(a.added)
	if err != nil {
		return err
	}
	lendEvents, err := encodeJSONList(a.lendEvents)
	if err != nil {
		return err
	}
	listens, err := encodeJSONList(a.listens)
	if err != nil {
		return err
	}
	res, err := q.Exec(
		`UPDATE records SET purchases=?, added=?, lendevents=?, listendates=?,
		 digitalpaths=?, count=?, comment=?, rating=? WHERE id=?`,
		purchases, added, lendEvents, listens,
		encodeList(a.digitalPaths), a.count, a.comment, a.rating, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func deleteRecord(q querier, id string) error {
	res, err := q.Exec("DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func recordCount(q querier) (int, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

func contains(q querier, id string) (bool, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM records WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func listIDs(q querier) ([]string, error) {
	rows, err := q.Query("SELECT id FROM records ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
