package catalog

import (
	"database/sql"
	"fmt"
	"sort"
)

// postingTable is one key -> record-id-set index table. The id set is a
// serialized-list column kept sorted so index contents are byte-stable.
// The six instances are fixed at compile time; digest selects among them
// explicitly, never by runtime name lookup.
type postingTable struct {
	name   string
	keyCol string
}

var (
	wordIndex      = postingTable{name: "words", keyCol: "word"}
	trackWordIndex = postingTable{name: "trackwords", keyCol: "trackword"}
	discIDIndex    = postingTable{name: "discids", keyCol: "discid"}
	barcodeIndex   = postingTable{name: "barcodes", keyCol: "barcode"}
	formatIndex    = postingTable{name: "formats", keyCol: "format"}
	recordingIndex = postingTable{name: "recordings", keyCol: "recordingid"}
)

// allIndexes lists every posting table, used by schema bootstrap and rebuild.
var allIndexes = []postingTable{
	wordIndex, trackWordIndex, discIDIndex, barcodeIndex, formatIndex, recordingIndex,
}

func (t postingTable) createSQL() string {
	if t.name == "recordings" {
		return `CREATE TABLE IF NOT EXISTS recordings(
			recordingid TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			length INTEGER NOT NULL DEFAULT 0,
			recordids BLOB NOT NULL DEFAULT '[]'
		);`
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s(
		%s TEXT PRIMARY KEY,
		recordids BLOB NOT NULL DEFAULT '[]'
	);`, t.name, t.keyCol)
}

func (t postingTable) dropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", t.name)
}

// lookup returns the id set under key; an absent key yields an empty set.
func (t postingTable) lookup(q querier, key string) ([]string, error) {
	var blob []byte
	err := q.QueryRow(
		fmt.Sprintf("SELECT recordids FROM %s WHERE %s = ?", t.name, t.keyCol), key,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeList(blob)
}

// append adds id under key, creating the row if needed. Idempotent.
func (t postingTable) append(q querier, key, id string) error {
	ids, err := t.lookup(q, key)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	sort.Strings(ids)
	if len(ids) == 1 && t.name != "recordings" {
		_, err = q.Exec(
			fmt.Sprintf("INSERT INTO %s (%s, recordids) VALUES (?, ?)", t.name, t.keyCol),
			key, encodeList(ids),
		)
		return err
	}
	return t.putSet(q, key, ids)
}

// remove drops id from key's set, deleting the row when the set empties.
// Removing an id that is not present is a no-op, so remove stays safe to
// call against a partially inconsistent index.
func (t postingTable) remove(q querier, key, id string) error {
	ids, err := t.lookup(q, key)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	if len(kept) == 0 {
		_, err = q.Exec(
			fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.name, t.keyCol), key,
		)
		return err
	}
	return t.putSet(q, key, kept)
}

func (t postingTable) putSet(q querier, key string, ids []string) error {
	if t.name == "recordings" {
		// preserve the scalar columns; the row may not exist yet
		res, err := q.Exec(
			"UPDATE recordings SET recordids = ? WHERE recordingid = ?",
			encodeList(ids), key,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			_, err = q.Exec(
				"INSERT INTO recordings (recordingid, recordids) VALUES (?, ?)",
				key, encodeList(ids),
			)
		}
		return err
	}
	_, err := q.Exec(
		fmt.Sprintf("UPDATE %s SET recordids = ? WHERE %s = ?", t.name, t.keyCol),
		encodeList(ids), key,
	)
	return err
}

func (t postingTable) allKeys(q querier) ([]string, error) {
	rows, err := q.Query(
		fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", t.keyCol, t.name, t.keyCol),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// upsertRecordingScalar writes a recording's title and length alongside
// its posting set, inserting the row if it does not exist yet.
func upsertRecordingScalar(q querier, recordingID, title string, length int64) error {
	res, err := q.Exec(
		"UPDATE recordings SET title = ?, length = ? WHERE recordingid = ?",
		title, length, recordingID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = q.Exec(
			"INSERT INTO recordings (recordingid, title, length) VALUES (?, ?, ?)",
			recordingID, title, length,
		)
	}
	return err
}

// RecordingInfo is the scalar side of one recording index row.
type RecordingInfo struct {
	ID        string
	Title     string
	Length    int64
	RecordIDs []string
}

func getRecording(q querier, recordingID string) (*RecordingInfo, error) {
	var info RecordingInfo
	var blob []byte
	err := q.QueryRow(
		"SELECT recordingid, title, length, recordids FROM recordings WHERE recordingid = ?",
		recordingID,
	).Scan(&info.ID, &info.Title, &info.Length, &blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if info.RecordIDs, err = decodeList(blob); err != nil {
		return nil, err
	}
	return &info, nil
}
