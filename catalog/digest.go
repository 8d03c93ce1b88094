package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Digest stores (or re-stores) a record from its metadata document and
// derives every index entry from it, as one atomic unit. On a re-fetch
// of an existing id the stale postings derived from the previous
// document are purged first, inside the same transaction, so the old
// document is read before anything overwrites it.
//
// A parse failure aborts with ErrMalformedMetadata before any table is
// touched. A duplicate fresh insert surfaces ErrAlreadyExists.
func (c *Catalog) Digest(id string, metadata []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.inTx(func(tx *sql.Tx) error {
		return c.digestTx(tx, id, metadata, false)
	})
	c.log.LogDigest(id, false, err)
	return err
}

// UnDigest removes the record and every posting-list membership it
// holds, derived from its currently stored metadata so the inverse is
// exact. One atomic unit.
func (c *Catalog) UnDigest(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.inTx(func(tx *sql.Tx) error {
		return c.unDigestTx(tx, id, true)
	})
	c.log.LogUnDigest(id, true, err)
	return err
}

// Rebuild drops every index table and re-derives it from the stored
// records. Idempotent; exclusive with respect to all other catalog
// access for its duration.
func (c *Catalog) Rebuild() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rebuilt int
	err := c.inTx(func(tx *sql.Tx) error {
		for _, idx := range allIndexes {
			if _, err := tx.Exec(idx.dropSQL()); err != nil {
				return err
			}
			if _, err := tx.Exec(idx.createSQL()); err != nil {
				return err
			}
		}
		ids, err := listIDs(tx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			metadata, err := getMetadata(tx, id)
			if err != nil {
				return fmt.Errorf("rebuild %s: %w", id, err)
			}
			if err := c.digestTx(tx, id, metadata, true); err != nil {
				return fmt.Errorf("rebuild %s: %w", id, err)
			}
			rebuilt++
		}
		return nil
	})
	c.log.LogRebuild(rebuilt, err)
	return err
}

// Rename moves a record to a new id: the old id is un-digested, the
// document is digested under the new id, and the annotation state is
// carried across. One atomic unit.
func (c *Catalog) Rename(oldID, newID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inTx(func(tx *sql.Tx) error {
		metadata, err := getMetadata(tx, oldID)
		if err != nil {
			return err
		}
		ann, err := getAnnotations(tx, oldID)
		if err != nil {
			return err
		}
		if err := c.unDigestTx(tx, oldID, true); err != nil {
			return err
		}
		if err := c.digestTx(tx, newID, metadata, false); err != nil {
			return err
		}
		return putAnnotations(tx, newID, ann)
	})
}

// digestTx is digest inside an open transaction. rebuild skips the
// stale-posting purge, because rebuild always starts from empty index
// tables.
func (c *Catalog) digestTx(tx *sql.Tx, id string, metadata []byte, rebuild bool) error {
	if err := validateID(id); err != nil {
		return err
	}

	// parse first: a malformed document must abort before any write
	meta, err := parseMetadata(id, metadata)
	if err != nil {
		return err
	}

	exists, err := contains(tx, id)
	if err != nil {
		return err
	}
	switch {
	case !exists:
		if err := insertNew(tx, id, metadata, c.now()); err != nil {
			return err
		}
	case rebuild:
		// tables are already empty, nothing to purge
	default:
		// purge the postings derived from the previous document before
		// overwriting it, then store the new document
		if err := c.unDigestTx(tx, id, false); err != nil {
			return err
		}
		if err := replaceMetadata(tx, id, metadata); err != nil {
			return err
		}
	}

	fields := scalarFields{
		sortKey:       sortKey(meta.artistSort(), meta.Date, meta.Title, meta.Disambiguation),
		artist:        meta.artistDisplay(),
		title:         meta.Title,
		date:          meta.Date,
		country:       meta.Country,
		label:         meta.label(),
		catalogNumber: meta.catalogNumber(),
		barcode:       meta.Barcode,
		externalID:    meta.ASIN,
		format:        canonicalFormat(meta.mediumFormats()).String(),
		refreshedAt:   c.now(),
	}
	if err := updateScalarFields(tx, id, fields); err != nil {
		return err
	}

	for _, word := range recordWords(meta) {
		if err := wordIndex.append(tx, word, id); err != nil {
			return err
		}
	}
	for _, rec := range meta.recordings() {
		for _, word := range tokenize(rec.Title) {
			if err := trackWordIndex.append(tx, word, id); err != nil {
				return err
			}
		}
		if err := upsertRecordingScalar(tx, rec.ID, rec.Title, rec.Length); err != nil {
			return err
		}
		if err := recordingIndex.append(tx, rec.ID, id); err != nil {
			return err
		}
	}
	if meta.Barcode != "" {
		if err := barcodeIndex.append(tx, meta.Barcode, id); err != nil {
			return err
		}
	}
	for _, discID := range meta.discIDs() {
		if err := discIDIndex.append(tx, discID, id); err != nil {
			return err
		}
	}
	return formatIndex.append(tx, fields.format, id)
}

// unDigestTx removes every posting derived from the record's currently
// stored metadata. With del=false the record row itself survives; this
// is the purge half digestTx runs before re-deriving. Removals tolerate
// postings that are already gone.
func (c *Catalog) unDigestTx(tx *sql.Tx, id string, del bool) error {
	metadata, err := getMetadata(tx, id)
	if err != nil {
		return err
	}
	meta, err := parseMetadata(id, metadata)
	if err != nil {
		// a stored document that no longer parses can still be deleted;
		// its postings cannot be derived, so a rebuild is the recovery
		var malformed *ErrMalformedMetadata
		if del && errors.As(err, &malformed) {
			return deleteRecord(tx, id)
		}
		return err
	}

	for _, word := range recordWords(meta) {
		if err := wordIndex.remove(tx, word, id); err != nil {
			return err
		}
	}
	for _, rec := range meta.recordings() {
		for _, word := range tokenize(rec.Title) {
			if err := trackWordIndex.remove(tx, word, id); err != nil {
				return err
			}
		}
		if err := recordingIndex.remove(tx, rec.ID, id); err != nil {
			return err
		}
	}
	if meta.Barcode != "" {
		if err := barcodeIndex.remove(tx, meta.Barcode, id); err != nil {
			return err
		}
	}
	for _, discID := range meta.discIDs() {
		if err := discIDIndex.remove(tx, discID, id); err != nil {
			return err
		}
	}
	format := canonicalFormat(meta.mediumFormats()).String()
	if err := formatIndex.remove(tx, format, id); err != nil {
		return err
	}

	if del {
		return deleteRecord(tx, id)
	}
	return nil
}

// recordWords is the record-level token set: title, credited artist
// names, and disambiguation.
func recordWords(meta *releaseMeta) []string {
	seen := map[string]bool{}
	var words []string
	add := func(text string) {
		for _, w := range tokenize(text) {
			if !seen[w] {
				seen[w] = true
				words = append(words, w)
			}
		}
	}
	add(meta.Title)
	for _, credit := range meta.ArtistCredit {
		add(credit.Name)
	}
	add(meta.Disambiguation)
	return words
}

// validateID enforces the fixed 36-character UUID form record ids carry.
func validateID(id string) error {
	if len(id) != 36 {
		return fmt.Errorf("%w: id %q is not a 36-character identifier", ErrValidation, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id %q: %v", ErrValidation, id, err)
	}
	return nil
}
