package catalog

import (
	"sort"
	"strings"
	"unicode"
)

// tokenize splits text into lowercased word-character runs. Digest and
// search both normalize through this one function; if the two ever
// diverged, indexed tokens would stop matching queried ones.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// Search returns the ids of records whose record-level text contains
// every term of query. Terms are normalized exactly like digest
// normalizes indexed text. Unknown terms yield an empty result, never
// an error.
func (c *Catalog) Search(query string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, err := c.searchIndex(wordIndex, query)
	c.log.LogSearch(query, len(ids))
	return ids, err
}

// SearchTracks returns the ids of records owning a track whose title
// contains every term of query.
func (c *Catalog) SearchTracks(query string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, err := c.searchIndex(trackWordIndex, query)
	c.log.LogSearch(query, len(ids))
	return ids, err
}

func (c *Catalog) searchIndex(idx postingTable, query string) ([]string, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return []string{}, nil
	}
	var result map[string]bool
	for _, term := range terms {
		ids, err := idx.lookup(c.db, term)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []string{}, nil
		}
		if result == nil {
			result = make(map[string]bool, len(ids))
			for _, id := range ids {
				result[id] = true
			}
			continue
		}
		keep := make(map[string]bool, len(ids))
		for _, id := range ids {
			if result[id] {
				keep[id] = true
			}
		}
		if len(keep) == 0 {
			return []string{}, nil
		}
		result = keep
	}
	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LookupBarcode returns the ids stored under an exact barcode.
func (c *Catalog) LookupBarcode(barcode string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return barcodeIndex.lookup(c.db, barcode)
}

// LookupDiscID returns the ids of records containing the disc id.
func (c *Catalog) LookupDiscID(discID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return discIDIndex.lookup(c.db, discID)
}

// LookupFormat returns the ids of records whose canonical format class
// has the given name.
func (c *Catalog) LookupFormat(format string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return formatIndex.lookup(c.db, format)
}

// LookupRecording returns the ids of records a recording appears on.
func (c *Catalog) LookupRecording(recordingID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return recordingIndex.lookup(c.db, recordingID)
}

// Formats returns every format class name currently indexed.
func (c *Catalog) Formats() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return formatIndex.allKeys(c.db)
}

// Words returns every indexed record-level token. Mostly useful for
// debugging and tests.
func (c *Catalog) Words() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return wordIndex.allKeys(c.db)
}
