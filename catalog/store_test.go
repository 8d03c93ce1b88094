package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertNewDuplicate(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, insertNew(c.db, idA, []byte(`{}`), testClock))

	err := insertNew(c.db, idA, []byte(`{}`), testClock)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetMetadataNotFound(t *testing.T) {
	c := openTestCatalog(t)
	_, err := getMetadata(c.db, idA)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMetadataCompressedRoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	doc := moonRiver().bytes(t)
	require.NoError(t, c.Digest(idA, doc))

	// reads transparently decompress back to the original bytes
	stored, err := c.Metadata(idA)
	require.NoError(t, err)
	assert.Equal(t, doc, stored)

	// the row itself holds compressed bytes, not the raw document
	var raw []byte
	require.NoError(t, c.db.QueryRow("SELECT metadata FROM records WHERE id = ?", idA).Scan(&raw))
	assert.NotEqual(t, doc, raw)
}

func TestCountContainsListIDs(t *testing.T) {
	c := openTestCatalog(t)

	n, err := c.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))

	n, err = c.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := c.Contains(idA)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.Contains(idC)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := c.ListIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{idA, idB}, ids)
}

func TestRecordsSortedBySortKey(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t))) // hepburn, ...
	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))  // holiday, ...

	records, err := c.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, idA, records[0].ID)
	assert.Equal(t, idB, records[1].ID)
}

func TestPostingTablePrimitives(t *testing.T) {
	c := openTestCatalog(t)

	// append is idempotent
	require.NoError(t, wordIndex.append(c.db, "moon", idA))
	require.NoError(t, wordIndex.append(c.db, "moon", idA))
	require.NoError(t, wordIndex.append(c.db, "moon", idB))
	ids, err := wordIndex.lookup(c.db, "moon")
	require.NoError(t, err)
	assert.Equal(t, []string{idA, idB}, ids)

	// removing an absent id is a no-op, not an error
	require.NoError(t, wordIndex.remove(c.db, "moon", idC))
	require.NoError(t, wordIndex.remove(c.db, "absent-key", idA))

	// emptying the set drops the row
	require.NoError(t, wordIndex.remove(c.db, "moon", idA))
	require.NoError(t, wordIndex.remove(c.db, "moon", idB))
	keys, err := wordIndex.allKeys(c.db)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
