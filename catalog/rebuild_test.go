package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildMatchesIncrementalState(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))
	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))
	incremental := dumpIndexes(t, c)

	require.NoError(t, c.Rebuild())
	requireSameIndexes(t, incremental, dumpIndexes(t, c))
}

func TestRebuildIsIdempotent(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))
	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))

	require.NoError(t, c.Rebuild())
	first := dumpIndexes(t, c)
	require.NoError(t, c.Rebuild())
	requireSameIndexes(t, first, dumpIndexes(t, c))
}

func TestIndexStateIndependentOfInsertionOrder(t *testing.T) {
	ab := openTestCatalog(t)
	require.NoError(t, ab.Digest(idA, moonRiver().bytes(t)))
	require.NoError(t, ab.Digest(idB, blueMoon().bytes(t)))

	ba := openTestCatalog(t)
	require.NoError(t, ba.Digest(idB, blueMoon().bytes(t)))
	require.NoError(t, ba.Digest(idA, moonRiver().bytes(t)))

	// index state is a function of the set of stored records
	requireSameIndexes(t, dumpIndexes(t, ab), dumpIndexes(t, ba))
}

func TestRebuildRepairsCorruptedIndex(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))
	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))
	healthy := dumpIndexes(t, c)

	// simulate index corruption behind the controller's back
	_, err := c.db.Exec("DELETE FROM words")
	require.NoError(t, err)
	_, err = c.db.Exec("INSERT INTO formats (format, recordids) VALUES ('bogus', ?)",
		encodeList([]string{idA}))
	require.NoError(t, err)

	require.NoError(t, c.Rebuild())
	requireSameIndexes(t, healthy, dumpIndexes(t, c))
}

func TestRebuildRestoresRecordingScalars(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))

	require.NoError(t, c.Rebuild())

	rec, err := c.Recording("aaaaaaaa-0000-0000-0000-000000000001")
	require.NoError(t, err)
	assert.Equal(t, "Moon River", rec.Title)
	assert.Equal(t, int64(162000), rec.Length)
	assert.Equal(t, []string{idA}, rec.RecordIDs)
}

func TestRebuildOnEmptyCatalog(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Rebuild())

	for _, idx := range allIndexes {
		keys, err := idx.allKeys(c.db)
		require.NoError(t, err)
		assert.Empty(t, keys, "table %s", idx.name)
	}
}
