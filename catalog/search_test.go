package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Moon River", []string{"moon", "river"}},
		{"  MOON   river ", []string{"moon", "river"}},
		{"don't stop", []string{"don", "t", "stop"}},
		{"4'33\"", []string{"4", "33"}},
		{"Sgt. Pepper's", []string{"sgt", "pepper", "s"}},
		{"", nil},
		{"---", nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tokenize(tc.in), "input %q", tc.in)
	}
}

func TestSearchSingleTerm(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))
	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))

	// a token unique to one record finds exactly that record
	ids, err := c.Search("river")
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)

	ids, err = c.Search("blue")
	require.NoError(t, err)
	assert.Equal(t, []string{idB}, ids)

	// shared token finds both
	ids, err = c.Search("moon")
	require.NoError(t, err)
	assert.Equal(t, []string{idA, idB}, ids)
}

func TestSearchIntersectsTerms(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))
	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))

	ids, err := c.Search("moon river")
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)

	ids, err = c.Search("blue moon")
	require.NoError(t, err)
	assert.Equal(t, []string{idB}, ids)

	// artist tokens are indexed at record level too
	ids, err = c.Search("moon hepburn")
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)
}

func TestSearchNormalizesLikeDigest(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))

	// queries normalize through the same tokenizer the indexer used
	for _, q := range []string{"MOON", "Moon!", "  moon  ", "moon-river"} {
		ids, err := c.Search(q)
		require.NoError(t, err)
		assert.Contains(t, ids, idA, "query %q", q)
	}
}

func TestSearchUnknownTermIsEmptyNotError(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))

	ids, err := c.Search("zanzibar")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// one unknown term empties the whole intersection
	ids, err = c.Search("moon zanzibar")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// blank query matches nothing
	ids, err = c.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSearchTracks(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))
	require.NoError(t, c.Digest(idB, blueMoon().bytes(t)))

	// track-word hits map back to the owning records
	ids, err := c.SearchTracks("blue")
	require.NoError(t, err)
	assert.Equal(t, []string{idB}, ids)

	ids, err = c.SearchTracks("moon")
	require.NoError(t, err)
	assert.Equal(t, []string{idA, idB}, ids)
}

func TestExactKeyLookups(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Digest(idA, moonRiver().bytes(t)))

	ids, err := c.LookupBarcode("0123456789012")
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)

	ids, err = c.LookupDiscID("discid-moonriver-1")
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)

	ids, err = c.LookupFormat("cd")
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)

	ids, err = c.LookupRecording("aaaaaaaa-0000-0000-0000-000000000001")
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids)

	// absent keys are empty sets, not errors
	ids, err = c.LookupBarcode("nope")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
