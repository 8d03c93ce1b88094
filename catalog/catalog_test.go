package catalog

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	idA = "11111111-1111-1111-1111-111111111111"
	idB = "22222222-2222-2222-2222-222222222222"
	idC = "33333333-3333-3333-3333-333333333333"
)

var testClock = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func openTestCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sqlite")
	opts = append([]Option{
		WithLogger(NoopLogger()),
		withClock(func() time.Time { return testClock }),
	}, opts...)
	c, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// release builds a metadata document for tests. Mutate the returned map
// before marshaling for edge cases.
type release struct {
	ID             string
	Title          string
	Disambiguation string
	Artist         string
	ArtistSort     string
	Date           string
	Country        string
	Barcode        string
	ASIN           string
	Label          string
	CatalogNumber  string
	Formats        []string
	Tracks         []releaseTrack
	DiscIDs        []string
}

type releaseTrack struct {
	RecordingID string
	Title       string
	Length      int64
}

func (r release) bytes(t *testing.T) []byte {
	t.Helper()
	media := []map[string]any{}
	for i, format := range r.Formats {
		m := map[string]any{"format": format}
		if i == 0 {
			var discs []map[string]any
			for _, d := range r.DiscIDs {
				discs = append(discs, map[string]any{"id": d})
			}
			var tracks []map[string]any
			for _, tr := range r.Tracks {
				tracks = append(tracks, map[string]any{
					"title": tr.Title,
					"recording": map[string]any{
						"id":     tr.RecordingID,
						"title":  tr.Title,
						"length": tr.Length,
					},
				})
			}
			m["discs"] = discs
			m["tracks"] = tracks
		}
		media = append(media, m)
	}
	doc := map[string]any{
		"id":             r.ID,
		"title":          r.Title,
		"disambiguation": r.Disambiguation,
		"date":           r.Date,
		"country":        r.Country,
		"barcode":        r.Barcode,
		"asin":           r.ASIN,
		"artist-credit": []map[string]any{
			{"name": r.Artist, "sort-name": r.ArtistSort},
		},
		"label-info": []map[string]any{
			{"label": r.Label, "catalog-number": r.CatalogNumber},
		},
		"media": media,
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return b
}

func moonRiver() release {
	return release{
		ID:         idA,
		Title:      "Moon River",
		Artist:     "Audrey Hepburn",
		ArtistSort: "Hepburn, Audrey",
		Date:       "1961",
		Country:    "US",
		Barcode:    "0123456789012",
		Formats:    []string{"CD"},
		Tracks: []releaseTrack{
			{RecordingID: "aaaaaaaa-0000-0000-0000-000000000001", Title: "Moon River", Length: 162000},
		},
		DiscIDs: []string{"discid-moonriver-1"},
	}
}

func blueMoon() release {
	return release{
		ID:         idB,
		Title:      "Blue Moon",
		Artist:     "Billie Holiday",
		ArtistSort: "Holiday, Billie",
		Date:       "1952",
		Country:    "US",
		Formats:    []string{`7" Vinyl`},
		Tracks: []releaseTrack{
			{RecordingID: "bbbbbbbb-0000-0000-0000-000000000001", Title: "Blue Moon", Length: 215000},
		},
	}
}

// indexDump captures every posting table's full contents so tests can
// compare index state byte for byte.
type indexDump map[string]map[string][]string

func dumpIndexes(t *testing.T, c *Catalog) indexDump {
	t.Helper()
	dump := indexDump{}
	for _, idx := range allIndexes {
		keys, err := idx.allKeys(c.db)
		require.NoError(t, err)
		table := map[string][]string{}
		for _, key := range keys {
			ids, err := idx.lookup(c.db, key)
			require.NoError(t, err)
			table[key] = ids
		}
		dump[idx.name] = table
	}
	return dump
}

func dumpString(d indexDump) string {
	b, _ := json.Marshal(d)
	return string(b)
}

func requireSameIndexes(t *testing.T, want, got indexDump) {
	t.Helper()
	require.Equal(t, dumpString(want), dumpString(got),
		fmt.Sprintf("index tables diverged:\nwant %s\ngot  %s", dumpString(want), dumpString(got)))
}
