package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// releaseMeta is the parsed view of a record's metadata document. The
// document itself is fetched from the remote source and stored opaque;
// digest parses it into this shape to derive the scalar columns and
// every index entry.
type releaseMeta struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Disambiguation string         `json:"disambiguation"`
	Date           string         `json:"date"`
	Country        string         `json:"country"`
	Barcode        string         `json:"barcode"`
	ASIN           string         `json:"asin"`
	ArtistCredit   []artistCredit `json:"artist-credit"`
	LabelInfo      []labelInfo    `json:"label-info"`
	Media          []medium       `json:"media"`
}

type artistCredit struct {
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

type labelInfo struct {
	Label         string `json:"label"`
	CatalogNumber string `json:"catalog-number"`
}

type medium struct {
	Format string  `json:"format"`
	Discs  []disc  `json:"discs"`
	Tracks []track `json:"tracks"`
}

type disc struct {
	ID string `json:"id"`
}

type track struct {
	Title     string        `json:"title"`
	Recording recordingMeta `json:"recording"`
}

type recordingMeta struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Length int64  `json:"length"` // milliseconds
}

func parseMetadata(id string, data []byte) (*releaseMeta, error) {
	var meta releaseMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &ErrMalformedMetadata{ID: id, cause: err}
	}
	return &meta, nil
}

// artistDisplay joins the credited artist names for display.
func (m *releaseMeta) artistDisplay() string {
	var b bytes.Buffer
	for i, credit := range m.ArtistCredit {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(credit.Name)
	}
	return b.String()
}

// artistSort joins the credited artist sort-names.
func (m *releaseMeta) artistSort() string {
	var b bytes.Buffer
	for i, credit := range m.ArtistCredit {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(credit.SortName)
	}
	return b.String()
}

func (m *releaseMeta) label() string {
	if len(m.LabelInfo) == 0 {
		return ""
	}
	return m.LabelInfo[0].Label
}

func (m *releaseMeta) catalogNumber() string {
	if len(m.LabelInfo) == 0 {
		return ""
	}
	return m.LabelInfo[0].CatalogNumber
}

func (m *releaseMeta) mediumFormats() []string {
	labels := make([]string, 0, len(m.Media))
	for _, med := range m.Media {
		labels = append(labels, med.Format)
	}
	return labels
}

func (m *releaseMeta) discIDs() []string {
	var ids []string
	for _, med := range m.Media {
		for _, d := range med.Discs {
			if d.ID != "" {
				ids = append(ids, d.ID)
			}
		}
	}
	return ids
}

// recordings returns every referenced recording, preferring the track
// title over the recording title when they differ (the track title is
// what this release actually prints).
func (m *releaseMeta) recordings() []recordingMeta {
	var recs []recordingMeta
	for _, med := range m.Media {
		for _, t := range med.Tracks {
			rec := t.Recording
			if rec.ID == "" {
				continue
			}
			if t.Title != "" {
				rec.Title = t.Title
			}
			recs = append(recs, rec)
		}
	}
	return recs
}

// Metadata documents are stored zlib-compressed; reads transparently
// decompress.

func compressMetadata(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressMetadata(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress metadata: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress metadata: %w", err)
	}
	return out, nil
}
