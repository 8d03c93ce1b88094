package catalog

import (
	"archive/tar"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// ImportPolicy decides what an archive import does with an id that is
// already stored. It is passed in explicitly by the caller; the catalog
// keeps no ambient overwrite mode.
type ImportPolicy int

const (
	// SkipExisting leaves already-stored records untouched.
	SkipExisting ImportPolicy = iota
	// Overwrite re-digests already-stored records from the archive and
	// replaces their annotation state with the archived one.
	Overwrite
)

// ImportStats summarizes one archive import.
type ImportStats struct {
	Imported int
	Skipped  int
	Failed   int
}

// annotationDoc is the archive representation of a record's annotation
// state.
type annotationDoc struct {
	Purchases    []Purchase  `json:"purchases"`
	Added        []time.Time `json:"added"`
	LendEvents   []LendEvent `json:"lend-events"`
	Listens      []time.Time `json:"listens"`
	DigitalPaths []string    `json:"digital-paths"`
	Count        int         `json:"count"`
	Comment      string      `json:"comment"`
	Rating       int         `json:"rating"`
}

const archivePrefix = "records/"

// Export writes every record to w as a gzip'd tar archive: one
// directory per record holding the raw metadata document, the
// annotation state, and the cached cover image when one exists.
func (c *Catalog) Export(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	zw := gzip.NewWriter(w)
	tw := tar.NewWriter(zw)

	ids, err := listIDs(c.db)
	if err != nil {
		return err
	}
	for _, id := range ids {
		metadata, err := getMetadata(c.db, id)
		if err != nil {
			return err
		}
		if err := writeEntry(tw, archivePrefix+id+"/metadata", metadata); err != nil {
			return err
		}

		ann, err := getAnnotations(c.db, id)
		if err != nil {
			return err
		}
		doc, err := json.MarshalIndent(annotationDoc{
			Purchases:    ann.purchases,
			Added:        ann.added,
			LendEvents:   ann.lendEvents,
			Listens:      ann.listens,
			DigitalPaths: ann.digitalPaths,
			Count:        ann.count,
			Comment:      ann.comment,
			Rating:       ann.rating,
		}, "", "  ")
		if err != nil {
			return err
		}
		if err := writeEntry(tw, archivePrefix+id+"/annotations", doc); err != nil {
			return err
		}

		if c.coverDir != "" {
			cover, err := os.ReadFile(filepath.Join(c.coverDir, id+".jpg"))
			if err == nil {
				if err := writeEntry(tw, archivePrefix+id+"/cover-image", cover); err != nil {
					return err
				}
			}
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

type archivedRecord struct {
	metadata    []byte
	annotations *annotationDoc
	cover       []byte
}

// Import loads a gzip'd tar archive produced by Export. Every metadata
// entry goes through digest, so imported records get full index
// coverage; annotation state is merged afterwards. Entries whose id
// segment is not a 36-character identifier are skipped, as are
// unrecognized names. A record whose digest fails is counted and
// skipped; the rest of the archive still loads.
func (c *Catalog) Import(r io.Reader, policy ImportPolicy) (ImportStats, error) {
	var stats ImportStats

	zr, err := gzip.NewReader(r)
	if err != nil {
		return stats, err
	}
	defer zr.Close()

	archived := map[string]*archivedRecord{}
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		id, kind, ok := splitArchivePath(hdr.Name)
		if !ok {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return stats, err
		}
		rec := archived[id]
		if rec == nil {
			rec = &archivedRecord{}
			archived[id] = rec
		}
		switch kind {
		case "metadata":
			rec.metadata = data
		case "annotations":
			var doc annotationDoc
			if err := json.Unmarshal(data, &doc); err != nil {
				c.log.Warn("skipping unreadable annotations", "id", id, "error", err)
				continue
			}
			rec.annotations = &doc
		case "cover-image":
			rec.cover = data
		}
	}

	ids := make([]string, 0, len(archived))
	for id := range archived {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := archived[id]
		if rec.metadata == nil {
			stats.Skipped++
			continue
		}
		imported, err := c.importRecord(id, rec, policy)
		switch {
		case err != nil:
			c.log.Warn("import failed for record", "id", id, "error", err)
			stats.Failed++
		case imported:
			stats.Imported++
		default:
			stats.Skipped++
		}
	}
	c.log.LogImport(stats.Imported, stats.Skipped, stats.Failed)
	return stats, nil
}

// importRecord loads one record under its own digest transaction, so a
// failure mid-archive cannot corrupt already-imported records.
func (c *Catalog) importRecord(id string, rec *archivedRecord, policy ImportPolicy) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := contains(c.db, id)
	if err != nil {
		return false, err
	}
	if exists && policy == SkipExisting {
		return false, nil
	}

	err = c.inTx(func(tx *sql.Tx) error {
		if err := c.digestTx(tx, id, rec.metadata, false); err != nil {
			return err
		}
		if rec.annotations == nil {
			return nil
		}
		doc := rec.annotations
		return putAnnotations(tx, id, &annotations{
			purchases:    doc.Purchases,
			added:        doc.Added,
			lendEvents:   doc.LendEvents,
			listens:      doc.Listens,
			digitalPaths: doc.DigitalPaths,
			count:        doc.Count,
			comment:      doc.Comment,
			rating:       doc.Rating,
		})
	})
	if err != nil {
		return false, err
	}

	if rec.cover != nil && c.coverDir != "" {
		if err := os.MkdirAll(c.coverDir, 0o755); err != nil {
			return true, err
		}
		if err := os.WriteFile(filepath.Join(c.coverDir, id+".jpg"), rec.cover, 0o644); err != nil {
			return true, err
		}
	}
	return true, nil
}

// splitArchivePath validates records/<36-char-id>/<kind> entry names.
func splitArchivePath(name string) (id, kind string, ok bool) {
	name = path.Clean(name)
	if !strings.HasPrefix(name, archivePrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(name, archivePrefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return "", "", false
	}
	id, kind = parts[0], parts[1]
	if len(id) != 36 {
		return "", "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "", false
	}
	return id, kind, true
}
