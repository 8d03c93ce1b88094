package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/dhowden/tag"
	"golang.org/x/sync/errgroup"

	"discat/catalog"
)

// taggedFile is one parsed audio file waiting to be matched against the
// catalog.
type taggedFile struct {
	path   string
	album  string
	artist string
}

// scanDigitalFiles walks root for audio files, reads their tags, and
// attaches each file whose album and artist match exactly one catalog
// record as a digital path on that record. Returns the number of
// matched files.
func scanDigitalFiles(ctx context.Context, cat *catalog.Catalog, root string) (int, error) {
	files := make(chan string, 100)
	parsed := make(chan taggedFile, 100)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(files)
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !isAudioFile(path) {
				return nil
			}
			select {
			case files <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	workers := errgroup.Group{}
	for i := 0; i < runtime.NumCPU(); i++ {
		workers.Go(func() error {
			for path := range files {
				tf, ok := parseAudioFile(path)
				if !ok {
					continue
				}
				select {
				case parsed <- tf:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(parsed)
		return workers.Wait()
	})

	var matched int64
	g.Go(func() error {
		for tf := range parsed {
			id, ok, err := matchRecord(cat, tf)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := cat.AddDigitalPath(id, tf.path); err != nil {
				return err
			}
			atomic.AddInt64(&matched, 1)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt64(&matched)), err
	}
	return int(atomic.LoadInt64(&matched)), nil
}

func isAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".m4a", ".ogg", ".oga", ".flac":
		return true
	}
	return false
}

func parseAudioFile(path string) (taggedFile, bool) {
	f, err := os.Open(path)
	if err != nil {
		return taggedFile{}, false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return taggedFile{}, false
	}

	artist := m.Artist()
	if albumArtist := m.AlbumArtist(); albumArtist != "" {
		artist = albumArtist
	}
	album := m.Album()
	if album == "" || artist == "" {
		return taggedFile{}, false
	}
	return taggedFile{path: path, album: album, artist: artist}, true
}

// matchRecord searches the catalog for the file's album title plus
// artist. Only an unambiguous single hit counts as a match.
func matchRecord(cat *catalog.Catalog, tf taggedFile) (string, bool, error) {
	ids, err := cat.Search(tf.album + " " + tf.artist)
	if err != nil {
		return "", false, err
	}
	if len(ids) != 1 {
		return "", false, nil
	}
	return ids[0], true, nil
}
