package main

import (
	"flag"
	"os"
	"path/filepath"
)

func init() {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".discat.sqlite")

	flag.StringVar(&databasePath, "database", defaultDB, "the location of the catalog database")
	flag.StringVar(&query, "q", "", "search release titles and artists")
	flag.StringVar(&query, "query", "", "search release titles and artists")
	flag.StringVar(&trackQuery, "t", "", "search track titles")
	flag.StringVar(&trackQuery, "tracks", "", "search track titles")
	flag.StringVar(&addFile, "add", "", "digest a metadata document from a JSON file")
	flag.StringVar(&removeID, "remove", "", "remove a record and its index entries")
	flag.StringVar(&renameIDs, "rename", "", "move a record: old-id:new-id")
	flag.BoolVar(&rebuild, "rebuild", false, "rebuild every index table from the record store")
	flag.StringVar(&exportFile, "export", "", "export the catalog to a tar.gz archive")
	flag.StringVar(&importFile, "import", "", "import a tar.gz archive")
	flag.BoolVar(&overwrite, "overwrite", false, "with -import, re-digest records that already exist")
	flag.BoolVar(&refresh, "refresh", false, "re-fetch and re-digest every record")
	flag.StringVar(&scanDir, "scan", "", "match local audio files under a directory to catalog records")
	flag.StringVar(&serverURL, "server", defaultServerURL, "metadata server base URL")
	flag.BoolVar(&outputJSON, "json", false, "output matching results in JSON")
	flag.IntVar(&indent, "i", 2, "with --json, # of spaces to indent by")
	flag.IntVar(&indent, "indent", 2, "with --json, # of spaces to indent by")
	flag.BoolVar(&showSyntax, "syntax", false, "show the query syntax guide")
	flag.BoolVar(&debug, "d", false, "enable debug logging")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
}

func parseFlags() {
	flag.Parse()
}
