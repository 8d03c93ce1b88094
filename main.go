package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"discat/catalog"
)

var (
	databasePath string
	query        string
	trackQuery   string
	addFile      string
	removeID     string
	renameIDs    string
	rebuild      bool
	exportFile   string
	importFile   string
	overwrite    bool
	refresh      bool
	scanDir      string
	serverURL    string
	outputJSON   bool
	indent       int
	showSyntax   bool
	debug        bool
)

func truePath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	abs, _ := filepath.Abs(path)
	return abs
}

func main() {
	parseFlags()

	if showSyntax {
		fmt.Print(syntaxGuide + "\n")
		return
	}

	databasePath = truePath(databasePath)

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := catalog.NewTextLogger(level)

	cat, err := catalog.Open(databasePath,
		catalog.WithLogger(logger),
		catalog.WithCoverDir(strings.TrimSuffix(databasePath, ".sqlite")+".covers"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer cat.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ran, err := runCommands(ctx, cat)
	if err != nil {
		log.Fatal(err)
	}
	if ran {
		return
	}

	if query != "" {
		ids, err := cat.Search(query)
		if err != nil {
			log.Fatal(err)
		}
		printResults(cat, ids)
		return
	}
	if trackQuery != "" {
		ids, err := cat.SearchTracks(trackQuery)
		if err != nil {
			log.Fatal(err)
		}
		printResults(cat, ids)
		return
	}

	interactiveLoop(ctx, cat)
}

// runCommands dispatches the one-shot command flags. Reports whether
// any ran.
func runCommands(ctx context.Context, cat *catalog.Catalog) (bool, error) {
	ran := false

	if addFile != "" {
		data, err := os.ReadFile(truePath(addFile))
		if err != nil {
			return true, err
		}
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return true, fmt.Errorf("metadata file %s: %w", addFile, err)
		}
		if err := cat.Digest(doc.ID, data); err != nil {
			return true, err
		}
		fmt.Printf("Added %s.\n", doc.ID)
		ran = true
	}

	if removeID != "" {
		if err := cat.UnDigest(removeID); err != nil {
			return true, err
		}
		fmt.Printf("Removed %s.\n", removeID)
		ran = true
	}

	if renameIDs != "" {
		oldID, newID, ok := strings.Cut(renameIDs, ":")
		if !ok {
			return true, fmt.Errorf("rename wants old-id:new-id, got %q", renameIDs)
		}
		if err := cat.Rename(oldID, newID); err != nil {
			return true, err
		}
		fmt.Printf("Renamed %s to %s.\n", oldID, newID)
		ran = true
	}

	if rebuild {
		if err := cat.Rebuild(); err != nil {
			return true, err
		}
		count, _ := cat.Count()
		fmt.Printf("Rebuilt indexes for %s records.\n", commatize(count))
		ran = true
	}

	if refresh {
		fetcher := newFetcher(serverURL)
		stats, err := cat.RefreshAll(ctx, fetcher.fetchRelease)
		if err != nil {
			return true, err
		}
		fmt.Printf("Refreshed %d records (%d failed).\n", stats.Refreshed, stats.Failed)
		ran = true
	}

	if scanDir != "" {
		matched, err := scanDigitalFiles(ctx, cat, truePath(scanDir))
		if err != nil {
			return true, err
		}
		fmt.Printf("Scanner: matched %d files to catalog records.\n", matched)
		ran = true
	}

	if exportFile != "" {
		f, err := os.Create(truePath(exportFile))
		if err != nil {
			return true, err
		}
		if err := cat.Export(f); err != nil {
			f.Close()
			return true, err
		}
		if err := f.Close(); err != nil {
			return true, err
		}
		count, _ := cat.Count()
		fmt.Printf("Exported %s records to %s.\n", commatize(count), exportFile)
		ran = true
	}

	if importFile != "" {
		f, err := os.Open(truePath(importFile))
		if err != nil {
			return true, err
		}
		defer f.Close()
		policy := catalog.SkipExisting
		if overwrite {
			policy = catalog.Overwrite
		}
		stats, err := cat.Import(f, policy)
		if err != nil {
			return true, err
		}
		fmt.Printf("Imported %d records (%d skipped, %d failed).\n",
			stats.Imported, stats.Skipped, stats.Failed)
		ran = true
	}

	return ran, nil
}

func printResults(cat *catalog.Catalog, ids []string) {
	if len(ids) == 0 {
		fmt.Println("No results found.")
		return
	}

	records := make([]*catalog.Record, 0, len(ids))
	for _, id := range ids {
		r, err := cat.Record(id)
		if err != nil {
			continue
		}
		records = append(records, r)
	}

	if outputJSON {
		var b []byte
		if indent > 0 {
			b, _ = json.MarshalIndent(records, "", strings.Repeat(" ", indent))
		} else {
			b, _ = json.Marshal(records)
		}
		fmt.Println(string(b))
		return
	}

	var lastArtist string
	for i, r := range records {
		if lastArtist != r.Artist {
			fmt.Printf("\n %s\n %s\n", r.Artist, strings.Repeat("=", len(r.Artist)))
		}
		line := fmt.Sprintf("  [%2d] %s", i+1, r.Title)
		if r.Date != "" {
			line += " (" + r.Date + ")"
		}
		line += " [" + r.Format + "]"
		if r.Rating > 0 {
			line += " " + strings.Repeat("*", r.Rating)
		}
		fmt.Println(line)
		fmt.Printf("       %s\n", r.ID)
		lastArtist = r.Artist
	}
}

func interactiveLoop(ctx context.Context, cat *catalog.Catalog) {
	count, _ := cat.Count()

	fmt.Println("For help with query syntax, use discat --syntax")
	fmt.Println("Prefix with $ to search track titles; use !commands to annotate.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("\n[discat | %s records] > ", commatize(count))
		if !scanner.Scan() {
			fmt.Fprintln(os.Stderr, "\nGoodbye.")
			break
		}
		if ctx.Err() != nil {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "!") {
			if err := annotationCommand(cat, input[1:]); err != nil {
				fmt.Println("Error:", err)
			}
			count, _ = cat.Count()
			continue
		}

		var ids []string
		var err error
		if strings.HasPrefix(input, "$") {
			ids, err = cat.SearchTracks(input[1:])
		} else {
			ids, err = cat.Search(input)
		}
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		printResults(cat, ids)
	}
}

// annotationCommand handles the !-prefixed shell commands:
// rate <0-5> <id>, comment <id> <text...>, count <n> <id>,
// listen <id>, lend <who> <id>, return <id>, remove <id>.
func annotationCommand(cat *catalog.Catalog, input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	now := time.Now()

	switch fields[0] {
	case "rate":
		if len(fields) != 3 {
			return fmt.Errorf("usage: !rate <0-5> <id>")
		}
		rating, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("rating must be a number")
		}
		return cat.SetRating(fields[2], rating)
	case "comment":
		if len(fields) < 3 {
			return fmt.Errorf("usage: !comment <id> <text>")
		}
		return cat.SetComment(fields[1], strings.Join(fields[2:], " "))
	case "count":
		if len(fields) != 3 {
			return fmt.Errorf("usage: !count <n> <id>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("count must be a number")
		}
		return cat.SetCount(fields[2], n)
	case "listen":
		if len(fields) != 2 {
			return fmt.Errorf("usage: !listen <id>")
		}
		return cat.AddListen(fields[1], now)
	case "lend":
		if len(fields) != 3 {
			return fmt.Errorf("usage: !lend <who> <id>")
		}
		return cat.Lend(fields[2], fields[1], now)
	case "return":
		if len(fields) != 2 {
			return fmt.Errorf("usage: !return <id>")
		}
		return cat.Return(fields[1], now)
	case "remove":
		if len(fields) != 2 {
			return fmt.Errorf("usage: !remove <id>")
		}
		return cat.UnDigest(fields[1])
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func commatize(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var res []string
	for len(s) > 3 {
		res = append(res, s[len(s)-3:])
		s = s[:len(s)-3]
	}
	res = append(res, s)
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return strings.Join(res, ",")
}

const syntaxGuide = `
# discat query syntax

Queries are whitespace-separated terms, matched case-insensitively
against release titles, artist names, and disambiguations. All terms
must match (logical AND).

moon river                          - Records whose text contains both "moon" and "river"
$blue                               - Records owning a track whose title contains "blue"

## Shell annotation commands

!rate <0-5> <id>                    - Rate a record
!comment <id> <text...>             - Set the free-text comment
!count <n> <id>                     - Set the on-hand copy count
!listen <id>                        - Record a listen now
!lend <who> <id>                    - Check a record out to someone
!return <id>                        - Check a record back in
!remove <id>                        - Remove a record and all its index entries

## One-shot commands

discat -add release.json            - Digest a metadata document from a file
discat -remove <id>                 - Un-digest a record
discat -rename <old-id>:<new-id>    - Move a record to a new identifier
discat -rebuild                     - Rebuild every index table from the record store
discat -refresh                     - Re-fetch and re-digest every record
discat -scan ~/Music                - Match local audio files to catalog records
discat -export backup.tar.gz        - Export the whole catalog as an archive
discat -import backup.tar.gz        - Import an archive (use -overwrite to replace)
`
