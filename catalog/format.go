package catalog

import "strings"

// FormatClass is the canonical physical-format class of a record.
// Classes are ordered by physical size; a record with mixed media
// classifies as its largest medium.
type FormatClass int

const (
	FormatUnknown FormatClass = iota
	FormatDigital
	FormatCassette
	FormatMiniDisc
	FormatCD
	FormatVinyl7
	FormatVinyl10
	FormatVinyl12
)

var formatNames = map[FormatClass]string{
	FormatUnknown:  "unknown",
	FormatDigital:  "digital",
	FormatCassette: "cassette",
	FormatMiniDisc: "minidisc",
	FormatCD:       "cd",
	FormatVinyl7:   "vinyl7",
	FormatVinyl10:  "vinyl10",
	FormatVinyl12:  "vinyl12",
}

func (f FormatClass) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// classifyMedium maps a free-text medium label (MusicBrainz style:
// `12" Vinyl`, `CD`, `Digital Media`, ...) to a FormatClass. Unrecognized
// or empty labels map to FormatUnknown rather than failing.
func classifyMedium(label string) FormatClass {
	label = strings.ToLower(strings.TrimSpace(label))
	switch {
	case label == "":
		return FormatUnknown
	case strings.Contains(label, `12"`):
		return FormatVinyl12
	case strings.Contains(label, `10"`):
		return FormatVinyl10
	case strings.Contains(label, `7"`):
		return FormatVinyl7
	case strings.Contains(label, "vinyl"):
		// bare "Vinyl" is an LP unless a size says otherwise
		return FormatVinyl12
	case strings.Contains(label, "minidisc"):
		return FormatMiniDisc
	case strings.Contains(label, "cassette"):
		return FormatCassette
	case strings.Contains(label, "cd"), strings.Contains(label, "dvd"),
		strings.Contains(label, "sacd"), strings.Contains(label, "disc"):
		return FormatCD
	case strings.Contains(label, "digital"), strings.Contains(label, "file"):
		return FormatDigital
	default:
		return FormatUnknown
	}
}

// canonicalFormat returns the maximum-ordinal class among all media labels.
// An empty media list classifies as unknown.
func canonicalFormat(labels []string) FormatClass {
	format := FormatUnknown
	for _, label := range labels {
		if c := classifyMedium(label); c > format {
			format = c
		}
	}
	return format
}

// sortKey builds the deterministic, locale-naive ordering key cached on
// each record: artist sort-name, date, then title with parenthesized
// disambiguation, all lowercased.
func sortKey(artistSort, date, title, disambiguation string) string {
	var b strings.Builder
	b.WriteString(artistSort)
	b.WriteString(" ")
	b.WriteString(date)
	b.WriteString(" ")
	b.WriteString(title)
	if disambiguation != "" {
		b.WriteString(" (")
		b.WriteString(disambiguation)
		b.WriteString(")")
	}
	return strings.ToLower(b.String())
}
