package arxiv

import (
	"regexp"
	"strings"
	"time"
)

// Paper represents one paper record fetched from the arXiv API
type Paper struct {
	// ArxivID is the arXiv identifier with any version suffix stripped
	// (e.g. "2301.00001", not "2301.00001v2")
	ArxivID string

	// Title with feed line wrapping collapsed
	Title string

	// Authors in the order reported by the feed
	Authors []string

	// Abstract with feed line wrapping collapsed
	Abstract string

	// Categories holds the primary category first, then the remaining
	// tags without duplicates
	Categories []string

	// Published is the first submission timestamp
	Published time.Time

	// Updated is the last revision timestamp
	Updated time.Time

	// PDFURL is the link with media type application/pdf
	PDFURL string

	// EntryURL is the abstract page link
	EntryURL string
}

// Page is one bounded-size batch of papers returned by a single API request
type Page struct {
	Papers []Paper

	// TotalResults is the advisory total reported by the upstream for the
	// whole query. It may be inconsistent across pages.
	TotalResults int
}

var versionSuffix = regexp.MustCompile(`v\d+$`)

// StripVersion extracts the bare arXiv ID from an Atom entry ID such as
// "http://arxiv.org/abs/2301.00001v2"
func StripVersion(entryID string) string {
	id := entryID
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	return versionSuffix.ReplaceAllString(id, "")
}

// collapseWhitespace folds the line wrapping arXiv inserts into titles and
// abstracts down to single spaces
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
