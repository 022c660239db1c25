// Package dataset holds the accumulated flat tweet table and its
// serialization to the two artifact formats: JSON, which preserves list
// columns as native arrays, and CSV, which flattens them to delimited
// strings.
package dataset

import (
	"strings"

	"github.com/sean-doody/tweet-scraper/models"
)

// ListDelimiter joins list-valued cells (hashtags, user mentions) in the
// flattened CSV format and in the SQLite store.
const ListDelimiter = ","

// Dataset is an append-only ordered collection of flat tweets sharing the
// fixed column schema. It is built row by row during a scrape run and
// treated as immutable once serialized.
type Dataset struct {
	rows []models.FlatTweet
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{}
}

// FromRows wraps already-normalized rows in a dataset. Used by the decoders.
func FromRows(rows []models.FlatTweet) *Dataset {
	return &Dataset{rows: rows}
}

// Append adds one row. Rows are kept in insertion order; duplicate tweet IDs
// are allowed since the same tweet can legitimately appear across runs.
func (d *Dataset) Append(row models.FlatTweet) {
	d.rows = append(d.rows, row)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns the rows in insertion order. The slice is shared with the
// dataset; callers must not mutate it.
func (d *Dataset) Rows() []models.FlatTweet {
	return d.rows
}

// Columns returns the fixed column order shared by every artifact.
func (d *Dataset) Columns() []string {
	return models.Columns
}

// JoinList flattens a list cell into a single delimited string. A nil list
// (the null cell) maps to the empty string. If an item itself contains the
// delimiter the encoding is lossy: SplitList will produce extra elements.
// That collision is an accepted limitation of the flattened format and is
// not detected or rejected here.
func JoinList(items []string) string {
	return strings.Join(items, ListDelimiter)
}

// SplitList reverses JoinList. The empty string maps back to a nil list.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ListDelimiter)
}
