package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sean-doody/tweet-scraper/models"
)

// csvTimeLayout is the timestamp format of the CSV artifact.
const csvTimeLayout = time.RFC3339Nano

// WriteCSV encodes the dataset in the flattened format: a header row of the
// fixed columns, then one record per row. List cells are joined with
// ListDelimiter and null cells (nil pointers, nil lists) are written as
// empty strings, the CSV native missing-value marker.
//
// Known limitation: a hashtag or screen name that itself contains the
// delimiter cannot be distinguished from two items after flattening, so the
// round trip is lossy for such values. This is inherited from the encoding
// scheme and is not special-cased.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range d.rows {
		if err := cw.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// ReadCSV decodes a dataset previously written by WriteCSV. The header must
// match the fixed column set exactly.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []models.FlatTweet
	for i := 0; ; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", i, err)
		}

		row, err := parseCSVRecord(record)
		if err != nil {
			return nil, fmt.Errorf("bad CSV row %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	return FromRows(rows), nil
}

// SaveCSV writes the CSV artifact to path, replacing any existing file.
func (d *Dataset) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV artifact %s: %w", path, err)
	}
	defer f.Close()

	if err := d.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

// LoadCSV reads a CSV artifact from path.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV artifact %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

func checkHeader(header []string) error {
	if len(header) != len(models.Columns) {
		return fmt.Errorf("unexpected CSV header: got %d columns, want %d", len(header), len(models.Columns))
	}
	for i, name := range models.Columns {
		if header[i] != name {
			return fmt.Errorf("unexpected CSV header: column %d is %q, want %q", i, header[i], name)
		}
	}
	return nil
}

// csvRecord renders one row in the fixed column order.
func csvRecord(t models.FlatTweet) []string {
	return []string{
		strconv.FormatInt(t.UserID, 10),
		t.ScreenName,
		t.Name,
		strconv.FormatBool(t.Verified),
		strconv.FormatInt(t.ID, 10),
		t.CreatedAt.Format(csvTimeLayout),
		t.FullText,
		strconv.Itoa(t.RetweetCount),
		strconv.Itoa(t.FavoriteCount),
		JoinList(t.Hashtags),
		JoinList(t.UserMentions),
		formatInt64Cell(t.InReplyToUserID),
		formatStringCell(t.InReplyToScreenName),
		strconv.FormatBool(t.IsQuoteStatus),
		strconv.FormatBool(t.IsRetweet),
		formatInt64Cell(t.RetweetOgID),
		formatInt64Cell(t.RetweetOgAuthorID),
		formatStringCell(t.RetweetOgAuthorScreenName),
		formatStringCell(t.RetweetOgAuthorName),
		formatTimeCell(t.RetweetOgDate),
		formatStringCell(t.RetweetOgFullText),
		formatIntCell(t.RetweetOgRetweetCount),
		formatIntCell(t.RetweetOgFavoriteCount),
	}
}

// parseCSVRecord reverses csvRecord. Nullness of the eight retweet_og_*
// cells is driven by the is_retweet flag rather than cell emptiness, so an
// empty original full_text still decodes to a non-nil value and the
// all-or-nothing invariant is preserved.
func parseCSVRecord(record []string) (models.FlatTweet, error) {
	var t models.FlatTweet
	if len(record) != len(models.Columns) {
		return t, fmt.Errorf("got %d cells, want %d", len(record), len(models.Columns))
	}

	var err error
	if t.UserID, err = strconv.ParseInt(record[0], 10, 64); err != nil {
		return t, fmt.Errorf("user_id: %w", err)
	}
	t.ScreenName = record[1]
	t.Name = record[2]
	if t.Verified, err = strconv.ParseBool(record[3]); err != nil {
		return t, fmt.Errorf("verified: %w", err)
	}
	if t.ID, err = strconv.ParseInt(record[4], 10, 64); err != nil {
		return t, fmt.Errorf("id: %w", err)
	}
	if t.CreatedAt, err = time.Parse(csvTimeLayout, record[5]); err != nil {
		return t, fmt.Errorf("created_at: %w", err)
	}
	t.FullText = record[6]
	if t.RetweetCount, err = strconv.Atoi(record[7]); err != nil {
		return t, fmt.Errorf("retweet_count: %w", err)
	}
	if t.FavoriteCount, err = strconv.Atoi(record[8]); err != nil {
		return t, fmt.Errorf("favorite_count: %w", err)
	}

	t.Hashtags = SplitList(record[9])
	t.UserMentions = SplitList(record[10])

	if t.InReplyToUserID, err = parseInt64Cell(record[11]); err != nil {
		return t, fmt.Errorf("in_reply_to_user_id: %w", err)
	}
	t.InReplyToScreenName = parseStringCell(record[12])
	if t.IsQuoteStatus, err = strconv.ParseBool(record[13]); err != nil {
		return t, fmt.Errorf("is_quote_status: %w", err)
	}
	if t.IsRetweet, err = strconv.ParseBool(record[14]); err != nil {
		return t, fmt.Errorf("is_retweet: %w", err)
	}

	if !t.IsRetweet {
		return t, nil
	}

	ogID, err := strconv.ParseInt(record[15], 10, 64)
	if err != nil {
		return t, fmt.Errorf("retweet_og_id: %w", err)
	}
	ogAuthorID, err := strconv.ParseInt(record[16], 10, 64)
	if err != nil {
		return t, fmt.Errorf("retweet_og_author_id: %w", err)
	}
	ogScreenName := record[17]
	ogName := record[18]
	ogDate, err := time.Parse(csvTimeLayout, record[19])
	if err != nil {
		return t, fmt.Errorf("retweet_og_date: %w", err)
	}
	ogText := record[20]
	ogRetweets, err := strconv.Atoi(record[21])
	if err != nil {
		return t, fmt.Errorf("retweet_og_retweet_count: %w", err)
	}
	ogFavorites, err := strconv.Atoi(record[22])
	if err != nil {
		return t, fmt.Errorf("retweet_og_favorite_count: %w", err)
	}

	t.RetweetOgID = &ogID
	t.RetweetOgAuthorID = &ogAuthorID
	t.RetweetOgAuthorScreenName = &ogScreenName
	t.RetweetOgAuthorName = &ogName
	t.RetweetOgDate = &ogDate
	t.RetweetOgFullText = &ogText
	t.RetweetOgRetweetCount = &ogRetweets
	t.RetweetOgFavoriteCount = &ogFavorites
	return t, nil
}

func formatInt64Cell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatIntCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatStringCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTimeCell(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(csvTimeLayout)
}

func parseInt64Cell(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseStringCell(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
