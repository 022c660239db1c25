package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sean-doody/tweet-scraper/models"
)

// WriteJSON encodes the dataset as a JSON array of row objects. List columns
// are written as native arrays; a nil list is written as null, so the
// null-vs-list distinction survives the round trip exactly.
func (d *Dataset) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.rows); err != nil {
		return fmt.Errorf("failed to encode dataset as JSON: %w", err)
	}
	return nil
}

// ReadJSON decodes a dataset previously written by WriteJSON.
func ReadJSON(r io.Reader) (*Dataset, error) {
	var rows []models.FlatTweet
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode dataset JSON: %w", err)
	}
	return FromRows(rows), nil
}

// SaveJSON writes the JSON artifact to path, replacing any existing file.
func (d *Dataset) SaveJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON artifact %s: %w", path, err)
	}
	defer f.Close()

	if err := d.WriteJSON(f); err != nil {
		return err
	}
	return f.Close()
}

// LoadJSON reads a JSON artifact from path.
func LoadJSON(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON artifact %s: %w", path, err)
	}
	defer f.Close()

	return ReadJSON(f)
}
