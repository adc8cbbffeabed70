// Package catalog persists one record per sword item in the nihonto_items table.
package catalog

import (
	"database/sql"
	"time"
)

// Item is one catalog entry discovered in a source volume.
type Item struct {
	ID               int64
	Volume           int
	ItemNumber       int
	OshigataURL      string
	SetsumeiURL      string
	PDFPageOshigata  int
	PDFPageSetsumei  int
	SetsumeiJapanese sql.NullString
	SetsumeiEnglish  sql.NullString
	TranslatedAt     sql.NullTime
	CreatedAt        time.Time
}

// Translated reports whether the item already carries an English translation.
func (it Item) Translated() bool { return it.SetsumeiEnglish.Valid }

// NewItem holds the fields set when an item is first created.
type NewItem struct {
	Volume          int
	ItemNumber      int
	OshigataURL     string
	SetsumeiURL     string
	PDFPageOshigata int
	PDFPageSetsumei int
}

// Translation holds the fields written once by the transcription pipeline.
type Translation struct {
	Japanese     string
	English      string
	TranslatedAt time.Time
}
