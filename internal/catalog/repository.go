package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrNotFound          = errors.New("catalog item not found")
	ErrAlreadyTranslated = errors.New("catalog item already translated")
	ErrIncompleteNewItem = errors.New("catalog item requires both image URLs and both page numbers")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Repository handles nihonto_items reads and writes.
type Repository struct {
	db DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const itemColumns = `id, volume, item_number, oshigata_url, setsumei_url,
	pdf_page_oshigata, pdf_page_setsumei, setsumei_japanese, setsumei_english,
	translated_at, created_at`

// Insert creates a record. No de-duplication on (volume, item_number) is performed.
func (r *Repository) Insert(ctx context.Context, n NewItem) (Item, error) {
	if n.OshigataURL == "" || n.SetsumeiURL == "" || n.PDFPageOshigata <= 0 || n.PDFPageSetsumei <= 0 {
		return Item{}, ErrIncompleteNewItem
	}
	it := Item{
		Volume:          n.Volume,
		ItemNumber:      n.ItemNumber,
		OshigataURL:     n.OshigataURL,
		SetsumeiURL:     n.SetsumeiURL,
		PDFPageOshigata: n.PDFPageOshigata,
		PDFPageSetsumei: n.PDFPageSetsumei,
		CreatedAt:       time.Now().UTC(),
	}

	query := `
		INSERT INTO nihonto_items (volume, item_number, oshigata_url, setsumei_url,
			pdf_page_oshigata, pdf_page_setsumei, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		it.Volume, it.ItemNumber, it.OshigataURL, it.SetsumeiURL,
		it.PDFPageOshigata, it.PDFPageSetsumei, it.CreatedAt,
	).Scan(&it.ID)
	if err != nil {
		return Item{}, fmt.Errorf("insert vol%d item %d: %w", n.Volume, n.ItemNumber, err)
	}
	return it, nil
}

// UpdateTranslation writes the OCR and translation fields. A record is translated at most once.
func (r *Repository) UpdateTranslation(ctx context.Context, id int64, t Translation) error {
	query := `
		UPDATE nihonto_items
		SET setsumei_japanese = $1, setsumei_english = $2, translated_at = $3
		WHERE id = $4 AND setsumei_english IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, t.Japanese, t.English, t.TranslatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyTranslated
}

// Get retrieves an item by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Item, error) {
	query := `SELECT ` + itemColumns + ` FROM nihonto_items WHERE id = $1`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// ListUntranslated returns items with no English translation ordered by volume, item number.
func (r *Repository) ListUntranslated(ctx context.Context) ([]Item, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM nihonto_items
		WHERE setsumei_english IS NULL
		ORDER BY volume ASC, item_number ASC, id ASC`)
}

// ListAll returns every item ordered by volume, item number.
func (r *Repository) ListAll(ctx context.Context) ([]Item, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM nihonto_items
		ORDER BY volume ASC, item_number ASC, id ASC`)
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (Item, error) {
	var it Item
	err := s.Scan(
		&it.ID, &it.Volume, &it.ItemNumber, &it.OshigataURL, &it.SetsumeiURL,
		&it.PDFPageOshigata, &it.PDFPageSetsumei, &it.SetsumeiJapanese, &it.SetsumeiEnglish,
		&it.TranslatedAt, &it.CreatedAt,
	)
	return it, err
}
