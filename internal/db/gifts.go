package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/giftbot/internal/catalog"
)

// FindExact looks a gift up by its name exactly as typed. Names are not
// unique; the lowest id wins.
func (db *DB) FindExact(ctx context.Context, name string) (*catalog.Gift, error) {
	var g catalog.Gift
	var imageURL *string
	err := db.q.QueryRow(ctx,
		`SELECT id, name, price, image_url FROM gifts WHERE name = $1 ORDER BY id LIMIT 1`,
		name,
	).Scan(&g.ID, &g.Name, &g.UnitPrice, &imageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if imageURL != nil {
		g.ImageURL = *imageURL
	}
	return &g, nil
}

func (db *DB) FindSuggestions(ctx context.Context, normalized string, limit int) ([]string, error) {
	gifts, err := db.ListGifts(ctx, normalized, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(gifts))
	for _, g := range gifts {
		names = append(names, g.Name)
	}
	return names, nil
}

// ListGifts returns gifts whose name contains pattern, case-insensitively,
// in byte order of name. A limit <= 0 means no limit.
func (db *DB) ListGifts(ctx context.Context, pattern string, limit int) ([]catalog.Gift, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := db.q.Query(ctx,
		`SELECT id, name, price, image_url
		 FROM gifts
		 WHERE name ILIKE $1
		 ORDER BY name COLLATE "C", id
		 LIMIT $2`,
		"%"+escapeLike(pattern)+"%", lim,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Gift
	for rows.Next() {
		var g catalog.Gift
		var imageURL *string
		if err := rows.Scan(&g.ID, &g.Name, &g.UnitPrice, &imageURL); err != nil {
			return nil, err
		}
		if imageURL != nil {
			g.ImageURL = *imageURL
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SyncGifts updates the price and image of every gift with a matching name and
// inserts the ones that are missing.
func (db *DB) SyncGifts(ctx context.Context, gifts []catalog.Gift) (inserted, updated int, err error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, g := range gifts {
		var imageURL *string
		if g.ImageURL != "" {
			imageURL = &g.ImageURL
		}
		ct, err := tx.Exec(ctx,
			`UPDATE gifts SET price = $2::numeric, image_url = $3 WHERE name = $1`,
			g.Name, g.UnitPrice.String(), imageURL,
		)
		if err != nil {
			return 0, 0, err
		}
		if ct.RowsAffected() > 0 {
			updated++
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO gifts (name, price, image_url) VALUES ($1, $2::numeric, $3)`,
			g.Name, g.UnitPrice.String(), imageURL,
		); err != nil {
			return 0, 0, err
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
