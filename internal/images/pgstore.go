package images

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"wanderpress/internal/logger"
)

// PostgresStore keeps the ledger in Postgres for deployments where several
// hosts share one image history. Enabled via LEDGER_DSN.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres ledger connected")
	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS image_records (
		url TEXT PRIMARY KEY,
		attribution_name TEXT NOT NULL,
		attribution_url TEXT,
		category VARCHAR(50),
		keywords TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS image_usage (
		slug TEXT PRIMARY KEY,
		url TEXT NOT NULL REFERENCES image_records(url),
		used_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_image_usage_url ON image_usage(url);
	`

	if _, err := ps.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Load() (*Ledger, error) {
	ledger := NewLedger()

	rows, err := ps.db.Query(`SELECT url, attribution_name, COALESCE(attribution_url, ''), COALESCE(category, ''), COALESCE(keywords, '') FROM image_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to load image records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec ImageRecord
		var keywords string
		if err := rows.Scan(&rec.URL, &rec.AttributionName, &rec.AttributionURL, &rec.Category, &keywords); err != nil {
			return nil, fmt.Errorf("failed to scan image record: %w", err)
		}
		rec.Keywords = splitCSV(keywords)
		ledger.Images[rec.URL] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	usage, err := ps.db.Query(`SELECT slug, url FROM image_usage ORDER BY used_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to load image usage: %w", err)
	}
	defer usage.Close()

	for usage.Next() {
		var slug, url string
		if err := usage.Scan(&slug, &url); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		ledger.SlugToImage[slug] = url
		if rec, ok := ledger.Images[url]; ok {
			rec.UsedBySlugs = append(rec.UsedBySlugs, slug)
		}
	}
	return ledger, usage.Err()
}

// Save upserts every record and usage row. The ledger only grows between
// runs, so this stays cheap.
func (ps *PostgresStore) Save(l *Ledger) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	recordQuery := `
		INSERT INTO image_records (url, attribution_name, attribution_url, category, keywords)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET attribution_name = $2, attribution_url = $3
	`
	for _, rec := range l.Images {
		if _, err := tx.Exec(recordQuery, rec.URL, rec.AttributionName, rec.AttributionURL, rec.Category, joinCSV(rec.Keywords)); err != nil {
			return fmt.Errorf("failed to upsert image record: %w", err)
		}
	}

	usageQuery := `
		INSERT INTO image_usage (slug, url)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO NOTHING
	`
	for slug, url := range l.SlugToImage {
		if _, err := tx.Exec(usageQuery, slug, url); err != nil {
			return fmt.Errorf("failed to upsert usage row: %w", err)
		}
	}

	return tx.Commit()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinCSV(parts []string) string {
	return strings.Join(parts, ",")
}
