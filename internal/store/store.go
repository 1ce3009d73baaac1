package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"pdfshelf/internal/logging"
	"pdfshelf/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// Store manages the persistent metadata table.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (creating if necessary) the metadata database at dbPath.
// The parent directory must already exist and be writable; use
// startup.LoadConfig to validate that before calling New.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Metadata store path: %s", dbPath)

	// WAL mode and busy_timeout let concurrent extraction workers
	// upsert without "database is locked" errors.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to metadata store: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	logging.Info("Metadata store initialized at %s", dbPath)
	return s, nil
}

// initialize creates the schema. Safe to run against an existing
// database; tables and indexes are only created when absent.
func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pdf_metadata (
		hash TEXT PRIMARY KEY,
		partial_hash TEXT NOT NULL,
		path TEXT NOT NULL,
		title TEXT,
		author TEXT,
		subject TEXT,
		keywords TEXT,
		creator TEXT,
		producer TEXT,
		creation_date TEXT,
		modification_date TEXT,
		page_count INTEGER NOT NULL,
		cover_path TEXT,
		file_size INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pdf_partial_hash ON pdf_metadata(partial_hash, file_size);
	CREATE INDEX IF NOT EXISTS idx_pdf_path ON pdf_metadata(path);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const metadataColumns = `hash, partial_hash, path, title, author, subject, keywords,
	creator, producer, creation_date, modification_date, page_count, cover_path, file_size`

// scanRecord reads one PdfMetadata row. Nullable text columns map to
// empty strings.
func scanRecord(row interface{ Scan(...any) error }) (PdfMetadata, error) {
	var m PdfMetadata
	var title, author, subject, keywords, creator, producer sql.NullString
	var creationDate, modificationDate, coverPath sql.NullString

	err := row.Scan(
		&m.Hash, &m.PartialHash, &m.Path,
		&title, &author, &subject, &keywords, &creator, &producer,
		&creationDate, &modificationDate,
		&m.PageCount, &coverPath, &m.FileSize,
	)
	if err != nil {
		return PdfMetadata{}, err
	}

	m.Title = title.String
	m.Author = author.String
	m.Subject = subject.String
	m.Keywords = keywords.String
	m.Creator = creator.String
	m.Producer = producer.String
	m.CreationDate = creationDate.String
	m.ModificationDate = modificationDate.String
	m.CoverPath = coverPath.String
	return m, nil
}

// nullable converts an empty string to a SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// LookupByPartial returns all candidate records sharing a partial
// fingerprint and file size. Zero, one, or many records may match;
// ordering is unspecified. A match here is evidence, not proof, of
// identity.
func (s *Store) LookupByPartial(ctx context.Context, partialHash string, fileSize int64) ([]PdfMetadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("lookup_by_partial", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + metadataColumns + ` FROM pdf_metadata WHERE partial_hash = ? AND file_size = ?`

	rows, err := s.db.QueryContext(ctx, query, partialHash, fileSize)
	if err != nil {
		return nil, fmt.Errorf("partial-hash lookup failed: %w", err)
	}
	defer rows.Close()

	var results []PdfMetadata
	for rows.Next() {
		m, scanErr := scanRecord(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("failed to scan metadata row: %w", scanErr)
		}
		results = append(results, m)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("partial-hash lookup failed: %w", err)
	}
	return results, nil
}

// LookupByHash returns the record for a full content hash, or nil when
// no such record exists.
func (s *Store) LookupByHash(ctx context.Context, hash string) (*PdfMetadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("lookup_by_hash", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + metadataColumns + ` FROM pdf_metadata WHERE hash = ?`

	m, err := scanRecord(s.db.QueryRowContext(ctx, query, hash))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hash lookup failed: %w", err)
	}
	return &m, nil
}

// Upsert inserts or replaces the record keyed by its Hash and stamps
// last_seen with the current time. Safe for concurrent callers; writes
// are serialized by SQLite.
func (s *Store) Upsert(ctx context.Context, m *PdfMetadata) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO pdf_metadata (` + metadataColumns + `, last_seen)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(hash) DO UPDATE SET
		partial_hash = excluded.partial_hash,
		path = excluded.path,
		title = excluded.title,
		author = excluded.author,
		subject = excluded.subject,
		keywords = excluded.keywords,
		creator = excluded.creator,
		producer = excluded.producer,
		creation_date = excluded.creation_date,
		modification_date = excluded.modification_date,
		page_count = excluded.page_count,
		cover_path = excluded.cover_path,
		file_size = excluded.file_size,
		last_seen = strftime('%s', 'now')
	`

	_, err = s.db.ExecContext(ctx, query,
		m.Hash, m.PartialHash, m.Path,
		nullable(m.Title), nullable(m.Author), nullable(m.Subject),
		nullable(m.Keywords), nullable(m.Creator), nullable(m.Producer),
		nullable(m.CreationDate), nullable(m.ModificationDate),
		m.PageCount, nullable(m.CoverPath), m.FileSize,
	)
	if err != nil {
		return fmt.Errorf("upsert failed for %s: %w", m.Hash, err)
	}
	return nil
}

// All returns every record, ordered by path for stable listings.
func (s *Store) All(ctx context.Context) ([]PdfMetadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("all", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := `SELECT ` + metadataColumns + ` FROM pdf_metadata ORDER BY path ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing failed: %w", err)
	}
	defer rows.Close()

	var results []PdfMetadata
	for rows.Next() {
		m, scanErr := scanRecord(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("failed to scan metadata row: %w", scanErr)
		}
		results = append(results, m)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("listing failed: %w", err)
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int64
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pdf_metadata`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	metrics.DBRecordsTotal.Set(float64(count))
	return count, nil
}

// UpdateDBMetrics refreshes the connection gauge.
func (s *Store) UpdateDBMetrics() {
	metrics.DBConnectionsOpen.Set(float64(s.db.Stats().OpenConnections))
}

// recordQuery records store query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
