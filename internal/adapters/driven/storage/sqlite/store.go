package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/embedcodec"
	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// DefaultFilename is the database file name inside the data directory.
const DefaultFilename = "spaces.db"

// Store is a SQLite-backed driven.Store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (or creates) the database at dbPath and runs migrations.
// If dbPath is empty, defaults to ~/.spaces/data/spaces.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".spaces", "data", DefaultFilename)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Space Store ====================

// EnsureSpace returns the named space, creating it if absent.
func (s *Store) EnsureSpace(ctx context.Context, name string) (*domain.Space, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces (name, created_at) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, s.now())
	if err != nil {
		return nil, fmt.Errorf("inserting space: %w", err)
	}

	var sp domain.Space
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, total_size_mb, created_at FROM spaces WHERE name = ?
	`, name).Scan(&sp.ID, &sp.Name, &sp.TotalSizeMB, &sp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting space: %w", err)
	}
	return &sp, nil
}

// EnsureFile returns the file in the space, creating it if absent, and
// keeps the space's total size in step with its files.
func (s *Store) EnsureFile(ctx context.Context, spaceID int64, name string, sizeMB float64) (*domain.File, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM spaces WHERE id = ?", spaceID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking space: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO files (space_id, name, size_mb, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(space_id, name) DO UPDATE SET size_mb = excluded.size_mb
	`, spaceID, name, sizeMB, s.now())
	if err != nil {
		return nil, fmt.Errorf("upserting file: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE spaces SET total_size_mb = (
			SELECT COALESCE(SUM(size_mb), 0) FROM files WHERE space_id = ?
		) WHERE id = ?
	`, spaceID, spaceID)
	if err != nil {
		return nil, fmt.Errorf("updating space size: %w", err)
	}

	var f domain.File
	err = tx.QueryRowContext(ctx, `
		SELECT id, space_id, name, size_mb, created_at FROM files WHERE space_id = ? AND name = ?
	`, spaceID, name).Scan(&f.ID, &f.SpaceID, &f.Name, &f.SizeMB, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing file: %w", err)
	}
	return &f, nil
}

const fileColumns = `
	f.id, f.space_id, f.name, f.size_mb, f.created_at,
	EXISTS (SELECT 1 FROM embeddings e WHERE e.file_id = f.id)
`

// GetFile returns a file by space and name.
func (s *Store) GetFile(ctx context.Context, space, name string) (*domain.File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+fileColumns+`
		FROM files f JOIN spaces sp ON sp.id = f.space_id
		WHERE sp.name = ? AND f.name = ?
	`, space, name)

	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}
	return f, nil
}

// ListSpaces returns all spaces ordered by name.
func (s *Store) ListSpaces(ctx context.Context) ([]domain.Space, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, total_size_mb, created_at FROM spaces ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}
	defer rows.Close()

	spaces := make([]domain.Space, 0)
	for rows.Next() {
		var sp domain.Space
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.TotalSizeMB, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning space: %w", err)
		}
		spaces = append(spaces, sp)
	}
	return spaces, rows.Err()
}

// ListFiles returns the files in a space ordered by name.
func (s *Store) ListFiles(ctx context.Context, space string) ([]domain.File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fileColumns+`
		FROM files f JOIN spaces sp ON sp.id = f.space_id
		WHERE sp.name = ?
		ORDER BY f.name
	`, space)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	files := make([]domain.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// ==================== Embedding Store ====================

// UpsertEmbeddingRecord inserts or replaces the record for (file, page).
// A replaced record keeps its id and creation time.
func (s *Store) UpsertEmbeddingRecord(ctx context.Context, rec *domain.EmbeddingRecord) (int64, error) {
	if rec == nil || rec.PageNo < 1 {
		return 0, domain.ErrInvalidInput
	}
	metadata, err := embedcodec.MarshalMetadata(rec.Metadata)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO embeddings
			(file_id, pageno, metadata, context, embedding, token_count, cost, source, image_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, pageno) DO UPDATE SET
			metadata = excluded.metadata,
			context = excluded.context,
			embedding = excluded.embedding,
			token_count = excluded.token_count,
			cost = excluded.cost,
			source = excluded.source,
			image_path = excluded.image_path
		RETURNING id
	`,
		rec.FileID, rec.PageNo, metadata, rec.Context, embedcodec.ToBlob(rec.Embedding),
		rec.TokenCount, rec.Cost, rec.Source, rec.ImagePath, s.now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting embedding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing embedding: %w", err)
	}
	return id, nil
}

// UpdateEmbeddingRecord replaces the context and/or embedding of a record.
func (s *Store) UpdateEmbeddingRecord(ctx context.Context, id int64, text *string, embedding []float32) error {
	var sets []string
	var args []any
	if text != nil {
		sets = append(sets, "context = ?")
		args = append(args, *text)
	}
	if embedding != nil {
		sets = append(sets, "embedding = ?")
		args = append(args, domain.EncodeFloat32Blob(embedding))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE embeddings SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IndexedPages returns the page numbers with a record for the file.
func (s *Store) IndexedPages(ctx context.Context, fileID int64) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT pageno FROM embeddings WHERE file_id = ?", fileID)
	if err != nil {
		return nil, fmt.Errorf("listing indexed pages: %w", err)
	}
	defer rows.Close()

	pages := make(map[int]bool)
	for rows.Next() {
		var page int
		if err := rows.Scan(&page); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages[page] = true
	}
	return pages, rows.Err()
}

// FetchCandidates returns every record in scope, ordered by id.
func (s *Store) FetchCandidates(ctx context.Context, scope domain.Scope) ([]domain.EmbeddingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, pageno, metadata, context, embedding, token_count, cost, source, image_path, created_at
		FROM embeddings
		WHERE (? = '' OR json_extract(metadata, '$.space') = ?)
		  AND (? = '' OR source = ?)
		ORDER BY id
	`, scope.Space, scope.Space, scope.Filename, scope.Filename)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}
	defer rows.Close()

	records := make([]domain.EmbeddingRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ==================== Conversation Store ====================

// InsertConversationEntry stores a new conversation entry. The space id is
// resolved from the space name when the space exists.
func (s *Store) InsertConversationEntry(ctx context.Context, entry *domain.ConversationEntry) (int64, error) {
	if entry == nil || !entry.Sender.IsValid() {
		return 0, domain.ErrInvalidInput
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if entry.RelatedID != nil {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM conversations WHERE id = ?", *entry.RelatedID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("checking related entry: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO conversations
			(sender, text, timestamp, space_id, space_name, file_id, file_name, related_id, client_id, embedding)
		VALUES (?, ?, ?, (SELECT id FROM spaces WHERE name = ?), ?, ?, ?, ?, ?, ?)
	`,
		string(entry.Sender), entry.Text, ts, entry.SpaceName, entry.SpaceName,
		nullInt64(entry.FileID), entry.FileName, nullInt64(entry.RelatedID), entry.ClientID,
		embedcodec.ToBlob(entry.Embedding),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting conversation entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("inserting conversation entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing conversation entry: %w", err)
	}
	return id, nil
}

const conversationColumns = `
	id, sender, text, timestamp, COALESCE(space_id, 0), space_name,
	file_id, file_name, related_id, client_id, embedding
`

// GetConversationEntry returns an entry by id.
func (s *Store) GetConversationEntry(ctx context.Context, id int64) (*domain.ConversationEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+conversationColumns+" FROM conversations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting conversation entry: %w", err)
	}
	entries, err := scanConversations(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrNotFound
	}
	return &entries[0], nil
}

// FetchConversations returns entries for clientID, falling back to space
// and then to filename within space.
func (s *Store) FetchConversations(
	ctx context.Context, clientID, space, filename string,
) ([]domain.ConversationEntry, error) {
	type filter struct {
		where string
		args  []any
	}
	var filters []filter
	if clientID != "" {
		filters = append(filters, filter{"client_id = ?", []any{clientID}})
	}
	if space != "" {
		filters = append(filters, filter{"space_name = ?", []any{space}})
		if filename != "" {
			filters = append(filters, filter{"space_name = ? AND file_name = ?", []any{space, filename}})
		}
	}

	for _, f := range filters {
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+conversationColumns+" FROM conversations WHERE "+f.where+" ORDER BY timestamp, id", f.args...)
		if err != nil {
			return nil, fmt.Errorf("fetching conversations: %w", err)
		}
		entries, err := scanConversations(rows)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}
	return []domain.ConversationEntry{}, nil
}

// FetchConversationCandidates returns every embedded entry in scope, ordered by id.
func (s *Store) FetchConversationCandidates(
	ctx context.Context, scope domain.Scope,
) ([]domain.ConversationEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE embedding IS NOT NULL
		  AND (? = '' OR space_name = ?)
		  AND (? = '' OR file_name = ?)
		ORDER BY id
	`, scope.Space, scope.Space, scope.Filename, scope.Filename)
	if err != nil {
		return nil, fmt.Errorf("fetching conversation candidates: %w", err)
	}
	return scanConversations(rows)
}

// ==================== Helpers ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*domain.File, error) {
	var f domain.File
	if err := row.Scan(&f.ID, &f.SpaceID, &f.Name, &f.SizeMB, &f.CreatedAt, &f.Indexed); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanRecord(rows *sql.Rows) (*domain.EmbeddingRecord, error) {
	var rec domain.EmbeddingRecord
	var metadata string
	var embedding any
	err := rows.Scan(
		&rec.ID, &rec.FileID, &rec.PageNo, &metadata, &rec.Context, &embedding,
		&rec.TokenCount, &rec.Cost, &rec.Source, &rec.ImagePath, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}

	if rec.Metadata, err = embedcodec.UnmarshalMetadata([]byte(metadata)); err != nil {
		return nil, err
	}
	rec.Embedding = embedcodec.Resolve(embedding)
	return &rec, nil
}

func scanConversations(rows *sql.Rows) ([]domain.ConversationEntry, error) {
	defer rows.Close()

	entries := make([]domain.ConversationEntry, 0)
	for rows.Next() {
		var e domain.ConversationEntry
		var sender string
		var fileID, relatedID sql.NullInt64
		var embedding any
		err := rows.Scan(
			&e.ID, &sender, &e.Text, &e.Timestamp, &e.SpaceID, &e.SpaceName,
			&fileID, &e.FileName, &relatedID, &e.ClientID, &embedding,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation entry: %w", err)
		}
		e.Sender = domain.Sender(sender)
		e.FileID = int64Ptr(fileID)
		e.RelatedID = int64Ptr(relatedID)
		e.Embedding = embedcodec.Resolve(embedding)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullInt64 converts an optional id to a nullable column value.
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
