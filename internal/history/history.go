// Package history persists a log of resolutions to SQLite. Each
// record captures what was resolved, which strategy answered, and how
// long it took, feeding the /history and /stats endpoints.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var log = logrus.New()

// SetLogger replaces the package-level logger.
func SetLogger(l *logrus.Logger) { log = l }

// Store manages resolution history persistence via SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Resolution represents one recorded resolution.
type Resolution struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Strategy    string    `json:"strategy"`
	InputHint   string    `json:"input_hint,omitempty"`
	PayloadSize int64     `json:"payload_size"`
	ClientIP    string    `json:"client_ip,omitempty"`
	DurationUS  int64     `json:"duration_us"`
	Texture     bool      `json:"texture"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Query filters for querying the history log.
type Query struct {
	Strategy string
	Type     string
	Since    time.Time
	Until    time.Time
	Limit    int
	Offset   int
	OrderBy  string // "resolved_at", "payload_size", "duration_us", "resolved_type"
	OrderDir string // "ASC", "DESC"
}

// Stats holds aggregate statistics from the history log.
type Stats struct {
	TotalResolutions int64            `json:"total_resolutions"`
	TotalBytes       int64            `json:"total_bytes"`
	UniqueTypes      int64            `json:"unique_types"`
	ByStrategy       map[string]int64 `json:"by_strategy"`
	TopTypes         []TypeStat       `json:"top_types"`
}

// TypeStat represents per-type resolution counts.
type TypeStat struct {
	Type       string `json:"type"`
	Count      int64  `json:"count"`
	TotalBytes int64  `json:"total_bytes"`
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite supports only one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	log.Infof("History store initialized at %s", dbPath)
	return store, nil
}

// migrate creates or updates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resolutions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		resolved_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		strategy      TEXT NOT NULL DEFAULT '',
		input_hint    TEXT NOT NULL DEFAULT '',
		payload_size  INTEGER NOT NULL DEFAULT 0,
		client_ip     TEXT NOT NULL DEFAULT '',
		duration_us   INTEGER NOT NULL DEFAULT 0,
		texture       INTEGER NOT NULL DEFAULT 0,
		resolved_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_resolutions_strategy ON resolutions(strategy);
	CREATE INDEX IF NOT EXISTS idx_resolutions_type     ON resolutions(resolved_type);
	CREATE INDEX IF NOT EXISTS idx_resolutions_time     ON resolutions(resolved_at);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	var count int
	_ = s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if count == 0 {
		_, _ = s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", 1)
	}

	return nil
}

// Record appends one resolution to the log.
func (s *Store) Record(ctx context.Context, resolvedType, strategy, inputHint, clientIP string, payloadSize int64, texture bool, took time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var textureInt int
	if texture {
		textureInt = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (resolved_type, strategy, input_hint, payload_size, client_ip, duration_us, texture, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, resolvedType, strategy, inputHint, payloadSize, clientIP, took.Microseconds(), textureInt, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}

	log.Debugf("History recorded: %s via %s (%d bytes)", resolvedType, strategy, payloadSize)
	return nil
}

// Recent returns resolutions matching the given query plus the total
// match count before limit/offset.
func (s *Store) Recent(ctx context.Context, q Query) ([]Resolution, int64, error) {
	where := "1=1"
	args := []interface{}{}

	if q.Strategy != "" {
		where += " AND strategy = ?"
		args = append(args, q.Strategy)
	}
	if q.Type != "" {
		where += " AND resolved_type LIKE ?"
		args = append(args, q.Type+"%")
	}
	if !q.Since.IsZero() {
		where += " AND resolved_at >= ?"
		args = append(args, q.Since)
	}
	if !q.Until.IsZero() {
		where += " AND resolved_at <= ?"
		args = append(args, q.Until)
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM resolutions WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count resolutions: %w", err)
	}

	orderBy := "resolved_at"
	orderDir := "DESC"
	switch q.OrderBy {
	case "payload_size", "duration_us", "resolved_type":
		orderBy = q.OrderBy
	}
	if q.OrderDir == "ASC" {
		orderDir = "ASC"
	}

	limit := 50
	if q.Limit > 0 && q.Limit <= 1000 {
		limit = q.Limit
	}
	offset := 0
	if q.Offset > 0 {
		offset = q.Offset
	}

	query := fmt.Sprintf(`
		SELECT id, resolved_type, strategy, input_hint, payload_size,
		       client_ip, duration_us, texture, resolved_at
		FROM resolutions
		WHERE %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, where, orderBy, orderDir)

	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var results []Resolution
	for rows.Next() {
		var r Resolution
		var textureInt int
		if err := rows.Scan(
			&r.ID, &r.Type, &r.Strategy, &r.InputHint, &r.PayloadSize,
			&r.ClientIP, &r.DurationUS, &textureInt, &r.ResolvedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		r.Texture = textureInt != 0
		results = append(results, r)
	}

	return results, total, nil
}

// GetStats returns aggregate statistics from the history log.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStrategy: make(map[string]int64),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(COUNT(*), 0), COALESCE(SUM(payload_size), 0), COUNT(DISTINCT resolved_type)
		FROM resolutions
	`).Scan(&stats.TotalResolutions, &stats.TotalBytes, &stats.UniqueTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy, COUNT(*) as cnt
		FROM resolutions
		GROUP BY strategy ORDER BY cnt DESC
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var strategy string
			var cnt int64
			if err := rows.Scan(&strategy, &cnt); err == nil {
				stats.ByStrategy[strategy] = cnt
			}
		}
	}

	typeRows, err := s.db.QueryContext(ctx, `
		SELECT resolved_type, COUNT(*) as cnt, COALESCE(SUM(payload_size), 0) as total_bytes
		FROM resolutions
		GROUP BY resolved_type
		ORDER BY cnt DESC
		LIMIT 10
	`)
	if err == nil {
		defer typeRows.Close()
		for typeRows.Next() {
			var ts TypeStat
			if err := typeRows.Scan(&ts.Type, &ts.Count, &ts.TotalBytes); err == nil {
				stats.TopTypes = append(stats.TopTypes, ts)
			}
		}
	}

	return stats, nil
}

// Purge permanently removes records older than the given age.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM resolutions WHERE resolved_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge history records: %w", err)
	}

	return result.RowsAffected()
}

// Close closes the history store.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
