package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fomalhaut/cclogs/internal/observability"
	"github.com/fomalhaut/cclogs/internal/query"
)

// Store wraps a GORM connection and executes the lowerer's generated
// statements through its raw-SQL escape hatch.
type Store struct {
	DB *gorm.DB
}

// Open connects to Postgres when dsn is a postgres:// or postgresql:// URL,
// to an in-memory SQLite database when dsn is empty, or to SQLite at dsn
// (including ":memory:") otherwise — mirroring the teacher's devserver
// db-selection flag, but inferred from the DSN shape instead of a separate
// flag since config.toml carries a single postgres_url.
func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch {
	case dsn == "":
		dialector = sqlite.Open(":memory:")
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Store{DB: db}, nil
}

// Migrate creates the messages/aliases tables and, on Postgres, the
// supporting indexes the lowerer's generated queries rely on (a GIN index
// over the tsvector expression, and a composite index backing the
// supersession delete). SQLite test databases skip the Postgres-only index
// statements.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(&Message{}, &Alias{}); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}

	if s.DB.Dialector.Name() != "postgres" {
		return nil
	}

	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_messages_fts ON messages USING GIN (to_tsvector('russian', msg_body))`,
		`CREATE INDEX IF NOT EXISTS idx_messages_date_offset ON messages ((msg_timestamp::date), msg_offset)`,
	}
	for _, stmt := range statements {
		if err := s.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("store: migrate index: %w", err)
		}
	}
	return nil
}

// RegisterObservability wires GORM query-tracing callbacks and the
// Server-Timing callbacks (one "db" metric per operation) onto the
// underlying connection.
func (s *Store) RegisterObservability(cfg *observability.Config) error {
	if err := observability.RegisterGORMCallbacks(s.DB, cfg); err != nil {
		return fmt.Errorf("store: register gorm callbacks: %w", err)
	}
	if err := observability.RegisterServerTimingCallbacks(s.DB); err != nil {
		return fmt.Errorf("store: register server timing callbacks: %w", err)
	}
	return nil
}

// MessageRow is the shape returned by Search; it mirrors lower.go's
// searchSelectColumns column list.
type MessageRow struct {
	ID        int32     `gorm:"column:msg_id" json:"id"`
	Offset    int32     `gorm:"column:msg_offset" json:"offset"`
	Author    string    `gorm:"column:msg_author" json:"author"`
	Body      string    `gorm:"column:msg_body" json:"body"`
	Timestamp time.Time `gorm:"column:msg_timestamp" json:"timestamp"`
}

// Search executes a lowered search query and scans the result rows.
func (s *Store) Search(ctx context.Context, lq *query.LoweredQuery) ([]MessageRow, error) {
	var rows []MessageRow
	if err := s.DB.WithContext(ctx).Raw(lq.SQL, lq.Bindings...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return rows, nil
}

// Count executes a lowered count query and returns its total,
// distinct-raw-author and distinct-canonical-author figures.
func (s *Store) Count(ctx context.Context, lq *query.LoweredQuery) (query.CountResult, error) {
	var res query.CountResult
	if err := s.DB.WithContext(ctx).Raw(lq.SQL, lq.Bindings...).Scan(&res).Error; err != nil {
		return query.CountResult{}, fmt.Errorf("store: count: %w", err)
	}
	return res, nil
}

// AuthorCount is one row of a Top query's result.
type AuthorCount struct {
	Author string `gorm:"column:canonical_author"`
	Count  int64  `gorm:"column:cnt"`
}

// Top executes a lowered top-authors query and scans the result rows.
func (s *Store) Top(ctx context.Context, lq *query.LoweredQuery) ([]AuthorCount, error) {
	var rows []AuthorCount
	if err := s.DB.WithContext(ctx).Raw(lq.SQL, lq.Bindings...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: top: %w", err)
	}
	return rows, nil
}

// DatesWithMessages returns every distinct UTC date that has at least one
// message, ascending. It backs the dates cache's populate path.
func (s *Store) DatesWithMessages(ctx context.Context) ([]time.Time, error) {
	var dates []time.Time
	err := s.DB.WithContext(ctx).
		Raw(`SELECT DISTINCT msg_timestamp::date AS d FROM messages ORDER BY d`).
		Scan(&dates).Error
	if err != nil {
		return nil, fmt.Errorf("store: dates: %w", err)
	}
	return dates, nil
}

// MessagesOnDate returns every message for the given UTC date, ordered by
// offset, for the plain daily-log views (/logs/{date}, /logs/latest, /{date}).
func (s *Store) MessagesOnDate(ctx context.Context, date time.Time) ([]MessageRow, error) {
	var rows []MessageRow
	err := s.DB.WithContext(ctx).
		Raw(`SELECT msg_id, msg_offset, msg_author, msg_body, msg_timestamp
		     FROM messages
		     WHERE msg_timestamp::date = ?
		     ORDER BY msg_offset`, date.Format("2006-01-02")).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: messages on date: %w", err)
	}
	return rows, nil
}

// SupersedeDay deletes messages for date with an offset strictly greater
// than cutOffset and inserts the replacement rows in a single transaction,
// so callers never observe an intermediate gap. cutOffset of -1 deletes
// every row for the date, since every real offset is >= 0.
func (s *Store) SupersedeDay(ctx context.Context, date time.Time, cutOffset int32, rows []Message) error {
	dateStr := date.Format("2006-01-02")
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Exec(`DELETE FROM messages WHERE msg_timestamp::date = ? AND msg_channel = ? AND msg_offset > ?`,
			dateStr, DefaultChannel, cutOffset)
		if del.Error != nil {
			return fmt.Errorf("store: supersede delete: %w", del.Error)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("store: supersede insert: %w", err)
		}
		return nil
	})
}

// LatestMessage returns the offset and date of the most recently timestamped
// message, for resuming catch-up ingestion where it left off.
func (s *Store) LatestMessage(ctx context.Context) (offset int32, date time.Time, found bool, err error) {
	var row struct {
		Offset int32     `gorm:"column:msg_offset"`
		Date   time.Time `gorm:"column:d"`
	}
	tx := s.DB.WithContext(ctx).
		Raw(`SELECT msg_offset, msg_timestamp::date AS d FROM messages ORDER BY msg_timestamp DESC LIMIT 1`).
		Scan(&row)
	if tx.Error != nil {
		return 0, time.Time{}, false, fmt.Errorf("store: latest message: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return 0, time.Time{}, false, nil
	}
	return row.Offset, row.Date, true, nil
}
