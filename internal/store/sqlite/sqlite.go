package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
)

// schema is executed on every open; IF NOT EXISTS keeps it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS bubbles (
    id           TEXT PRIMARY KEY,
    time_zone_id TEXT NOT NULL,
    name         TEXT NOT NULL,
    temperature  TEXT NOT NULL DEFAULT '',
    local_time   TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL,
    refreshed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bubbles_name ON bubbles(name, id);

CREATE TABLE IF NOT EXISTS links (
    id                    TEXT PRIMARY KEY,
    bubble_a_id           TEXT NOT NULL REFERENCES bubbles(id) ON DELETE CASCADE,
    bubble_b_id           TEXT NOT NULL REFERENCES bubbles(id) ON DELETE CASCADE,
    time_difference_hours INTEGER NOT NULL,
    pair_key              TEXT NOT NULL UNIQUE,
    created_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_a ON links(bubble_a_id);
CREATE INDEX IF NOT EXISTS idx_links_b ON links(bubble_b_id);
`

const (
	bubbleColumns = `id, time_zone_id, name, temperature, local_time, created_at, refreshed_at`
	linkColumns   = `id, bubble_a_id, bubble_b_id, time_difference_hours, created_at`
)

// Store persists bubbles and links in a local SQLite database in WAL mode.
type Store struct {
	db *sql.DB
}

var _ store.Repository = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// dsn sets the pragmas on every connection the pool opens.
func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction detached from ctx cancellation, so a write
// that has started is either committed or rolled back as a whole.
func (s *Store) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx = context.WithoutCancel(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Bubble methods
// ─────────────────────────────────────────────────────────────────

// SaveBubble upserts a bubble. Updating in place keeps its links.
func (s *Store) SaveBubble(ctx context.Context, b *domain.Bubble) error {
	const q = `
		INSERT INTO bubbles (` + bubbleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			time_zone_id = excluded.time_zone_id,
			name         = excluded.name,
			temperature  = excluded.temperature,
			local_time   = excluded.local_time,
			created_at   = excluded.created_at,
			refreshed_at = excluded.refreshed_at`

	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			b.ID, b.TimeZoneID, b.Name, b.Temperature, b.LocalTime,
			formatTime(b.CreatedAt), formatTime(b.RefreshedAt))
		if err != nil {
			return fmt.Errorf("sqlite: save bubble %q: %w", b.ID, err)
		}
		return nil
	})
}

// GetBubble retrieves a bubble by ID.
func (s *Store) GetBubble(ctx context.Context, id string) (*domain.Bubble, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bubbleColumns+` FROM bubbles WHERE id = ?`, id)
	b, err := scanBubble(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get bubble %q: %w", id, err)
	}
	return b, nil
}

// ListBubbles returns all bubbles ordered by name.
func (s *Store) ListBubbles(ctx context.Context) ([]*domain.Bubble, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bubbleColumns+` FROM bubbles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list bubbles: %w", err)
	}
	defer rows.Close()

	bubbles := []*domain.Bubble{}
	for rows.Next() {
		b, err := scanBubble(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan bubble: %w", err)
		}
		bubbles = append(bubbles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list bubbles: %w", err)
	}
	store.SortBubbles(bubbles)
	return bubbles, nil
}

// DeleteBubble removes a bubble and every link touching it.
func (s *Store) DeleteBubble(ctx context.Context, id string) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM links WHERE bubble_a_id = ? OR bubble_b_id = ?`, id, id); err != nil {
			return fmt.Errorf("sqlite: delete links of bubble %q: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM bubbles WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: delete bubble %q: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bubble %s: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────
// Link methods
// ─────────────────────────────────────────────────────────────────

// SaveLink stores a link; the unordered pair must not be linked yet.
func (s *Store) SaveLink(ctx context.Context, l *domain.Link) error {
	const q = `
		INSERT INTO links (` + linkColumns + `, pair_key)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bubble_a_id           = excluded.bubble_a_id,
			bubble_b_id           = excluded.bubble_b_id,
			time_difference_hours = excluded.time_difference_hours,
			pair_key              = excluded.pair_key,
			created_at            = excluded.created_at`

	key := l.PairKey()
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT id FROM links WHERE pair_key = ?`, key).Scan(&existing)
		switch {
		case err == nil && existing != l.ID:
			return fmt.Errorf("link %s: %w", key, domain.ErrDuplicateLink)
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("sqlite: check link pair %q: %w", key, err)
		}

		if _, err := tx.ExecContext(ctx, q,
			l.ID, l.BubbleAID, l.BubbleBID, l.TimeDifferenceHours, formatTime(l.CreatedAt), key); err != nil {
			return fmt.Errorf("sqlite: save link %q: %w", l.ID, err)
		}
		return nil
	})
}

// GetLink retrieves a link by ID.
func (s *Store) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get link %q: %w", id, err)
	}
	return l, nil
}

// LinkForPair retrieves the link joining a and b in either order.
func (s *Store) LinkForPair(ctx context.Context, a, b string) (*domain.Link, error) {
	key := domain.PairKey(a, b)
	row := s.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE pair_key = ?`, key)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get link pair %q: %w", key, err)
	}
	return l, nil
}

// ListLinks returns all links ordered by creation.
func (s *Store) ListLinks(ctx context.Context) ([]*domain.Link, error) {
	return s.queryLinks(ctx, `SELECT `+linkColumns+` FROM links`)
}

// LinksForBubble returns the links touching bubbleID.
func (s *Store) LinksForBubble(ctx context.Context, bubbleID string) ([]*domain.Link, error) {
	return s.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE bubble_a_id = ? OR bubble_b_id = ?`, bubbleID, bubbleID)
}

func (s *Store) queryLinks(ctx context.Context, q string, args ...any) ([]*domain.Link, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list links: %w", err)
	}
	defer rows.Close()

	links := []*domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list links: %w", err)
	}
	// created_at is text; sort on the parsed times.
	store.SortLinks(links)
	return links, nil
}

// DeleteLink removes a link.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: delete link %q: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// DeleteLinksForBubble removes every link touching bubbleID.
func (s *Store) DeleteLinksForBubble(ctx context.Context, bubbleID string) (int, error) {
	var removed int64
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM links WHERE bubble_a_id = ? OR bubble_b_id = ?`, bubbleID, bubbleID)
		if err != nil {
			return fmt.Errorf("sqlite: delete links of bubble %q: %w", bubbleID, err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: count deleted links: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// ─────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func scanBubble(sc scanner) (*domain.Bubble, error) {
	var (
		b                  domain.Bubble
		created, refreshed string
	)
	if err := sc.Scan(&b.ID, &b.TimeZoneID, &b.Name, &b.Temperature, &b.LocalTime, &created, &refreshed); err != nil {
		return nil, err
	}
	var err error
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.RefreshedAt, err = parseTime(refreshed); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanLink(sc scanner) (*domain.Link, error) {
	var (
		l       domain.Link
		created string
	)
	if err := sc.Scan(&l.ID, &l.BubbleAID, &l.BubbleBID, &l.TimeDifferenceHours, &created); err != nil {
		return nil, err
	}
	var err error
	if l.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &l, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
