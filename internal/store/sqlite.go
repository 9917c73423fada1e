package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- Slots ---

const slotColumns = "id, name, group_id, room, threshold_days, last_change_at, created_at"

func scanSlot(row interface{ Scan(...any) error }) (domain.Slot, error) {
	var (
		s          domain.Slot
		lastChange string
		createdAt  int64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.GroupID, &s.Room, &s.ThresholdDays, &lastChange, &createdAt); err != nil {
		return domain.Slot{}, err
	}
	s.LastChangeAt = domain.ParseTime(lastChange)
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	return s, nil
}

// ListSlots returns every slot, ordered by creation time.
func (r *SQLiteRepo) ListSlots(ctx context.Context) ([]domain.Slot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// GetSlot returns a slot by id or ErrNotFound.
func (r *SQLiteRepo) GetSlot(ctx context.Context, id string) (domain.Slot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = ?`, id)
	s, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Slot{}, ErrNotFound
	}
	return s, err
}

// InsertSlot persists a new slot. The threshold invariant is enforced here
// as a last line of defense before the CHECK constraint.
func (r *SQLiteRepo) InsertSlot(ctx context.Context, s domain.Slot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO slots (`+slotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.GroupID, s.Room,
		domain.ClampThreshold(s.ThresholdDays),
		domain.FormatTime(s.LastChangeAt),
		s.CreatedAt.UTC().Unix(),
	)
	return err
}

// UpdateSlot overwrites the mutable fields of an existing slot.
func (r *SQLiteRepo) UpdateSlot(ctx context.Context, s domain.Slot) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE slots
		SET name = ?, room = ?, threshold_days = ?, last_change_at = ?
		WHERE id = ?`,
		s.Name, s.Room,
		domain.ClampThreshold(s.ThresholdDays),
		domain.FormatTime(s.LastChangeAt),
		s.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSlot removes a slot by id or returns ErrNotFound.
func (r *SQLiteRepo) DeleteSlot(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

// GetUser returns a user's preferences by actor id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, actorID int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT actor_id, tz, notify_hour, last_reminded_at, created_at
		FROM users
		WHERE actor_id = ?`, actorID)

	var (
		u         domain.User
		lastNS    sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&u.ActorID, &u.TZ, &u.NotifyHour, &lastNS, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	u.LastRemindedAt = fromNullInt64(lastNS)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}

// UpsertUser inserts or updates a user's preferences.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u domain.User) error {
	created := u.CreatedAt.UTC().Unix()
	if u.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (actor_id, tz, notify_hour, last_reminded_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET
			tz               = excluded.tz,
			notify_hour      = excluded.notify_hour,
			last_reminded_at = excluded.last_reminded_at`,
		u.ActorID, u.TZ, u.NotifyHour, toNullInt64(u.LastRemindedAt), created,
	)
	return err
}

// ListUsers returns every known user.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT actor_id, tz, notify_hour, last_reminded_at, created_at
		FROM users
		ORDER BY actor_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		var (
			u         domain.User
			lastNS    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&u.ActorID, &u.TZ, &u.NotifyHour, &lastNS, &createdAt); err != nil {
			return nil, err
		}
		u.LastRemindedAt = fromNullInt64(lastNS)
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// --- Memberships ---

// GroupsFor returns the group ids the actor is a member of.
func (r *SQLiteRepo) GroupsFor(ctx context.Context, actorID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_id
		FROM memberships
		WHERE actor_id = ?
		ORDER BY group_id ASC`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// AddMembership registers an actor in a group; re-adding is a no-op.
func (r *SQLiteRepo) AddMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (group_id, actor_id)
		VALUES (?, ?)
		ON CONFLICT(group_id, actor_id) DO NOTHING`,
		m.GroupID, m.ActorID,
	)
	return err
}

// --- Events ---

// AppendEvent writes an audit record. The log is append-only; nothing in
// the service reads it back.
func (r *SQLiteRepo) AppendEvent(ctx context.Context, e domain.Event) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (at, slot_id, action, actor_id, note)
		VALUES (?, ?, ?, ?, ?)`,
		at.UTC().Unix(), e.SlotID, e.Action, e.ActorID, e.Note,
	)
	return err
}
