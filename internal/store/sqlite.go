package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/citas-notify/internal/model"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every pooled connection to ":memory:" would be a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveSnapshot replaces the cached rows of userID in one transaction.
func (s *SQLiteStore) SaveSnapshot(
	ctx context.Context,
	userID int64,
	items []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM notifications WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("clearing cached notifications of user %d: %w", userID, err)
	}

	const query = `
		INSERT OR REPLACE INTO notifications (
			user_id, id_notificacion, position,
			titulo, descripcion, leida, fecha_creacion,
			id_estudiante, id_psicologo
		) VALUES (
			?, ?, ?,
			?, ?, ?, ?,
			?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range items {
		_, err = stmt.ExecContext(ctx,
			userID, n.ID, i,
			n.Title, n.Description, boolToInt(n.Read), n.CreatedAt,
			nullInt64(n.StudentID), nullInt64(n.PsychologistID),
		)
		if err != nil {
			return fmt.Errorf("caching notification %d: %w", n.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, user_id, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET id = excluded.id, saved_at = excluded.saved_at`,
		uuid.New().String(), userID, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("recording snapshot of user %d: %w", userID, err)
	}

	return tx.Commit()
}

// LoadSnapshot returns the cached rows of userID in the order they were
// saved.
func (s *SQLiteStore) LoadSnapshot(
	ctx context.Context,
	userID int64,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id_notificacion, titulo, descripcion, leida, fecha_creacion,
			id_estudiante, id_psicologo
		FROM notifications
		WHERE user_id = ?
		ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}
	defer rows.Close()

	items := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}

	return items, rows.Err()
}

// ClearSnapshot removes the cached rows and metadata of userID.
func (s *SQLiteStore) ClearSnapshot(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM notifications WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("clearing cached notifications of user %d: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM snapshots WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("clearing snapshot of user %d: %w", userID, err)
	}

	return tx.Commit()
}

// SnapshotInfo returns metadata about the cached snapshot of userID.
func (s *SQLiteStore) SnapshotInfo(
	ctx context.Context,
	userID int64,
) (*SnapshotInfo, error) {
	var row struct {
		ID      string `db:"id"`
		UserID  int64  `db:"user_id"`
		SavedAt string `db:"saved_at"`
		Count   int    `db:"total"`
		Unread  int    `db:"unread"`
	}

	err := s.db.GetContext(ctx, &row, `
		SELECT s.id, s.user_id, s.saved_at,
			COUNT(n.id_notificacion) AS total,
			COALESCE(SUM(CASE WHEN n.leida = 0 THEN 1 ELSE 0 END), 0) AS unread
		FROM snapshots s
		LEFT JOIN notifications n ON n.user_id = s.user_id
		WHERE s.user_id = ?
		GROUP BY s.id, s.user_id, s.saved_at`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot info of user %d: %w", userID, err)
	}

	savedAt, err := time.Parse(time.RFC3339Nano, row.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot time %q: %w", row.SavedAt, err)
	}

	return &SnapshotInfo{
		ID:      row.ID,
		UserID:  row.UserID,
		Count:   row.Count,
		Unread:  row.Unread,
		SavedAt: savedAt,
	}, nil
}

// scanNotification scans a cached notification from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n              model.Notification
		read           int
		studentID      sql.NullInt64
		psychologistID sql.NullInt64
	)

	err := rows.Scan(
		&n.ID, &n.Title, &n.Description, &read, &n.CreatedAt,
		&studentID, &psychologistID,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Read = read != 0
	n.StudentID = int64Ptr(studentID)
	n.PsychologistID = int64Ptr(psychologistID)

	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
