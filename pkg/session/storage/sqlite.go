package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"techaura/gatekeeper/pkg/session"
)

// SQLiteStore implements session.Store backed by SQLite with WAL mode.
// Suitable for single-instance deployments where sessions must survive
// restarts.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.Mutex
	closeOnce sync.Once

	getStmt    *sql.Stmt
	putStmt    *sql.Stmt
	deleteStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite session store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (and if needed creates) the session database.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		phone TEXT PRIMARY KEY,
		record TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`SELECT record FROM sessions WHERE phone = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.putStmt, err = s.db.Prepare(`
		INSERT INTO sessions (phone, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (phone) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`DELETE FROM sessions WHERE phone = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// Get returns the session for a phone, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, phone string) (*session.UserSession, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	var record string
	err := s.getStmt.QueryRowContext(ctx, phone).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess := &session.UserSession{}
	if err := json.Unmarshal([]byte(record), sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return sess, nil
}

// Put inserts or replaces a session keyed by phone.
func (s *SQLiteStore) Put(ctx context.Context, sess *session.UserSession) error {
	if sess == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if sess.Phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}
	if sess.ContactStatus != "" && !sess.ContactStatus.Valid() {
		return fmt.Errorf("invalid contact status %q", sess.ContactStatus)
	}
	return s.write(ctx, sess)
}

// TouchInteraction records an inbound message, creating the session on
// first contact. A customer writing in starts a fresh follow-up cycle.
func (s *SQLiteStore) TouchInteraction(ctx context.Context, phone string, at time.Time) (*session.UserSession, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = &session.UserSession{
			Phone:         phone,
			ContactStatus: session.StatusActive,
			CreatedAt:     at,
		}
	}

	sess.LastInteraction = at
	sess.FollowUpAttempts = 0
	sess.UpdatedAt = at

	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// RecordFollowUp records an outbound follow-up send.
func (s *SQLiteStore) RecordFollowUp(ctx context.Context, phone string, at time.Time) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, phone)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no session for phone %s", phone)
	}

	t := at
	sess.LastFollowUp = &t
	sess.FollowUpAttempts++
	if sess.CountWindowStart.IsZero() || at.Sub(sess.CountWindowStart) >= 24*time.Hour {
		sess.CountWindowStart = at
		sess.FollowUpCount24h = 0
	}
	sess.FollowUpCount24h++
	sess.UpdatedAt = at

	return s.write(ctx, sess)
}

// Delete removes a session. No-op when absent.
func (s *SQLiteStore) Delete(ctx context.Context, phone string) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}

	_, err := s.deleteStmt.ExecContext(ctx, phone)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the database handle. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		if s.getStmt != nil {
			s.getStmt.Close()
		}
		if s.putStmt != nil {
			s.putStmt.Close()
		}
		if s.deleteStmt != nil {
			s.deleteStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

func (s *SQLiteStore) write(ctx context.Context, sess *session.UserSession) error {
	record, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.putStmt.ExecContext(ctx, sess.Phone, string(record), sess.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
