package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"techaura/gatekeeper/pkg/order"
)

// SQLiteRepository implements order.Repository backed by SQLite. The order
// history is stored as a JSON column; orders are small and read whole.
//
// The repository uses WAL mode and a single writer connection, which is
// sufficient for a single-instance bot deployment.
type SQLiteRepository struct {
	db        *sql.DB
	mu        sync.RWMutex
	closeOnce sync.Once

	saveStmt    *sql.Stmt
	findStmt    *sql.Stmt
	byPhoneStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite order repository.
type SQLiteConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteRepository opens (and if needed creates) the order database.
func NewSQLiteRepository(cfg SQLiteConfig) (*SQLiteRepository, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	repo := &SQLiteRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := repo.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (s *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		number TEXT PRIMARY KEY,
		phone TEXT NOT NULL,
		status TEXT NOT NULL,
		shipping_confirmed INTEGER NOT NULL DEFAULT 0,
		history TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_phone ON orders(phone);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteRepository) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO orders (number, phone, status, shipping_confirmed, history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (number) DO UPDATE SET
			phone = excluded.phone,
			status = excluded.status,
			shipping_confirmed = excluded.shipping_confirmed,
			history = excluded.history,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.findStmt, err = s.db.Prepare(`
		SELECT number, phone, status, shipping_confirmed, history, created_at, updated_at
		FROM orders
		WHERE number = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare find statement: %w", err)
	}

	s.byPhoneStmt, err = s.db.Prepare(`
		SELECT number, phone, status, shipping_confirmed, history, created_at, updated_at
		FROM orders
		WHERE phone = ?
		ORDER BY created_at DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare find-by-phone statement: %w", err)
	}

	return nil
}

// Save inserts or updates an order keyed by order number.
func (s *SQLiteRepository) Save(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order cannot be nil")
	}
	if o.Number == "" {
		return fmt.Errorf("order number cannot be empty")
	}

	historyJSON, err := json.Marshal(o.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	shipped := 0
	if o.ShippingConfirmed {
		shipped = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.saveStmt.ExecContext(ctx,
		o.Number,
		o.Phone,
		string(o.Status),
		shipped,
		string(historyJSON),
		o.CreatedAt.Unix(),
		o.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// Find returns the order with the given number, or nil when absent.
func (s *SQLiteRepository) Find(ctx context.Context, number string) (*order.Order, error) {
	if number == "" {
		return nil, fmt.Errorf("order number cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.findStmt.QueryRowContext(ctx, number)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return o, nil
}

// FindByPhone returns all orders for a phone, newest first.
func (s *SQLiteRepository) FindByPhone(ctx context.Context, phone string) ([]*order.Order, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.byPhoneStmt.QueryContext(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Close releases the database handle. Close is idempotent.
func (s *SQLiteRepository) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.findStmt != nil {
			s.findStmt.Close()
		}
		if s.byPhoneStmt != nil {
			s.byPhoneStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*order.Order, error) {
	var (
		number      string
		phone       string
		status      string
		shipped     int
		historyJSON sql.NullString
		createdAt   int64
		updatedAt   int64
	)

	if err := row.Scan(&number, &phone, &status, &shipped, &historyJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	o := &order.Order{
		Number:            number,
		Phone:             phone,
		Status:            order.Status(status),
		ShippingConfirmed: shipped != 0,
		CreatedAt:         time.Unix(createdAt, 0),
		UpdatedAt:         time.Unix(updatedAt, 0),
	}

	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &o.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}

	return o, nil
}
