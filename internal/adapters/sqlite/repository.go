package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var _ ports.KlineRepository = (*Repository)(nil)

// Repository implements ports.KlineRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (creating when needed) the database and its schema.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/klines.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite kline store ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

// Times are stored as Unix milliseconds.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS klines (
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		open_time INTEGER NOT NULL,
		close_time INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		is_final INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (symbol, interval, open_time)
	);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveKlines upserts klines in a single transaction.
func (r *Repository) SaveKlines(ctx context.Context, klines []*domain.Kline) error {
	if len(klines) == 0 {
		return nil
	}
	const query = `
	INSERT INTO klines (symbol, interval, open_time, close_time, open, high, low, close, volume, is_final)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (symbol, interval, open_time) DO UPDATE SET
		close_time = excluded.close_time,
		open = excluded.open,
		high = excluded.high,
		low = excluded.low,
		close = excluded.close,
		volume = excluded.volume,
		is_final = excluded.is_final`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin kline transaction: %w: %v", ports.ErrUpdateFailed, err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare kline upsert: %w: %v", ports.ErrUpdateFailed, err)
	}
	defer stmt.Close()

	for _, k := range klines {
		if _, err := stmt.ExecContext(ctx,
			k.Symbol, k.Interval, k.OpenTime.UnixMilli(), k.CloseTime.UnixMilli(),
			k.Open, k.High, k.Low, k.Close, k.Volume, k.IsFinal,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert kline %s %s at %s: %w: %v",
				k.Symbol, k.Interval, k.OpenTime.Format(time.RFC3339), ports.ErrUpdateFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit klines: %w: %v", ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Klines saved", map[string]interface{}{
		"symbol": klines[0].Symbol, "interval": klines[0].Interval, "count": len(klines),
	})
	return nil
}

// FindKlines returns stored klines with open time in [start, end], ascending.
func (r *Repository) FindKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	const query = `
	SELECT symbol, interval, open_time, close_time, open, high, low, close, volume, is_final
	FROM klines
	WHERE symbol = ? AND interval = ? AND open_time BETWEEN ? AND ?
	ORDER BY open_time ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol, interval, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query klines for %s %s: %w: %v", symbol, interval, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	klines := make([]*domain.Kline, 0)
	for rows.Next() {
		var (
			k               domain.Kline
			openMs, closeMs int64
		)
		if err := rows.Scan(&k.Symbol, &k.Interval, &openMs, &closeMs,
			&k.Open, &k.High, &k.Low, &k.Close, &k.Volume, &k.IsFinal); err != nil {
			return nil, fmt.Errorf("failed to scan kline: %w: %v", ports.ErrQueryFailed, err)
		}
		k.OpenTime = time.UnixMilli(openMs).UTC()
		k.CloseTime = time.UnixMilli(closeMs).UTC()
		klines = append(klines, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kline rows: %w: %v", ports.ErrQueryFailed, err)
	}
	return klines, nil
}

// LatestOpenTime returns the newest stored open time for symbol and interval.
func (r *Repository) LatestOpenTime(ctx context.Context, symbol, interval string) (time.Time, error) {
	const query = `SELECT MAX(open_time) FROM klines WHERE symbol = ? AND interval = ?`

	var latest sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, symbol, interval).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest kline for %s %s: %w: %v", symbol, interval, ports.ErrQueryFailed, err)
	}
	if !latest.Valid {
		return time.Time{}, fmt.Errorf("no klines stored for %s %s: %w", symbol, interval, ports.ErrNotFound)
	}
	return time.UnixMilli(latest.Int64).UTC(), nil
}
