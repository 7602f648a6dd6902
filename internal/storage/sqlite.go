package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/crypto-telemetry/internal/models"
)

// Journal is the optional sqlite record of submitted tasks. The in-memory
// registry stays authoritative; the journal exists so operators can audit
// what was asked for.
type Journal struct {
	db   *sql.DB
	path string
}

// NewJournal opens (or creates) the journal database.
func NewJournal(dbPath string) (*Journal, error) {
	// Connection string with WAL mode and normal synchronous
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	journal := &Journal{
		db:   db,
		path: dbPath,
	}

	if err := journal.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("task journal initialized")
	return journal, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

// migrate runs database migrations
func (j *Journal) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS price_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			exchange TEXT NOT NULL,
			trade_type TEXT NOT NULL,
			symbols TEXT NOT NULL,
			interval_ms INTEGER,
			percentage REAL,
			direction TEXT,
			process_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, task_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_price_tasks_user
		 ON price_tasks(user_id)`,

		`CREATE TABLE IF NOT EXISTS account_monitors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			exchange TEXT NOT NULL,
			trade_type TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, task_id)
		)`,
	}

	for _, migration := range migrations {
		if _, err := j.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// RecordPriceTask inserts one accepted price task. Resubmitting the same
// (user, task) pair overwrites the earlier row.
func (j *Journal) RecordPriceTask(task models.PriceTask) error {
	var (
		intervalMs sql.NullInt64
		percentage sql.NullFloat64
		direction  sql.NullString
	)
	if task.TimeProp != nil {
		intervalMs = sql.NullInt64{Int64: task.TimeProp.IntervalMs, Valid: true}
	}
	if task.PercentProp != nil {
		percentage = sql.NullFloat64{Float64: task.PercentProp.Percent, Valid: true}
		direction = sql.NullString{String: task.PercentProp.Direction.String(), Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO price_tasks
		(task_id, user_id, exchange, trade_type, symbols, interval_ms, percentage, direction, process_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskID, task.UserID, task.Exchange.String(), task.TradeType.String(),
		strings.Join(task.Tokens, ","), intervalMs, percentage, direction, task.ProcessID,
	)
	return err
}

// DeletePriceTask removes the journal row for one (user, task) pair.
func (j *Journal) DeletePriceTask(userID, taskID string) error {
	_, err := j.db.Exec(`DELETE FROM price_tasks WHERE user_id = ? AND task_id = ?`, userID, taskID)
	return err
}

// RecordAccountMonitor inserts one accepted account-monitor registration.
// Credentials are deliberately not persisted.
func (j *Journal) RecordAccountMonitor(task models.AccountTask) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO account_monitors (task_id, user_id, exchange, trade_type)
		VALUES (?, ?, ?, ?)`,
		task.TaskID, task.UserID, task.Exchange.String(), task.TradeType.String(),
	)
	return err
}

// CountPriceTasks reports the journaled task rows for one user.
func (j *Journal) CountPriceTasks(userID string) (int, error) {
	var count int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM price_tasks WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}
