package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/pomodoro-flow/internal/config"
)

// mysqlSchema creates the tables with inline indexes; MySQL has no
// CREATE INDEX IF NOT EXISTS.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME     NOT NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS timer_sessions (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id      BIGINT UNSIGNED NOT NULL,
		session_type VARCHAR(16) NOT NULL,
		duration     INT         NOT NULL,
		completed    TINYINT(1)  NOT NULL DEFAULT 0,
		started_at   DATETIME    NOT NULL,
		completed_at DATETIME    NULL,
		KEY idx_timer_sessions_user_id (user_id),
		KEY idx_timer_sessions_started_at (started_at),
		CONSTRAINT chk_timer_sessions_type CHECK (session_type IN ('work','break')),
		CONSTRAINT chk_timer_sessions_duration CHECK (duration > 0),
		CONSTRAINT fk_timer_sessions_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS timetables (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id       BIGINT UNSIGNED NOT NULL,
		title         VARCHAR(255) NOT NULL,
		description   TEXT         NULL,
		schedule_date CHAR(10)     NULL,
		is_active     TINYINT(1)   NOT NULL DEFAULT 0,
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		KEY idx_timetables_user_id (user_id),
		KEY idx_timetables_date (schedule_date),
		CONSTRAINT fk_timetables_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS timetable_entries (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		timetable_id BIGINT UNSIGNED NOT NULL,
		day          VARCHAR(9)   NOT NULL,
		start_time   CHAR(5)      NOT NULL,
		end_time     CHAR(5)      NOT NULL,
		subject      VARCHAR(255) NOT NULL,
		is_break     TINYINT(1)   NOT NULL DEFAULT 0,
		KEY idx_timetable_entries_timetable_id (timetable_id),
		CONSTRAINT chk_timetable_entries_window CHECK (start_time < end_time),
		CONSTRAINT fk_timetable_entries_timetable FOREIGN KEY (timetable_id) REFERENCES timetables (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS auth_sessions (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_auth_sessions_token_hash (token_hash),
		KEY idx_auth_sessions_user_id (user_id),
		CONSTRAINT fk_auth_sessions_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS timer_sessions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		session_type TEXT    NOT NULL CHECK (session_type IN ('work','break')),
		duration     INTEGER NOT NULL CHECK (duration > 0),
		completed    BOOLEAN NOT NULL DEFAULT 0,
		started_at   DATETIME NOT NULL,
		completed_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS timetables (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id       INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		title         TEXT NOT NULL,
		description   TEXT,
		schedule_date TEXT,
		is_active     BOOLEAN NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS timetable_entries (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		timetable_id INTEGER NOT NULL REFERENCES timetables (id) ON DELETE CASCADE,
		day          TEXT NOT NULL,
		start_time   TEXT NOT NULL,
		end_time     TEXT NOT NULL,
		subject      TEXT NOT NULL,
		is_break     BOOLEAN NOT NULL DEFAULT 0,
		CHECK (start_time < end_time)
	)`,
	`CREATE TABLE IF NOT EXISTS auth_sessions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timer_sessions_user_id ON timer_sessions (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_timer_sessions_started_at ON timer_sessions (started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_timetables_user_id ON timetables (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_timetables_date ON timetables (schedule_date)`,
	`CREATE INDEX IF NOT EXISTS idx_timetable_entries_timetable_id ON timetable_entries (timetable_id)`,
	`CREATE INDEX IF NOT EXISTS idx_auth_sessions_user_id ON auth_sessions (user_id)`,
}

// Migrate creates every table and index for the given driver.  All
// statements are idempotent so it is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts := mysqlSchema
	if driver == config.DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
