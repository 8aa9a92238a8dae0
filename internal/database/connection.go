package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Type returns the configured database type: "sqlite" (default) or
// "postgres".
func Type() string {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}
	return dbType
}

// Connect establishes a connection to the database and initializes the
// schema.
func Connect() error {
	var db *sqlx.DB
	var err error

	switch Type() {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
	default:
		path := os.Getenv("DATABASE_PATH")
		if path == "" {
			dataDir := "data"
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %v", err)
			}
			path = filepath.Join(dataDir, "munje.db")
		}
		db, err = sqlx.Connect("sqlite3", path)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				handle TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				telegram_chat_id INTEGER,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`},
		{"questions", `
			CREATE TABLE IF NOT EXISTS questions (
				id TEXT PRIMARY KEY,
				author_id TEXT NOT NULL REFERENCES users(id),
				title TEXT NOT NULL,
				text TEXT NOT NULL,
				link TEXT,
				link_logo TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`},
		{"queues", `
			CREATE TABLE IF NOT EXISTS queues (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				starting_question_id TEXT NOT NULL REFERENCES questions(id),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(user_id, starting_question_id)
			)
		`},
		{"queue_questions", `
			CREATE TABLE IF NOT EXISTS queue_questions (
				id TEXT PRIMARY KEY,
				queue_id TEXT NOT NULL REFERENCES queues(id),
				question_id TEXT NOT NULL REFERENCES questions(id),
				created_at TEXT NOT NULL,
				UNIQUE(queue_id, question_id)
			)
		`},
		{"answers", `
			CREATE TABLE IF NOT EXISTS answers (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				queue_id TEXT NOT NULL REFERENCES queues(id),
				question_id TEXT NOT NULL REFERENCES questions(id),
				state TEXT NOT NULL,
				answered_at TEXT NOT NULL,
				consecutive_correct INTEGER NOT NULL,
				stage INTEGER NOT NULL,
				created_at TEXT NOT NULL
			)
		`},
		{"last_answers", `
			CREATE TABLE IF NOT EXISTS last_answers (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				queue_id TEXT NOT NULL REFERENCES queues(id),
				question_id TEXT NOT NULL REFERENCES questions(id),
				answer_id TEXT NOT NULL REFERENCES answers(id),
				state TEXT NOT NULL,
				answered_at TEXT NOT NULL,
				consecutive_correct INTEGER NOT NULL,
				stage INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(user_id, queue_id, question_id)
			)
		`},
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %v", stmt.name, err)
		}
	}
	return nil
}
