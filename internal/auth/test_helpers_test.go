package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the auth schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_login INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE refresh_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			token TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return db
}

// testIssuer returns a token issuer with fixed test secrets and short,
// distinct lifetimes.
func testIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	return NewTokenIssuer(
		"test-access-secret-0123456789abcdef",
		"test-refresh-secret-0123456789abcde",
		15*time.Minute,
		7*24*time.Hour,
	)
}

// seedTestUser inserts a user directly and returns it. The password is
// hashed with the minimum bcrypt cost to keep the suite fast.
func seedTestUser(t *testing.T, db *sql.DB, name, password string) *User {
	t.Helper()

	hash, err := HashPassword(password, 4)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}

	repo := NewUserRepository(db)
	user, err := repo.Create(context.Background(), name, hash)
	if err != nil {
		t.Fatalf("seeding test user %q: %v", name, err)
	}
	return user
}

// testService wires a service over a fresh test database with low-cost
// hashing.
func testService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db := testDB(t)
	svc := NewService(NewUserRepository(db), NewSessionRepository(db), testIssuer(t), 4, nil)
	return svc, db
}
