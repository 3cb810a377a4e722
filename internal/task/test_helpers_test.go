package task

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nboulfrad/taskforge/internal/auth"
)

// testDB creates a temporary SQLite database with the users and tasks
// schema applied. The database file is cleaned up when the test
// completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "task-test-*.db")
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

		CREATE TABLE tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_done INTEGER NOT NULL DEFAULT 0,
			owner_id INTEGER NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE task_collaborators (
			task_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			PRIMARY KEY (task_id, user_id),
			FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return db
}

// seedTestUser inserts a user account directly.
func seedTestUser(t *testing.T, db *sql.DB, name string) *auth.User {
	t.Helper()

	user, err := auth.NewUserRepository(db).Create(context.Background(), name, "test-hash")
	if err != nil {
		t.Fatalf("seeding test user %q: %v", name, err)
	}
	return user
}

// recordingNotifier captures task events for assertions.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) NotifyTaskEvent(event string, _ *Task) {
	n.events = append(n.events, event)
}

// testService wires a task service over a fresh test database. It
// returns the recording notifier so tests can assert on emitted events.
func testService(t *testing.T) (*Service, *sql.DB, *recordingNotifier) {
	t.Helper()
	db := testDB(t)
	notifier := &recordingNotifier{}
	svc := NewService(NewRepository(db), auth.NewUserRepository(db), notifier, nil)
	return svc, db, notifier
}
