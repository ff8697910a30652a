package resolver

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/toolprint/vibekit/pkg/agentkind"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// history logs every resolve_image attempt to a small audit table, the
// way the teacher's Boxer logs sandbox state to sand.db — generalized
// from a single embedded schema string to a migrations directory so the
// schema can evolve across releases.
type history struct {
	db *sql.DB
}

func newHistory(dbPath string) (*history, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolver: opening %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("resolver: enabling WAL mode: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &history{db: db}, nil
}

func applyMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("resolver: loading embedded migrations: %w", err)
	}
	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("resolver: attaching migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		return fmt.Errorf("resolver: constructing migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("resolver: applying migrations: %w", err)
	}
	return nil
}

func (h *history) Close() error {
	return h.db.Close()
}

// record logs one resolve_image attempt. Logging failures are reported to
// the caller but never override the actual resolve outcome.
func (h *history) record(kind agentkind.Kind, strategy, imageTag string, success bool, detail string, started, finished time.Time) error {
	_, err := h.db.Exec(
		`INSERT INTO resolve_history (agent_kind, strategy, image_tag, success, detail, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(kind), strategy, imageTag, success, detail, started, finished,
	)
	if err != nil {
		return fmt.Errorf("resolver: recording history: %w", err)
	}
	return nil
}

// Entry is one row of recorded resolve history, returned to callers that
// want to inspect prior build attempts (e.g. a future `local history` CLI
// command).
type Entry struct {
	AgentKind  agentkind.Kind
	Strategy   string
	ImageTag   string
	Success    bool
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recent returns the most recent history entries for an agent kind,
// newest first.
func (h *history) Recent(kind agentkind.Kind, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT agent_kind, strategy, image_tag, success, detail, started_at, finished_at
		 FROM resolve_history WHERE agent_kind = ? ORDER BY id DESC LIMIT ?`,
		string(kind), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("resolver: querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var k string
		if err := rows.Scan(&k, &e.Strategy, &e.ImageTag, &e.Success, &e.Detail, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("resolver: scanning history row: %w", err)
		}
		e.AgentKind = agentkind.Kind(k)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
