package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect is a supported SQL backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case "", SQLite:
		return SQLite, nil
	case Postgres, "postgresql":
		return Postgres, nil
	case MySQL:
		return MySQL, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// DB wraps the SQL connection shared by the route and history stores.
type DB struct {
	conn    *sql.DB
	dialect Dialect

	clockMu sync.Mutex
	last    int64
}

// Open connects to dsn with the given dialect and runs migrations. For
// SQLite dsn is a file path; its directory is created when missing.
func Open(dialect Dialect, dsn string) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case SQLite:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		conn, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite only supports one writer
		conn.SetMaxOpenConns(1)
	case Postgres:
		conn, err = sql.Open("postgres", dsn)
	case MySQL:
		conn, err = sql.Open("mysql", dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (db *DB) rebind(q string) string {
	if db.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// now returns strictly increasing unix nanoseconds so rows written in the
// same instant still order by insertion.
func (db *DB) now() int64 {
	db.clockMu.Lock()
	defer db.clockMu.Unlock()
	t := time.Now().UnixNano()
	if t <= db.last {
		t = db.last + 1
	}
	db.last = t
	return t
}

func (db *DB) migrate() error {
	key, text := "TEXT", "TEXT"
	if db.dialect == MySQL {
		key, text = "VARCHAR(191)", "LONGTEXT"
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS routes (
			store_id ` + key + ` NOT NULL,
			route ` + key + ` NOT NULL,
			lg_content ` + text + ` NOT NULL,
			sm_content ` + text + ` NOT NULL,
			version ` + key + ` NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (store_id, route)
		)`,
		`CREATE TABLE IF NOT EXISTS history_nodes (
			id ` + key + ` PRIMARY KEY,
			doc_key ` + key + ` NOT NULL,
			parent_id ` + key + `,
			label ` + text + ` NOT NULL,
			command_json ` + text + ` NOT NULL,
			snapshot_json ` + text + ` NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS history_state (
			doc_key ` + key + ` PRIMARY KEY,
			current_node_id ` + key + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mcp_approvals (
			id ` + key + ` PRIMARY KEY,
			tool ` + key + ` NOT NULL,
			description ` + text + ` NOT NULL,
			status ` + key + ` NOT NULL,
			metadata ` + text + ` NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS
	if db.dialect == MySQL {
		migrations = append(migrations, `CREATE INDEX idx_history_nodes_doc ON history_nodes(doc_key)`)
	} else {
		migrations = append(migrations, `CREATE INDEX IF NOT EXISTS idx_history_nodes_doc ON history_nodes(doc_key)`)
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			if db.dialect == MySQL && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", strings.Join(strings.Fields(m), " ")[:40], err)
		}
	}
	return nil
}
