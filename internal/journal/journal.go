package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	ModeFile = "file"
	ModeRepl = "repl"
)

// Run is one top-level unit of source: a script file or a REPL line.
type Run struct {
	ID          uuid.UUID
	Mode        string
	Source      string
	StartedAt   time.Time
	Duration    time.Duration
	ExitCode    int
	Diagnostics []string
}

// Journal records runs in a SQL database. Timestamps are stored as Unix
// nanoseconds and diagnostics as a JSON array so every driver round-trips
// them the same way.
type Journal struct {
	db     *sql.DB
	driver string
}

const createTable = `CREATE TABLE IF NOT EXISTS lox_runs (
	id          VARCHAR(36) PRIMARY KEY,
	mode        VARCHAR(16) NOT NULL,
	source      VARCHAR(1024) NOT NULL,
	started_at  BIGINT NOT NULL,
	duration_ns BIGINT NOT NULL,
	exit_code   INTEGER NOT NULL,
	diagnostics TEXT NOT NULL
)`

const insertRun = `INSERT INTO lox_runs
	(id, mode, source, started_at, duration_ns, exit_code, diagnostics)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

const selectRecent = `SELECT id, mode, source, started_at, duration_ns, exit_code, diagnostics
	FROM lox_runs ORDER BY started_at DESC LIMIT ?`

// DriverName maps a configured driver to the registered database/sql name.
func DriverName(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	case "mysql":
		return "mysql", nil
	case "postgres", "postgresql":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported journal driver: %s", driver)
	}
}

// Open connects, pings and makes sure the lox_runs table exists.
func Open(ctx context.Context, driver, dsn string) (*Journal, error) {
	name, err := DriverName(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if name == "sqlite3" {
		// an in-memory database lives only as long as its one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal table: %w", err)
	}

	slog.Debug("journal opened", slog.String("driver", name))
	return &Journal{db: db, driver: name}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts run, assigning an ID if it has none.
func (j *Journal) Record(ctx context.Context, run Run) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	diagnostics, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	_, err = j.db.ExecContext(ctx, j.rebind(insertRun),
		run.ID.String(),
		run.Mode,
		run.Source,
		run.StartedAt.UnixNano(),
		int64(run.Duration),
		run.ExitCode,
		string(diagnostics),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record run: %w", err)
	}

	slog.Debug("run recorded",
		slog.String("id", run.ID.String()),
		slog.String("mode", run.Mode),
		slog.Int("exit-code", run.ExitCode))
	return run.ID, nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, j.rebind(selectRecent), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			id          string
			run         Run
			startedAt   int64
			duration    int64
			diagnostics string
		)
		if err := rows.Scan(&id, &run.Mode, &run.Source, &startedAt, &duration, &run.ExitCode, &diagnostics); err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		run.StartedAt = time.Unix(0, startedAt)
		run.Duration = time.Duration(duration)
		if err := json.Unmarshal([]byte(diagnostics), &run.Diagnostics); err != nil {
			return nil, fmt.Errorf("invalid diagnostics for run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (j *Journal) rebind(query string) string {
	if j.driver != "postgres" {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}
