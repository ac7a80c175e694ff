// Package migrations embeds the Postgres schema and applies it.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-engine/pkg/database"
	"inventory-engine/pkg/logger"
)

//go:embed *.sql
var files embed.FS

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is one NNNN_description.sql file.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var filePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Load returns the embedded migrations ordered by version.
func Load() ([]Migration, error) {
	return load(files)
}

func load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var out []Migration
	for _, entry := range entries {
		m := filePattern.FindStringSubmatch(entry.Name())
		if entry.IsDir() || m == nil {
			continue
		}
		version, _ := strconv.Atoi(m[1])

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		up, down := split(string(content))
		out = append(out, Migration{
			Version:     version,
			Description: strings.ReplaceAll(m[2], "_", " "),
			Up:          up,
			Down:        down,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// split separates the Up and Down sections. A file without markers is all Up.
func split(content string) (up, down string) {
	upIdx := strings.Index(content, upMarker)
	downIdx := strings.Index(content, downMarker)

	switch {
	case upIdx == -1:
		return strings.TrimSpace(content), ""
	case downIdx == -1:
		return strings.TrimSpace(content[upIdx+len(upMarker):]), ""
	case upIdx < downIdx:
		return strings.TrimSpace(content[upIdx+len(upMarker) : downIdx]),
			strings.TrimSpace(content[downIdx+len(downMarker):])
	default:
		return strings.TrimSpace(content[upIdx+len(upMarker):]),
			strings.TrimSpace(content[downIdx+len(downMarker) : upIdx])
	}
}

// Statements splits sql on semicolons outside quoted strings and drops
// comment-only fragments.
func Statements(sql string) []string {
	var (
		out      []string
		current  strings.Builder
		inString bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(stripComments(current.String())); stmt != "" {
			out = append(out, stmt)
		}
		current.Reset()
	}

	for _, ch := range sql {
		switch {
		case ch == '\'':
			inString = !inString
			current.WriteRune(ch)
		case ch == ';' && !inString:
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return out
}

func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

// Migrator applies migrations against a pool, recording them in
// schema_migrations.
type Migrator struct {
	pool       *pgxpool.Pool
	migrations []Migration
}

func NewMigrator(pool *pgxpool.Pool) (*Migrator, error) {
	ms, err := Load()
	if err != nil {
		return nil, err
	}
	return &Migrator{pool: pool, migrations: ms}, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied version, 0 when none.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	var v int
	if err := m.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("current schema version: %w", err)
	}
	return v, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns the ones applied.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}
		logger.Info("Applying migration", map[string]interface{}{"version": mig.Version, "description": mig.Description})

		err := database.WithTransaction(ctx, m.pool, func(tx pgx.Tx) error {
			for _, stmt := range Statements(mig.Up) {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`, mig.Version, mig.Description)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %04d: %w", mig.Version, err)
		}
		applied = append(applied, mig)
	}
	return applied, nil
}

// Down rolls back the latest applied migration.
func (m *Migrator) Down(ctx context.Context) (*Migration, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	if current == 0 {
		return nil, fmt.Errorf("no migrations to roll back")
	}

	for i := range m.migrations {
		mig := m.migrations[i]
		if mig.Version != current {
			continue
		}
		if mig.Down == "" {
			return nil, fmt.Errorf("migration %04d has no down section", mig.Version)
		}
		return database.WithTransactionResult(ctx, m.pool, func(tx pgx.Tx) (*Migration, error) {
			for _, stmt := range Statements(mig.Down) {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return nil, fmt.Errorf("rollback %04d: exec %q: %w", mig.Version, firstLine(stmt), err)
				}
			}
			if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version); err != nil {
				return nil, fmt.Errorf("rollback %04d: %w", mig.Version, err)
			}
			return &mig, nil
		})
	}
	return nil, fmt.Errorf("migration %04d not found", current)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
