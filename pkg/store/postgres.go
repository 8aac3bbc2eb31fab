package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// PostgresConfig holds the connection string for a Postgres database.
type PostgresConfig struct {
	DSN string
}

// PostgresStore reads reference tables directly from Postgres.
type PostgresStore struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewPostgresStore opens (lazily) a Postgres connection pool. An empty DSN
// yields a store whose Configured reports the omission.
func NewPostgresStore(cfg PostgresConfig, logger zerolog.Logger) (*PostgresStore, error) {
	s := &PostgresStore{logger: logger.With().Str("component", "PostgresStore").Logger()}
	if cfg.DSN == "" {
		return s, nil
	}
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s.db = db
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing handle.
func NewPostgresStoreFromDB(db *sqlx.DB, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger.With().Str("component", "PostgresStore").Logger()}
}

// Name implements TableStore.
func (s *PostgresStore) Name() string { return "postgres" }

// Configured implements TableStore.
func (s *PostgresStore) Configured() error {
	if s.db == nil {
		return &ConfigError{Store: s.Name(), Missing: []string{"dsn"}}
	}
	return nil
}

// Select implements TableStore. Rows are ordered by id.
func (s *PostgresStore) Select(ctx context.Context, table string) ([]Row, error) {
	if err := s.Configured(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY id", pq.QuoteIdentifier(table))
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Str("table", table).Msg("Postgres select failed.")
		return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
		}
		for k, v := range m {
			m[k] = normalizeSQLValue(v)
		}
		out = append(out, Row(m))
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	return out, nil
}

// normalizeSQLValue turns driver byte slices into JSON documents or strings.
func normalizeSQLValue(v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(string(b))
	if (strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{")) && json.Valid(b) {
		return json.RawMessage(b)
	}
	return string(b)
}

// Insert implements TableStore as an upsert on id inside one transaction.
func (s *PostgresStore) Insert(ctx context.Context, table string, rows []Row) error {
	if err := s.Configured(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	columns := columnSet(rows)
	query := upsertQuery(table, columns)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	for _, row := range rows {
		args, err := sqlArgs(row, columns)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare row for %s: %w", table, err)
		}
		if _, err := tx.NamedExecContext(ctx, query, args); err != nil {
			_ = tx.Rollback()
			s.logger.Error().Err(err).Str("table", table).Msg("Postgres upsert failed.")
			return &QueryError{Store: s.Name(), Table: table, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	s.logger.Info().Str("table", table).Int("rows", len(rows)).Msg("Upserted rows into Postgres.")
	return nil
}

func columnSet(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

func upsertQuery(table string, columns []string) string {
	quoted := make([]string, len(columns))
	named := make([]string, len(columns))
	var updates []string
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
		named[i] = ":" + c
		if c != "id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted[i], quoted[i]))
		}
	}
	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) %s",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(named, ", "), conflict)
}

// sqlArgs maps a row onto named arguments; nested values are stored as JSON.
func sqlArgs(row Row, columns []string) (map[string]any, error) {
	args := make(map[string]any, len(columns))
	for _, c := range columns {
		switch v := row[c].(type) {
		case nil:
			args[c] = nil
		case json.Number:
			args[c] = v.String()
		case string, bool, int, int64, float64:
			args[c] = v
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c, err)
			}
			args[c] = string(data)
		}
	}
	return args, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
