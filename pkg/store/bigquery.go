package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQueryConfig holds configuration for a BigQuery dataset.
type BigQueryConfig struct {
	ProjectID       string
	DatasetID       string
	CredentialsFile string // Optional: Path to a service account JSON file.
}

// NewBigQueryClient creates a BigQuery client suitable for production environments.
func NewBigQueryClient(ctx context.Context, cfg *BigQueryConfig, logger zerolog.Logger) (*bigquery.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		logger.Info().Str("credentials_file", cfg.CredentialsFile).Msg("Using specified credentials file for BigQuery client.")
	} else {
		logger.Info().Msg("Using Application Default Credentials (ADC) for BigQuery client.")
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		logger.Error().Err(err).Str("project_id", cfg.ProjectID).Msg("Failed to create BigQuery client.")
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	logger.Info().Str("project_id", cfg.ProjectID).Msg("BigQuery client created successfully.")
	return client, nil
}

// BigQueryStore reads reference tables from a BigQuery dataset.
type BigQueryStore struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	logger    zerolog.Logger
}

// NewBigQueryStore creates a BigQueryStore. A nil client is accepted and reported by Configured.
func NewBigQueryStore(cfg *BigQueryConfig, client *bigquery.Client, logger zerolog.Logger) *BigQueryStore {
	return &BigQueryStore{
		client:    client,
		projectID: cfg.ProjectID,
		datasetID: cfg.DatasetID,
		logger:    logger.With().Str("component", "BigQueryStore").Logger(),
	}
}

// Name implements TableStore.
func (s *BigQueryStore) Name() string { return "bigquery" }

// Configured implements TableStore.
func (s *BigQueryStore) Configured() error {
	var missing []string
	if s.projectID == "" {
		missing = append(missing, "project id")
	}
	if s.datasetID == "" {
		missing = append(missing, "dataset id")
	}
	if s.client == nil {
		missing = append(missing, "client")
	}
	if len(missing) > 0 {
		return &ConfigError{Store: s.Name(), Missing: missing}
	}
	return nil
}

// SelectQuery returns the SQL used to read a whole table.
func (s *BigQueryStore) SelectQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM `%s.%s.%s` ORDER BY id", s.projectID, s.datasetID, table)
}

// Select implements TableStore.
func (s *BigQueryStore) Select(ctx context.Context, table string) ([]Row, error) {
	if err := s.Configured(); err != nil {
		return nil, err
	}
	it, err := s.client.Query(s.SelectQuery(table)).Read(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("table", table).Msg("BigQuery query failed.")
		return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
	}

	rows := []Row{}
	for {
		var values map[string]bigquery.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
		}
		row := make(Row, len(values))
		for k, v := range values {
			row[k] = v
		}
		rows = append(rows, row)
	}
	s.logger.Debug().Str("table", table).Int("rows", len(rows)).Msg("Read table from BigQuery.")
	return rows, nil
}

// MergeQuery returns the statement that upserts staging into table by id.
// Columns other than id are overwritten on a match.
func (s *BigQueryStore) MergeQuery(table, staging string, columns []string) string {
	quoted := make([]string, len(columns))
	sourced := make([]string, len(columns))
	var updates []string
	for i, c := range columns {
		quoted[i] = "`" + c + "`"
		sourced[i] = "S.`" + c + "`"
		if c != "id" {
			updates = append(updates, fmt.Sprintf("%s = %s", quoted[i], sourced[i]))
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "MERGE `%s.%s.%s` T USING `%s.%s.%s` S ON T.id = S.id",
		s.projectID, s.datasetID, table, s.projectID, s.datasetID, staging)
	if len(updates) > 0 {
		b.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(updates, ", "))
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		strings.Join(quoted, ", "), strings.Join(sourced, ", "))
	return b.String()
}

// encodeNDJSON writes one JSON object per row, as expected by a JSON load job.
func encodeNDJSON(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, row := range rows {
		if _, err := rowID(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := enc.Encode(nativeValue(row)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// mergeColumns keeps the row columns the target schema knows about.
func mergeColumns(rows []Row, schema bigquery.Schema) ([]string, error) {
	known := make(map[string]struct{}, len(schema))
	for _, f := range schema {
		known[f.Name] = struct{}{}
	}
	if _, ok := known["id"]; !ok {
		return nil, errors.New("table schema has no id column")
	}
	var columns []string
	for _, c := range columnSet(rows) {
		if _, ok := known[c]; ok {
			columns = append(columns, c)
		}
	}
	return columns, nil
}

type jobRunner interface {
	Run(ctx context.Context) (*bigquery.Job, error)
}

func runJob(ctx context.Context, r jobRunner) error {
	job, err := r.Run(ctx)
	if err != nil {
		return err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	return status.Err()
}

// Insert implements TableStore as an upsert keyed on id. Rows are loaded into
// a temporary staging table with the target's schema, then merged into the
// target. Columns missing from the target schema are ignored.
func (s *BigQueryStore) Insert(ctx context.Context, table string, rows []Row) error {
	if err := s.Configured(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	data, err := encodeNDJSON(rows)
	if err != nil {
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}

	dataset := s.client.Dataset(s.datasetID)
	meta, err := dataset.Table(table).Metadata(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("table", table).Msg("Failed to read BigQuery table metadata.")
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	columns, err := mergeColumns(rows, meta.Schema)
	if err != nil {
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}

	stagingName := table + "_staging_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	staging := dataset.Table(stagingName)
	defer func() {
		if err := staging.Delete(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("table", stagingName).Msg("Failed to delete BigQuery staging table.")
		}
	}()

	src := bigquery.NewReaderSource(bytes.NewReader(data))
	src.SourceFormat = bigquery.JSON
	src.Schema = meta.Schema
	src.IgnoreUnknownValues = true
	loader := staging.LoaderFrom(src)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.WriteDisposition = bigquery.WriteTruncate
	if err := runJob(ctx, loader); err != nil {
		s.logger.Error().Err(err).Str("table", table).Int("rows", len(rows)).Msg("Failed to load rows into BigQuery staging table.")
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}

	if err := runJob(ctx, s.client.Query(s.MergeQuery(table, stagingName, columns))); err != nil {
		s.logger.Error().Err(err).Str("table", table).Int("rows", len(rows)).Msg("Failed to merge rows into BigQuery.")
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	s.logger.Info().Str("table", table).Int("rows", len(rows)).Msg("Upserted rows into BigQuery.")
	return nil
}

// Close closes the BigQuery client.
func (s *BigQueryStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
