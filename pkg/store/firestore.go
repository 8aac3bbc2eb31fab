package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds configuration for the Firestore client.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string // Optional: Path to a service account JSON file.
}

// NewFirestoreClient creates a Firestore client, using the credentials file when given
// and Application Default Credentials otherwise.
func NewFirestoreClient(ctx context.Context, cfg *FirestoreConfig, logger zerolog.Logger) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		logger.Error().Err(err).Str("project_id", cfg.ProjectID).Msg("Failed to create Firestore client.")
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return client, nil
}

// FirestoreStore treats each Firestore collection as a table whose documents are rows.
type FirestoreStore struct {
	client    *firestore.Client
	projectID string
	logger    zerolog.Logger
}

// NewFirestoreStore creates a new FirestoreStore. A nil client is accepted and
// reported by Configured.
func NewFirestoreStore(cfg *FirestoreConfig, client *firestore.Client, logger zerolog.Logger) *FirestoreStore {
	logger.Info().Str("project_id", cfg.ProjectID).Bool("client", client != nil).Msg("FirestoreStore initialized.")
	return &FirestoreStore{
		client:    client,
		projectID: cfg.ProjectID,
		logger:    logger.With().Str("component", "FirestoreStore").Logger(),
	}
}

// Name implements TableStore.
func (s *FirestoreStore) Name() string { return "firestore" }

// Configured implements TableStore.
func (s *FirestoreStore) Configured() error {
	var missing []string
	if s.projectID == "" {
		missing = append(missing, "project id")
	}
	if s.client == nil {
		missing = append(missing, "client")
	}
	if len(missing) > 0 {
		return &ConfigError{Store: s.Name(), Missing: missing}
	}
	return nil
}

// Select implements TableStore. Documents are ordered by document id; a
// document without an "id" field gets its document id.
func (s *FirestoreStore) Select(ctx context.Context, table string) ([]Row, error) {
	if err := s.Configured(); err != nil {
		return nil, err
	}
	iter := s.client.Collection(table).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	rows := []Row{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			s.logger.Error().Err(err).Str("table", table).Str("code", status.Code(err).String()).Msg("Failed to read Firestore collection.")
			return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
		}
		data := doc.Data()
		if _, ok := data["id"]; !ok {
			data["id"] = doc.Ref.ID
		}
		rows = append(rows, Row(data))
	}
	s.logger.Debug().Str("table", table).Int("rows", len(rows)).Msg("Successfully read collection from Firestore.")
	return rows, nil
}

// Insert implements TableStore by setting one document per row, keyed by id.
func (s *FirestoreStore) Insert(ctx context.Context, table string, rows []Row) error {
	if err := s.Configured(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(rows))
	for _, row := range rows {
		id, err := rowID(row)
		if err != nil {
			bw.End()
			return fmt.Errorf("firestore insert into %s: %w", table, err)
		}
		job, err := bw.Set(s.client.Collection(table).Doc(id), nativeValue(map[string]any(row)))
		if err != nil {
			bw.End()
			return &QueryError{Store: s.Name(), Table: table, Err: err}
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			s.logger.Error().Err(err).Str("table", table).Str("code", status.Code(err).String()).Msg("Failed to write document to Firestore.")
			return &QueryError{Store: s.Name(), Table: table, Err: err}
		}
	}
	s.logger.Info().Str("table", table).Int("rows", len(rows)).Msg("Wrote documents to Firestore.")
	return nil
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
