package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SupabaseConfig holds Supabase connection configuration.
type SupabaseConfig struct {
	URL    string
	APIKey string
	// Timeout bounds each REST call. Defaults to 30s.
	Timeout time.Duration
}

// SupabaseStore reads and writes tables through the Supabase REST (PostgREST) API.
type SupabaseStore struct {
	cfg    SupabaseConfig
	client *http.Client
	logger zerolog.Logger
}

// NewSupabaseStore creates a Supabase store. Missing URL or key is not an error
// here; it is reported by Configured before any request is made.
func NewSupabaseStore(cfg SupabaseConfig, client *http.Client, logger zerolog.Logger) *SupabaseStore {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &SupabaseStore{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "SupabaseStore").Logger(),
	}
}

// Name implements TableStore.
func (s *SupabaseStore) Name() string { return "supabase" }

// Configured implements TableStore.
func (s *SupabaseStore) Configured() error {
	var missing []string
	if s.cfg.URL == "" {
		missing = append(missing, "url")
	}
	if s.cfg.APIKey == "" {
		missing = append(missing, "api key")
	}
	if len(missing) > 0 {
		return &ConfigError{Store: s.Name(), Missing: missing}
	}
	return nil
}

func (s *SupabaseStore) restURL(table string) string {
	return s.cfg.URL + "/rest/v1/" + url.PathEscape(table)
}

func (s *SupabaseStore) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
}

// Select implements TableStore.
func (s *SupabaseStore) Select(ctx context.Context, table string) ([]Row, error) {
	if err := s.Configured(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.restURL(table)+"?select=*&order=id", nil)
	if err != nil {
		return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Str("table", table).Msg("Supabase request failed.")
		return nil, &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error().Int("status", resp.StatusCode).Str("table", table).Msg("Supabase returned an error.")
		return nil, &QueryError{Store: s.Name(), Table: table, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var rows []Row
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, &QueryError{Store: s.Name(), Table: table, Err: fmt.Errorf("decode error: %w", err)}
	}
	if rows == nil {
		rows = []Row{}
	}
	s.logger.Debug().Str("table", table).Int("rows", len(rows)).Msg("Selected rows from Supabase.")
	return rows, nil
}

// Insert implements TableStore. Existing ids are merged.
func (s *SupabaseStore) Insert(ctx context.Context, table string, rows []Row) error {
	if err := s.Configured(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.restURL(table), bytes.NewReader(data))
	if err != nil {
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return &QueryError{Store: s.Name(), Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &QueryError{Store: s.Name(), Table: table, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	s.logger.Info().Str("table", table).Int("rows", len(rows)).Msg("Upserted rows into Supabase.")
	return nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (s *SupabaseStore) Close() error { return nil }
