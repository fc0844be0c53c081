package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the evaluations table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS evaluations (
    id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    topic            TEXT NOT NULL DEFAULT '',
    depth            TEXT NOT NULL DEFAULT 'standard',
    transcript       TEXT NOT NULL DEFAULT '',
    duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
    words_per_minute DOUBLE PRECISION NOT NULL DEFAULT 0,
    overall_score    DOUBLE PRECISION NOT NULL,
    tier             TEXT NOT NULL,
    breakdown        JSONB NOT NULL DEFAULT '{}',
    degraded         JSONB NOT NULL DEFAULT '{}',
    strengths        JSONB NOT NULL DEFAULT '[]',
    areas            JSONB NOT NULL DEFAULT '[]',
    suggestions      JSONB NOT NULL DEFAULT '[]',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at DESC);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. Structured
// sub-fields (breakdown, feedback lists) are serialised as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// evaluations table and index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Save implements [Store].
func (s *PostgresStore) Save(ctx context.Context, rec *EvaluationRecord) error {
	breakdownJSON, err := json.Marshal(emptyFloatMap(rec.Breakdown))
	if err != nil {
		return fmt.Errorf("store: marshal breakdown: %w", err)
	}
	degradedJSON, err := json.Marshal(emptyStringMap(rec.Degraded))
	if err != nil {
		return fmt.Errorf("store: marshal degraded: %w", err)
	}
	strengthsJSON, err := json.Marshal(emptySlice(rec.Strengths))
	if err != nil {
		return fmt.Errorf("store: marshal strengths: %w", err)
	}
	areasJSON, err := json.Marshal(emptySlice(rec.AreasForImprovement))
	if err != nil {
		return fmt.Errorf("store: marshal areas: %w", err)
	}
	suggestionsJSON, err := json.Marshal(emptySlice(rec.Suggestions))
	if err != nil {
		return fmt.Errorf("store: marshal suggestions: %w", err)
	}

	const query = `
		INSERT INTO evaluations (
			topic, depth, transcript, duration_seconds, words_per_minute,
			overall_score, tier, breakdown, degraded, strengths, areas, suggestions
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at`

	err = s.db.QueryRow(ctx, query,
		rec.Topic, string(rec.Depth), rec.Transcript, rec.DurationSeconds, rec.WordsPerMinute,
		rec.OverallScore, string(rec.Tier), breakdownJSON, degradedJSON,
		strengthsJSON, areasJSON, suggestionsJSON,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, topic, depth, transcript, duration_seconds, words_per_minute,
	       overall_score, tier, breakdown, degraded, strengths, areas,
	       suggestions, created_at
	FROM evaluations`

// Get implements [Store].
func (s *PostgresStore) Get(ctx context.Context, id string) (*EvaluationRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get %q: %w", id, err)
	}
	return rec, nil
}

// ListRecent implements [Store].
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]EvaluationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var recs []EvaluationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return recs, nil
}

// scanRecord reads one row into an [EvaluationRecord], deserialising the
// JSONB columns.
func scanRecord(row pgx.Row) (*EvaluationRecord, error) {
	var rec EvaluationRecord
	var breakdownJSON, degradedJSON, strengthsJSON, areasJSON, suggestionsJSON []byte

	err := row.Scan(
		&rec.ID, &rec.Topic, &rec.Depth, &rec.Transcript,
		&rec.DurationSeconds, &rec.WordsPerMinute,
		&rec.OverallScore, &rec.Tier,
		&breakdownJSON, &degradedJSON, &strengthsJSON, &areasJSON,
		&suggestionsJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(breakdownJSON, &rec.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	if err := json.Unmarshal(degradedJSON, &rec.Degraded); err != nil {
		return nil, fmt.Errorf("unmarshal degraded: %w", err)
	}
	if err := json.Unmarshal(strengthsJSON, &rec.Strengths); err != nil {
		return nil, fmt.Errorf("unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal(areasJSON, &rec.AreasForImprovement); err != nil {
		return nil, fmt.Errorf("unmarshal areas: %w", err)
	}
	if err := json.Unmarshal(suggestionsJSON, &rec.Suggestions); err != nil {
		return nil, fmt.Errorf("unmarshal suggestions: %w", err)
	}
	return &rec, nil
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyFloatMap[K ~string](m map[K]float64) map[K]float64 {
	if m == nil {
		return map[K]float64{}
	}
	return m
}

func emptyStringMap[K ~string](m map[K]string) map[K]string {
	if m == nil {
		return map[K]string{}
	}
	return m
}
