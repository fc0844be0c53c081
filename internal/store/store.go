// Package store persists completed evaluations in PostgreSQL so past
// performances can be retrieved and compared.
package store

import (
	"context"
	"time"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/pipeline"
)

// EvaluationRecord is one persisted evaluation.
type EvaluationRecord struct {
	// ID is assigned by the database on save.
	ID string

	// Topic and Depth echo the request parameters.
	Topic string
	Depth pipeline.Depth

	// Transcript is the text with inline pause markers.
	Transcript string

	DurationSeconds float64
	WordsPerMinute  float64

	OverallScore float64
	Tier         evaluate.Tier

	// Breakdown maps components to their normalised 0-100 scores.
	Breakdown map[evaluate.Component]float64

	// Degraded maps components that ran degraded to the reason.
	Degraded map[evaluate.Component]string

	Strengths           []string
	AreasForImprovement []string
	Suggestions         []string

	CreatedAt time.Time
}

// NewRecord builds a record from a pipeline result and its request metadata.
func NewRecord(topic string, depth pipeline.Depth, ev *pipeline.Evaluation) *EvaluationRecord {
	return &EvaluationRecord{
		Topic:               topic,
		Depth:               depth,
		Transcript:          ev.Transcript,
		DurationSeconds:     ev.DurationSeconds,
		WordsPerMinute:      ev.WordsPerMinute,
		OverallScore:        ev.Result.OverallScore,
		Tier:                ev.Result.Tier,
		Breakdown:           ev.Result.Breakdown,
		Degraded:            ev.Result.Degraded,
		Strengths:           ev.Result.Strengths,
		AreasForImprovement: ev.Result.AreasForImprovement,
		Suggestions:         ev.Result.Suggestions,
	}
}

// Store is the persistence interface for evaluations.
type Store interface {
	// Save persists rec and fills in its ID and CreatedAt.
	Save(ctx context.Context, rec *EvaluationRecord) error

	// Get retrieves an evaluation by ID. Returns (nil, nil) when no
	// evaluation with the given ID exists.
	Get(ctx context.Context, id string) (*EvaluationRecord, error)

	// ListRecent returns the most recent evaluations, newest first.
	ListRecent(ctx context.Context, limit int) ([]EvaluationRecord, error)
}
