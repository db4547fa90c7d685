// Package session keeps per-user sessions and their prediction records.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/lungscreen/lungscreen/internal/domain/risk"
)

// Store persists sessions and their prediction slots. SavePrediction and
// ClearPrediction touch only the slot of the given kind.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)

	SavePrediction(ctx context.Context, id uuid.UUID, kind risk.Source, p *StoredPrediction) error
	ClearPrediction(ctx context.Context, id uuid.UUID, kind risk.Source) error
	Predictions(ctx context.Context, id uuid.UUID) (PredictionRecord, error)
}
