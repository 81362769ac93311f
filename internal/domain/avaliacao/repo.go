package avaliacao

import (
	"context"

	"github.com/google/uuid"
)

// ResultRepository stores scored administrations.
type ResultRepository interface {
	Create(ctx context.Context, r *Resultado) error
	// GetByID returns ErrResultNotFound for unknown ids.
	GetByID(ctx context.Context, id uuid.UUID) (*Resultado, error)
	// ListByAvaliacao returns every attempt of an evaluation, oldest first.
	ListByAvaliacao(ctx context.Context, avaliacaoID uuid.UUID) ([]*Resultado, error)
	// UpdateClassificacao rewrites the scoring outcome of r after a recompute.
	UpdateClassificacao(ctx context.Context, r *Resultado) error
}
