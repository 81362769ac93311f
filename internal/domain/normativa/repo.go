package normativa

import (
	"context"
)

// Filtro narrows table listings. A zero Tipo lists every family.
type Filtro struct {
	Tipo          Tipo
	SomenteAtivas bool
}

// TableRepository stores normative tables and their bands.
type TableRepository interface {
	// ListActive returns the active tables of a family ordered by id.
	ListActive(ctx context.Context, tipo Tipo) ([]*Tabela, error)
	List(ctx context.Context, f Filtro, limit, offset int) ([]*Tabela, int, error)
	// GetByID returns ErrTableNotFound for unknown ids.
	GetByID(ctx context.Context, id int64) (*Tabela, error)
	// ListNormas returns the table's bands ordered by id, with Campos of the
	// table family's concrete type.
	ListNormas(ctx context.Context, t *Tabela) ([]*Norma, error)
	// Replace inserts each table with its full band set under a new id and
	// deactivates every other active table of the same tipo, criterio and
	// valor_criterio. All tables commit together or not at all. Deactivated
	// tables keep their rows.
	Replace(ctx context.Context, lote ...Substituicao) error
}

// Substituicao is one table of a reseed batch.
type Substituicao struct {
	Tabela *Tabela
	Normas []*Norma
}
