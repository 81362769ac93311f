package normativa

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Catalog resolves which active normative table applies to an
// administration.
type Catalog struct {
	tables TableRepository
	logger zerolog.Logger
}

func NewCatalog(tables TableRepository, logger zerolog.Logger) *Catalog {
	return &Catalog{tables: tables, logger: logger}
}

// ListActiveTables returns every active table of a family ordered by id.
func (c *Catalog) ListActiveTables(ctx context.Context, tipo Tipo) ([]*Tabela, error) {
	f, ok := LookupFamilia(tipo)
	if !ok {
		return nil, &ConfigurationError{Tipo: tipo, Reason: "unknown test family", Err: ErrNoTableFound}
	}
	return c.tables.ListActive(ctx, f.Tipo)
}

// ResolveTable picks the active table for the family's most specific
// dimension the profile carries a value for, falling back to the Geral
// table. When several tables match the same value the highest id wins.
func (c *Catalog) ResolveTable(ctx context.Context, tipo Tipo, p Perfil) (*Tabela, error) {
	f, ok := LookupFamilia(tipo)
	if !ok {
		return nil, &ConfigurationError{Tipo: tipo, Reason: "unknown test family", Err: ErrNoTableFound}
	}
	tables, err := c.tables.ListActive(ctx, f.Tipo)
	if err != nil {
		return nil, err
	}

	var faltantes []Criterio
	for _, dim := range f.Dimensoes {
		var candidatas []*Tabela
		existe := false
		for _, t := range tables {
			if t.CriterioNormalizado() != dim {
				continue
			}
			existe = true
			if temValor(dim, p) && corresponde(t, dim, p) {
				candidatas = append(candidatas, t)
			}
		}
		if len(candidatas) > 0 {
			t := c.maisRecente(f.Tipo, dim, candidatas)
			c.avisarFallback(f.Tipo, faltantes, t)
			return t, nil
		}
		if existe && !temValor(dim, p) {
			faltantes = append(faltantes, dim)
		}
	}

	var gerais []*Tabela
	for _, t := range tables {
		if t.CriterioNormalizado() == CriterioGeral {
			gerais = append(gerais, t)
		}
	}
	if len(gerais) == 0 {
		return nil, &ConfigurationError{
			Tipo:   f.Tipo,
			Reason: "no active table matches the evaluation context and no active Geral table exists",
			Err:    ErrNoTableFound,
		}
	}
	t := c.maisRecente(f.Tipo, CriterioGeral, gerais)
	c.avisarFallback(f.Tipo, faltantes, t)
	return t, nil
}

// avisarFallback logs one context_fallback per criterion-specific dimension
// skipped for lack of a profile value, naming the table used instead.
func (c *Catalog) avisarFallback(tipo Tipo, faltantes []Criterio, t *Tabela) {
	for _, dim := range faltantes {
		c.logger.Warn().
			Str("event", "context_fallback").
			Str("tipo", string(tipo)).
			Str("dimension", string(dim)).
			Int64("tabela_id", t.ID).
			Msg("profile lacks attribute for a criterion-specific table")
	}
}

// ResolveQITable returns the active MIG table with criterio QI, or the MIG
// table resolved for the profile when none exists; in that case the QI
// conversion rows, if any, live alongside the percentile rows.
func (c *Catalog) ResolveQITable(ctx context.Context, p Perfil) (*Tabela, error) {
	tables, err := c.tables.ListActive(ctx, TipoMIG)
	if err != nil {
		return nil, err
	}
	var qi []*Tabela
	for _, t := range tables {
		if t.CriterioNormalizado() == CriterioQI {
			qi = append(qi, t)
		}
	}
	if len(qi) > 0 {
		return c.maisRecente(TipoMIG, CriterioQI, qi), nil
	}
	return c.ResolveTable(ctx, TipoMIG, p)
}

func (c *Catalog) maisRecente(tipo Tipo, dim Criterio, tables []*Tabela) *Tabela {
	best := tables[0]
	for _, t := range tables[1:] {
		if t.ID > best.ID {
			best = t
		}
	}
	if len(tables) > 1 {
		ids := make([]int64, 0, len(tables))
		for _, t := range tables {
			ids = append(ids, t.ID)
		}
		c.logger.Warn().
			Str("event", "table_ambiguous").
			Str("tipo", string(tipo)).
			Str("dimension", string(dim)).
			Ints64("candidates", ids).
			Int64("tabela_id", best.ID).
			Msg("several active tables match; using the most recent")
	}
	return best
}

func temValor(dim Criterio, p Perfil) bool {
	switch dim {
	case CriterioIdade:
		return p.Idade != nil
	case CriterioEscolaridade:
		_, ok := ParseEscolaridade(p.Escolaridade)
		return ok
	}
	return strings.TrimSpace(valorPerfil(dim, p)) != ""
}

func valorPerfil(dim Criterio, p Perfil) string {
	switch dim {
	case CriterioContexto:
		return p.Contexto
	case CriterioEstado:
		return p.Estado
	case CriterioTipoCNH:
		return p.TipoCNH
	case CriterioEscolaridade:
		return p.Escolaridade
	}
	return ""
}

// corresponde reports whether table t, whose criterio is dim, applies to the
// profile's value for dim.
func corresponde(t *Tabela, dim Criterio, p Perfil) bool {
	switch dim {
	case CriterioIdade:
		for _, s := range t.rotulos() {
			if fx, ok := parseFaixaEtaria(s); ok {
				return fx.Contem(float64(*p.Idade))
			}
		}
		return false
	case CriterioEscolaridade:
		tier, _ := ParseEscolaridade(p.Escolaridade)
		for _, s := range t.rotulos() {
			if tt, ok := ParseEscolaridade(s); ok {
				return tt == tier
			}
		}
		return false
	}

	want := valorPerfil(dim, p)
	if t.ValorCriterio != nil && strings.TrimSpace(*t.ValorCriterio) != "" {
		return fold(*t.ValorCriterio) == fold(want)
	}
	for _, s := range t.rotulos() {
		if contemTermo(s, want) {
			return true
		}
	}
	return false
}
