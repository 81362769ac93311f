package normativa

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

//go:embed seeds/*.json
var builtinSeeds embed.FS

// Seed is one authored table with its full band set.
type Seed struct {
	Tabela Tabela
	Normas []*Norma
}

// ParseSeeds decodes a seed document: a single table object or an array of
// them. Band columns are read by name from the family's column list.
func ParseSeeds(data []byte) ([]*Seed, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("seed is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	docs := []gjson.Result{doc}
	if doc.IsArray() {
		docs = doc.Array()
	}

	seeds := make([]*Seed, 0, len(docs))
	for i, d := range docs {
		s, err := parseSeed(d)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}

func parseSeed(d gjson.Result) (*Seed, error) {
	if !d.IsObject() {
		return nil, fmt.Errorf("expected an object")
	}
	f, ok := LookupFamilia(Tipo(d.Get("tipo").String()))
	if !ok {
		return nil, fmt.Errorf("unknown tipo %q", d.Get("tipo").String())
	}

	s := &Seed{Tabela: Tabela{
		Nome:     strings.TrimSpace(d.Get("nome").String()),
		Tipo:     f.Tipo,
		Versao:   d.Get("versao").String(),
		Criterio: d.Get("criterio").String(),
	}}
	if s.Tabela.Nome == "" {
		return nil, fmt.Errorf("nome is required")
	}
	if s.Tabela.Criterio == "" {
		s.Tabela.Criterio = string(CriterioGeral)
	}
	if v := d.Get("valor_criterio"); v.Exists() && v.Type != gjson.Null {
		str := v.String()
		s.Tabela.ValorCriterio = &str
	}
	if v := d.Get("descricao"); v.Exists() && v.Type != gjson.Null {
		str := v.String()
		s.Tabela.Descricao = &str
	}

	rows := d.Get("normas")
	if !rows.IsArray() || len(rows.Array()) == 0 {
		return nil, fmt.Errorf("%s: normas must be a non-empty array", s.Tabela.Nome)
	}
	for j, r := range rows.Array() {
		n, err := parseNorma(f, r)
		if err != nil {
			return nil, fmt.Errorf("%s: norma %d: %w", s.Tabela.Nome, j, err)
		}
		s.Normas = append(s.Normas, n)
	}
	return s, nil
}

func parseNorma(f *Familia, r gjson.Result) (*Norma, error) {
	pct := r.Get("percentil")
	if !pct.Exists() {
		return nil, fmt.Errorf("percentil is required")
	}
	n := &Norma{
		Percentil:     int(pct.Int()),
		Classificacao: strings.TrimSpace(r.Get("classificacao").String()),
		Campos:        f.NovosCampos(),
	}
	if n.Percentil < 0 || n.Percentil > 100 {
		return nil, fmt.Errorf("percentil %d out of range", n.Percentil)
	}
	if _, err := ParseClassificacao(n.Classificacao); err != nil {
		return nil, err
	}

	dest := n.Campos.dest()
	for i, col := range f.Colunas {
		v := r.Get(col)
		present := v.Exists() && v.Type != gjson.Null
		switch p := dest[i].(type) {
		case *string:
			*p = strings.TrimSpace(v.String())
		case *float64:
			if !present {
				return nil, fmt.Errorf("%s is required", col)
			}
			*p = v.Float()
		case **float64:
			if present {
				x := v.Float()
				*p = &x
			}
		case **int:
			if present {
				x := int(v.Int())
				*p = &x
			}
		}
	}
	if err := validarFaixas(n.Campos); err != nil {
		return nil, err
	}
	return n, nil
}

func validarFaixas(c NormaCampos) error {
	if ac, ok := c.(*CamposAC); ok {
		pares := []struct {
			nome   string
			lo, hi *float64
		}{
			{"fundamental", ac.FundamentalMin, ac.FundamentalMax},
			{"medio", ac.MedioMin, ac.MedioMax},
			{"superior", ac.SuperiorMin, ac.SuperiorMax},
		}
		for _, p := range pares {
			if (p.lo == nil) != (p.hi == nil) {
				return fmt.Errorf("%s range needs both min and max", p.nome)
			}
			if p.lo != nil && *p.lo > *p.hi {
				return fmt.Errorf("%s min %v exceeds max %v", p.nome, *p.lo, *p.hi)
			}
		}
		return nil
	}
	if fx, ok := c.Faixa(chaveDaLinha(c)); ok && fx.Min > fx.Max {
		return fmt.Errorf("min %v exceeds max %v", fx.Min, fx.Max)
	}
	return nil
}

// chaveDaLinha returns the key that selects row c itself.
func chaveDaLinha(c NormaCampos) Chave {
	switch v := c.(type) {
	case *CamposBPA2:
		return Chave{TipoAtencao: v.TipoAtencao, Criterio: v.Criterio, ValorCriterio: v.ValorCriterio}
	case *CamposRotas:
		return Chave{RotaTipo: v.RotaTipo}
	case *CamposMIG:
		return Chave{TipoAvaliacao: v.TipoAvaliacao}
	case *CamposMVT:
		return Chave{TipoCNH: v.TipoCNH}
	case *CamposR1:
		tier, _ := ParseEscolaridade(v.Escolaridade)
		return Chave{Escolaridade: tier}
	}
	return Chave{}
}

// Importer performs the offline batch reseed of normative tables.
type Importer struct {
	tables TableRepository
	logger zerolog.Logger
}

func NewImporter(tables TableRepository, logger zerolog.Logger) *Importer {
	return &Importer{tables: tables, logger: logger}
}

// Import stores every seed as a new active table, retiring the previous
// table for the same selection. The batch commits as a whole; on error no
// table is imported.
func (i *Importer) Import(ctx context.Context, seeds ...*Seed) ([]*Tabela, error) {
	out := make([]*Tabela, 0, len(seeds))
	lote := make([]Substituicao, 0, len(seeds))
	for _, s := range seeds {
		t := s.Tabela
		out = append(out, &t)
		lote = append(lote, Substituicao{Tabela: &t, Normas: s.Normas})
	}
	if err := i.tables.Replace(ctx, lote...); err != nil {
		return nil, fmt.Errorf("import %d tables, none applied: %w", len(seeds), err)
	}

	for _, sub := range lote {
		i.logger.Info().
			Str("tipo", string(sub.Tabela.Tipo)).
			Int64("tabela_id", sub.Tabela.ID).
			Str("criterio", sub.Tabela.Criterio).
			Str("valor_criterio", deref(sub.Tabela.ValorCriterio)).
			Int("normas", len(sub.Normas)).
			Msg("normative table imported")
	}
	return out, nil
}

// ImportAll parses data and imports every table it contains in one batch.
// Malformed documents wrap ErrInvalidInput.
func (i *Importer) ImportAll(ctx context.Context, data []byte) ([]*Tabela, error) {
	seeds, err := ParseSeeds(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return i.Import(ctx, seeds...)
}

// ImportBuiltin imports the embedded development sample set.
func (i *Importer) ImportBuiltin(ctx context.Context) ([]*Tabela, error) {
	seeds, err := BuiltinSeeds()
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, seeds...)
}

// BuiltinSeeds parses the embedded sample tables in file-name order.
func BuiltinSeeds() ([]*Seed, error) {
	names, err := fs.Glob(builtinSeeds, "seeds/*.json")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var out []*Seed
	for _, name := range names {
		data, err := builtinSeeds.ReadFile(name)
		if err != nil {
			return nil, err
		}
		seeds, err := ParseSeeds(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		out = append(out, seeds...)
	}
	return out, nil
}
