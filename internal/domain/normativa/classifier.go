package normativa

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Aviso is a data-quality finding raised while classifying. Classification
// still succeeds.
type Aviso struct {
	Evento   string
	Mensagem string
	NormaIDs []int64
}

const (
	EventoLacuna       = "norm_gap"
	EventoSobreposicao = "norm_overlap"
	EventoFallback     = "context_fallback"
)

// Classifier maps composite scores onto the bands of a resolved table.
type Classifier struct {
	tables TableRepository
	logger zerolog.Logger
}

func NewClassifier(tables TableRepository, logger zerolog.Logger) *Classifier {
	return &Classifier{tables: tables, logger: logger}
}

// Chave builds the row-subset key of one administration against table t.
func (c *Classifier) Chave(ctx context.Context, t *Tabela, subteste string, p Perfil) (Chave, error) {
	f, ok := LookupFamilia(t.Tipo)
	if !ok {
		return Chave{}, &ConfigurationError{Tipo: t.Tipo, Reason: "unknown test family"}
	}
	var normas []*Norma
	if f.Tipo == TipoBPA2 {
		var err error
		if normas, err = c.tables.ListNormas(ctx, t); err != nil {
			return Chave{}, fmt.Errorf("load norms of table %d: %w", t.ID, err)
		}
	}
	return f.Chave(normas, subteste, p), nil
}

// Classify returns the band of table t that score falls into for key k.
func (c *Classifier) Classify(ctx context.Context, t *Tabela, k Chave, score float64) (*Classificado, error) {
	normas, err := c.tables.ListNormas(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("load norms of table %d: %w", t.ID, err)
	}
	res, avisos, err := Classificar(t, normas, k, score)
	c.log(t, k, score, avisos)
	return res, err
}

// ConvertQI performs the MIG hit-count to QI lookup against the "qi" rows of
// table t. It reports false when the table has no such rows.
func (c *Classifier) ConvertQI(ctx context.Context, t *Tabela, acertos float64) (*Classificado, bool, error) {
	normas, err := c.tables.ListNormas(ctx, t)
	if err != nil {
		return nil, false, fmt.Errorf("load norms of table %d: %w", t.ID, err)
	}
	k := Chave{TipoAvaliacao: TipoAvaliacaoQI}
	var qi []*Norma
	for _, n := range normas {
		if m, ok := n.Campos.(*CamposMIG); ok && fold(m.TipoAvaliacao) == TipoAvaliacaoQI {
			qi = append(qi, n)
		}
	}
	if len(qi) == 0 {
		return nil, false, nil
	}
	res, avisos, err := Classificar(t, qi, k, acertos)
	c.log(t, k, acertos, avisos)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (c *Classifier) log(t *Tabela, k Chave, score float64, avisos []Aviso) {
	for _, a := range avisos {
		c.logger.Warn().
			Str("event", a.Evento).
			Str("tipo", string(t.Tipo)).
			Int64("tabela_id", t.ID).
			Float64("score", score).
			Str("dimension", k.String()).
			Ints64("normas", a.NormaIDs).
			Msg(a.Mensagem)
	}
}

func (k Chave) String() string {
	var parts []string
	add := func(name, v string) {
		if v != "" {
			parts = append(parts, name+"="+v)
		}
	}
	add("escolaridade", string(k.Escolaridade))
	add("rota_tipo", k.RotaTipo)
	add("tipo_atencao", k.TipoAtencao)
	add("criterio", k.Criterio)
	add("valor_criterio", k.ValorCriterio)
	add("tipo_cnh", k.TipoCNH)
	add("tipo_avaliacao", k.TipoAvaliacao)
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

type banda struct {
	norma *Norma
	faixa Faixa
}

// Classificar is the pure band lookup. Bands are ordered by (min, max, id)
// and the first one containing score wins. Scores below every band take the
// lowest-percentile band, scores above every band the highest-percentile
// band, and scores in a gap the band with the nearest midpoint.
func Classificar(t *Tabela, normas []*Norma, k Chave, score float64) (*Classificado, []Aviso, error) {
	var avisos []Aviso

	bandas := selecionar(normas, k)
	if len(bandas) == 0 {
		var genericas []*Norma
		for _, n := range normas {
			if n.Campos != nil && n.Campos.Generica() {
				genericas = append(genericas, n)
			}
		}
		bandas = selecionar(genericas, Chave{})
		if len(bandas) > 0 {
			avisos = append(avisos, Aviso{
				Evento:   EventoFallback,
				Mensagem: "no bands for the requested key; using rows without a key",
			})
		}
	}
	if len(bandas) == 0 {
		reason := fmt.Sprintf("table %d (%s) has no bands for %s", t.ID, t.Nome, k)
		if k == (Chave{}) {
			reason += "; the evaluation context lacks the attribute that selects its bands"
		}
		return nil, avisos, &ConfigurationError{Tipo: t.Tipo, Reason: reason}
	}

	sort.Slice(bandas, func(i, j int) bool {
		a, b := bandas[i], bandas[j]
		if a.faixa.Min != b.faixa.Min {
			return a.faixa.Min < b.faixa.Min
		}
		if a.faixa.Max != b.faixa.Max {
			return a.faixa.Max < b.faixa.Max
		}
		return a.norma.ID < b.norma.ID
	})

	for i := 1; i < len(bandas); i++ {
		if bandas[i].faixa.Min <= bandas[i-1].faixa.Max {
			avisos = append(avisos, Aviso{
				Evento:   EventoSobreposicao,
				Mensagem: "overlapping bands",
				NormaIDs: []int64{bandas[i-1].norma.ID, bandas[i].norma.ID},
			})
		}
	}

	for _, b := range bandas {
		if b.faixa.Contem(score) {
			return resultado(t, b.norma, AjusteNenhum), avisos, nil
		}
	}

	menor, maior := bandas[0].faixa.Min, bandas[0].faixa.Max
	for _, b := range bandas[1:] {
		maior = math.Max(maior, b.faixa.Max)
	}

	switch {
	case score < menor:
		piso := bandas[0]
		for _, b := range bandas[1:] {
			if b.norma.Percentil < piso.norma.Percentil {
				piso = b
			}
		}
		return resultado(t, piso.norma, AjustePiso), avisos, nil
	case score > maior:
		teto := bandas[0]
		for _, b := range bandas[1:] {
			if b.norma.Percentil >= teto.norma.Percentil {
				teto = b
			}
		}
		return resultado(t, teto.norma, AjusteTeto), avisos, nil
	}

	perto := bandas[0]
	dist := math.Abs(score - perto.faixa.meio())
	for _, b := range bandas[1:] {
		if d := math.Abs(score - b.faixa.meio()); d < dist {
			perto, dist = b, d
		}
	}
	avisos = append(avisos, Aviso{
		Evento:   EventoLacuna,
		Mensagem: "score falls between authored bands; using the nearest band",
		NormaIDs: []int64{perto.norma.ID},
	})
	return resultado(t, perto.norma, AjusteLacuna), avisos, nil
}

func selecionar(normas []*Norma, k Chave) []banda {
	var out []banda
	for _, n := range normas {
		if n.Campos == nil {
			continue
		}
		if fx, ok := n.Campos.Faixa(k); ok {
			out = append(out, banda{norma: n, faixa: fx})
		}
	}
	return out
}

func resultado(t *Tabela, n *Norma, ajuste Ajuste) *Classificado {
	nivel := n.Nivel()
	rotulo := nivel.Rotulo()
	if rotulo == "" {
		rotulo = strings.TrimSpace(n.Classificacao)
	}
	r := &Classificado{
		TabelaID:      t.ID,
		NormaID:       n.ID,
		Percentil:     n.Percentil,
		Classificacao: nivel,
		Rotulo:        rotulo,
		Ajuste:        ajuste,
	}
	if m, ok := n.Campos.(*CamposMIG); ok && m.QI != nil {
		qi := *m.QI
		r.QI = &qi
	}
	return r
}
