package normativa

import (
	"strings"
	"time"
)

// Tipo identifies a psychometric test family.
type Tipo string

const (
	TipoAC      Tipo = "ac"
	TipoBetaIII Tipo = "beta_iii"
	TipoBPA2    Tipo = "bpa2"
	TipoRotas   Tipo = "rotas"
	TipoMIG     Tipo = "mig"
	TipoMVT     Tipo = "mvt"
	TipoR1      Tipo = "r1"
	TipoMemore  Tipo = "memore"
)

// Criterio is the selection dimension a normative table applies to.
type Criterio string

const (
	CriterioGeral        Criterio = "Geral"
	CriterioIdade        Criterio = "Idade"
	CriterioEscolaridade Criterio = "Escolaridade"
	CriterioContexto     Criterio = "Contexto"
	CriterioEstado       Criterio = "Estado"
	CriterioTipoCNH      Criterio = "TipoCNH"
	CriterioQI           Criterio = "QI"
)

// Tabela maps to the tabela_normativa table.
type Tabela struct {
	ID            int64     `db:"id" json:"id"`
	Nome          string    `db:"nome" json:"nome"`
	Tipo          Tipo      `db:"tipo" json:"tipo"`
	Versao        string    `db:"versao" json:"versao"`
	Criterio      string    `db:"criterio" json:"criterio"`
	ValorCriterio *string   `db:"valor_criterio" json:"valor_criterio,omitempty"`
	Descricao     *string   `db:"descricao" json:"descricao,omitempty"`
	Ativa         bool      `db:"ativa" json:"ativa"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CriterioNormalizado maps the free-text criterio column onto a known
// Criterio. Empty values are Geral; unrecognised ones are returned trimmed
// and never match a family dimension.
func (t *Tabela) CriterioNormalizado() Criterio {
	switch fold(t.Criterio) {
	case "", "geral":
		return CriterioGeral
	case "idade", "faixa etaria":
		return CriterioIdade
	case "escolaridade":
		return CriterioEscolaridade
	case "contexto":
		return CriterioContexto
	case "estado", "regiao", "uf":
		return CriterioEstado
	case "tipocnh", "tipo cnh", "tipo_cnh", "cnh":
		return CriterioTipoCNH
	case "qi":
		return CriterioQI
	}
	return Criterio(strings.TrimSpace(t.Criterio))
}

// rotulos returns the strings the table's selection value is read from: the
// explicit valor_criterio, or else its name and description.
func (t *Tabela) rotulos() []string {
	if t.ValorCriterio != nil && strings.TrimSpace(*t.ValorCriterio) != "" {
		return []string{*t.ValorCriterio}
	}
	out := []string{t.Nome}
	if t.Descricao != nil {
		out = append(out, *t.Descricao)
	}
	return out
}

// Norma is one band of a normative table. Campos holds the family-specific
// range columns; its concrete type is fixed by the owning table's Tipo.
type Norma struct {
	ID            int64       `db:"id" json:"id"`
	TabelaID      int64       `db:"tabela_id" json:"tabela_id"`
	Percentil     int         `db:"percentil" json:"percentil"`
	Classificacao string      `db:"classificacao" json:"classificacao"`
	Campos        NormaCampos `json:"campos"`
}

// Nivel returns the ordinal classification of the band's label.
func (n *Norma) Nivel() Classificacao {
	c, _ := ParseClassificacao(n.Classificacao)
	return c
}

// Faixa is an inclusive score interval.
type Faixa struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contem reports whether score lies in [Min, Max].
func (f Faixa) Contem(score float64) bool {
	return f.Min <= score && score <= f.Max
}

func (f Faixa) meio() float64 {
	return (f.Min + f.Max) / 2
}

// Perfil is the evaluation context used to pick a table and a row subset.
// Zero values mean "unknown".
type Perfil struct {
	Idade        *int   `json:"idade,omitempty"`
	Escolaridade string `json:"escolaridade,omitempty"`
	TipoCNH      string `json:"tipo_cnh,omitempty"`
	Contexto     string `json:"contexto,omitempty"`
	Estado       string `json:"estado,omitempty"`
}

// Chave selects the subset of rows inside a table that applies to one
// administration. Only the fields relevant to the table's family are read.
type Chave struct {
	Escolaridade  Escolaridade `json:"escolaridade,omitempty"`
	RotaTipo      string       `json:"rota_tipo,omitempty"`
	TipoAtencao   string       `json:"tipo_atencao,omitempty"`
	Criterio      string       `json:"criterio,omitempty"`
	ValorCriterio string       `json:"valor_criterio,omitempty"`
	TipoCNH       string       `json:"tipo_cnh,omitempty"`
	TipoAvaliacao string       `json:"tipo_avaliacao,omitempty"`
}

// Ajuste records how a score was mapped when it did not fall inside a band.
type Ajuste string

const (
	AjusteNenhum Ajuste = "none"
	AjustePiso   Ajuste = "floor"
	AjusteTeto   Ajuste = "ceiling"
	AjusteLacuna Ajuste = "gap"
)

// Classificado is the outcome of classifying a score against a table.
type Classificado struct {
	TabelaID      int64         `json:"tabela_normativa_id"`
	NormaID       int64         `json:"norma_id"`
	Percentil     int           `json:"percentil"`
	Classificacao Classificacao `json:"-"`
	Rotulo        string        `json:"classificacao"`
	QI            *int          `json:"qi,omitempty"`
	Ajuste        Ajuste        `json:"ajuste"`
}

// MesmaSelecao reports whether a and b apply to the same selection: same
// family, criterio and criterio value.
func (t *Tabela) MesmaSelecao(o *Tabela) bool {
	return t.Tipo == o.Tipo &&
		t.CriterioNormalizado() == o.CriterioNormalizado() &&
		fold(deref(t.ValorCriterio)) == fold(deref(o.ValorCriterio))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
