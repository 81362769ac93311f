package normativa

import (
	"strings"
)

// Familia is the per-test configuration that drives the shared resolution,
// classification and storage code: which dimensions select a table, which
// columns hold the bands, how raw counts reduce to a score and how a row
// subset is keyed.
type Familia struct {
	Tipo Tipo
	Nome string
	// Dimensoes lists table-selection criteria, most specific first.
	Dimensoes []Criterio
	// TabelaNormas is the norma_* table holding this family's bands, and
	// Colunas its family-specific columns in NormaCampos.dest order.
	TabelaNormas string
	Colunas      []string
	// Subtestes lists the accepted sub-test codes; empty means the family
	// has a single administration form.
	Subtestes []string

	composto    func(Contagens) (float64, error)
	novosCampos func() NormaCampos
	chave       func(normas []*Norma, subteste string, p Perfil) Chave
}

// Composto reduces raw counts to the scalar used for band lookup.
func (f *Familia) Composto(c Contagens) (float64, error) {
	return f.composto(c)
}

// NovosCampos returns an empty field set of this family's concrete type.
func (f *Familia) NovosCampos() NormaCampos {
	return f.novosCampos()
}

// Chave builds the row-subset key for one administration.
func (f *Familia) Chave(normas []*Norma, subteste string, p Perfil) Chave {
	return f.chave(normas, subteste, p)
}

// ExigeSubteste reports whether submissions must name a sub-test.
func (f *Familia) ExigeSubteste() bool {
	return len(f.Subtestes) > 0
}

// SubtesteValido normalises code and reports whether the family accepts it.
func (f *Familia) SubtesteValido(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	for _, s := range f.Subtestes {
		if s == c {
			return c, true
		}
	}
	return "", false
}

var familias = []*Familia{
	{
		Tipo:         TipoAC,
		Nome:         "AC",
		Dimensoes:    []Criterio{CriterioEscolaridade, CriterioEstado},
		TabelaNormas: "norma_ac",
		Colunas:      []string{"fundamental_min", "fundamental_max", "medio_min", "medio_max", "superior_min", "superior_max"},
		composto:     pontuacaoBruta,
		novosCampos:  func() NormaCampos { return &CamposAC{} },
		chave:        chaveEscolaridade,
	},
	{
		Tipo:         TipoBetaIII,
		Nome:         "BETA-III",
		Dimensoes:    []Criterio{CriterioIdade, CriterioEscolaridade, CriterioContexto},
		TabelaNormas: "norma_beta_iii",
		Colunas:      []string{"resultado_min", "resultado_max"},
		composto:     resultadoFinal,
		novosCampos:  func() NormaCampos { return &CamposEscala{Familia: TipoBetaIII} },
		chave:        chaveVazia,
	},
	{
		Tipo:         TipoBPA2,
		Nome:         "BPA-2",
		Dimensoes:    []Criterio{CriterioIdade, CriterioEscolaridade},
		TabelaNormas: "norma_bpa2",
		Colunas:      []string{"tipo_atencao", "criterio", "valor_criterio", "pontos_min", "pontos_max"},
		Subtestes:    []string{"AC", "AD", "AA", "AG"},
		composto:     pontuacaoBruta,
		novosCampos:  func() NormaCampos { return &CamposBPA2{} },
		chave:        chaveBPA2,
	},
	{
		Tipo:         TipoRotas,
		Nome:         "ROTAS",
		Dimensoes:    []Criterio{CriterioContexto, CriterioIdade, CriterioEscolaridade},
		TabelaNormas: "norma_rotas",
		Colunas:      []string{"rota_tipo", "pontos_min", "pontos_max"},
		Subtestes:    []string{"A", "C", "D"},
		composto:     pontuacaoBruta,
		novosCampos:  func() NormaCampos { return &CamposRotas{} },
		chave: func(_ []*Norma, subteste string, _ Perfil) Chave {
			return Chave{RotaTipo: strings.ToUpper(strings.TrimSpace(subteste))}
		},
	},
	{
		Tipo:         TipoMIG,
		Nome:         "MIG",
		Dimensoes:    []Criterio{CriterioIdade, CriterioContexto},
		TabelaNormas: "norma_mig",
		Colunas:      []string{"tipo_avaliacao", "acertos_min", "acertos_max", "qi"},
		composto:     acertosDiretos,
		novosCampos:  func() NormaCampos { return &CamposMIG{} },
		chave: func(_ []*Norma, _ string, p Perfil) Chave {
			return Chave{TipoAvaliacao: strings.TrimSpace(p.Contexto)}
		},
	},
	{
		Tipo:         TipoMVT,
		Nome:         "MVT",
		Dimensoes:    []Criterio{CriterioTipoCNH, CriterioContexto},
		TabelaNormas: "norma_mvt",
		Colunas:      []string{"tipo_cnh", "resultado_min", "resultado_max"},
		composto:     resultadoFinal,
		novosCampos:  func() NormaCampos { return &CamposMVT{} },
		chave: func(_ []*Norma, _ string, p Perfil) Chave {
			return Chave{TipoCNH: strings.ToUpper(strings.TrimSpace(p.TipoCNH))}
		},
	},
	{
		Tipo:         TipoR1,
		Nome:         "R1",
		Dimensoes:    []Criterio{CriterioEscolaridade},
		TabelaNormas: "norma_r1",
		Colunas:      []string{"escolaridade", "acertos_min", "acertos_max"},
		composto:     acertosDiretos,
		novosCampos:  func() NormaCampos { return &CamposR1{} },
		chave:        chaveEscolaridade,
	},
	{
		Tipo:         TipoMemore,
		Nome:         "MEMORE",
		Dimensoes:    []Criterio{CriterioIdade, CriterioContexto},
		TabelaNormas: "norma_memore",
		Colunas:      []string{"resultado_min", "resultado_max"},
		composto:     escoreMemore,
		novosCampos:  func() NormaCampos { return &CamposEscala{Familia: TipoMemore} },
		chave:        chaveVazia,
	},
}

var familiaPorTipo = func() map[Tipo]*Familia {
	m := make(map[Tipo]*Familia, len(familias))
	for _, f := range familias {
		m[f.Tipo] = f
	}
	return m
}()

// Familias returns every supported family in report order.
func Familias() []*Familia {
	out := make([]*Familia, len(familias))
	copy(out, familias)
	return out
}

// LookupFamilia returns the configuration for tipo.
func LookupFamilia(tipo Tipo) (*Familia, bool) {
	f, ok := familiaPorTipo[Tipo(strings.ToLower(strings.TrimSpace(string(tipo))))]
	return f, ok
}

func chaveVazia([]*Norma, string, Perfil) Chave { return Chave{} }

func chaveEscolaridade(_ []*Norma, _ string, p Perfil) Chave {
	tier, _ := ParseEscolaridade(p.Escolaridade)
	return Chave{Escolaridade: tier}
}

// chaveBPA2 picks the in-row criterion for the attention type: an age row
// containing the patient's age, then an education row for the tier, then the
// Geral rows.
func chaveBPA2(normas []*Norma, subteste string, p Perfil) Chave {
	atencao := strings.ToUpper(strings.TrimSpace(subteste))
	var porIdade, porEscolaridade, geral *CamposBPA2
	tier, tierOK := ParseEscolaridade(p.Escolaridade)
	for _, n := range normas {
		c, ok := n.Campos.(*CamposBPA2)
		if !ok || fold(c.TipoAtencao) != fold(atencao) {
			continue
		}
		switch {
		case c.geral():
			if geral == nil {
				geral = c
			}
		case fold(c.Criterio) == "idade":
			if porIdade == nil && p.Idade != nil {
				if fx, ok := parseFaixaEtaria(c.ValorCriterio); ok && fx.Contem(float64(*p.Idade)) {
					porIdade = c
				}
			}
		case fold(c.Criterio) == "escolaridade":
			if porEscolaridade == nil && tierOK {
				if t, ok := ParseEscolaridade(c.ValorCriterio); ok && t == tier {
					porEscolaridade = c
				}
			}
		}
	}
	for _, c := range []*CamposBPA2{porIdade, porEscolaridade, geral} {
		if c != nil {
			return Chave{TipoAtencao: c.TipoAtencao, Criterio: c.Criterio, ValorCriterio: c.ValorCriterio}
		}
	}
	return Chave{TipoAtencao: atencao}
}
