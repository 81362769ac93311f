package normativa

// NormaCampos is the family-specific part of a Norma. Each implementation
// declares the columns of one norma_* table in the order given by its
// Familia.Colunas.
type NormaCampos interface {
	Tipo() Tipo
	// Faixa returns the band's interval for the given key, or false when the
	// row does not belong to the key's subset.
	Faixa(k Chave) (Faixa, bool)
	// Generica reports whether the row carries no row-key value, which makes
	// it eligible as a fallback for keys with no dedicated rows.
	Generica() bool

	dest() []any
	args() []any
}

// CamposAC carries the three parallel education-tier ranges of an AC band.
type CamposAC struct {
	FundamentalMin *float64 `json:"fundamental_min,omitempty"`
	FundamentalMax *float64 `json:"fundamental_max,omitempty"`
	MedioMin       *float64 `json:"medio_min,omitempty"`
	MedioMax       *float64 `json:"medio_max,omitempty"`
	SuperiorMin    *float64 `json:"superior_min,omitempty"`
	SuperiorMax    *float64 `json:"superior_max,omitempty"`
}

func (c *CamposAC) Tipo() Tipo { return TipoAC }

func (c *CamposAC) Faixa(k Chave) (Faixa, bool) {
	var lo, hi *float64
	switch k.Escolaridade {
	case EscolaridadeFundamental:
		lo, hi = c.FundamentalMin, c.FundamentalMax
	case EscolaridadeMedio:
		lo, hi = c.MedioMin, c.MedioMax
	case EscolaridadeSuperior:
		lo, hi = c.SuperiorMin, c.SuperiorMax
	}
	if lo == nil || hi == nil {
		return Faixa{}, false
	}
	return Faixa{Min: *lo, Max: *hi}, true
}

func (c *CamposAC) Generica() bool { return false }

func (c *CamposAC) dest() []any {
	return []any{&c.FundamentalMin, &c.FundamentalMax, &c.MedioMin, &c.MedioMax, &c.SuperiorMin, &c.SuperiorMax}
}

func (c *CamposAC) args() []any {
	return []any{c.FundamentalMin, c.FundamentalMax, c.MedioMin, c.MedioMax, c.SuperiorMin, c.SuperiorMax}
}

// CamposEscala is a single-scale band, used by BETA-III and MEMORE.
type CamposEscala struct {
	Familia      Tipo    `json:"-"`
	ResultadoMin float64 `json:"resultado_min"`
	ResultadoMax float64 `json:"resultado_max"`
}

func (c *CamposEscala) Tipo() Tipo { return c.Familia }

func (c *CamposEscala) Faixa(Chave) (Faixa, bool) {
	return Faixa{Min: c.ResultadoMin, Max: c.ResultadoMax}, true
}

func (c *CamposEscala) Generica() bool { return true }

func (c *CamposEscala) dest() []any { return []any{&c.ResultadoMin, &c.ResultadoMax} }
func (c *CamposEscala) args() []any { return []any{c.ResultadoMin, c.ResultadoMax} }

// CamposBPA2 is a BPA-2 band keyed by attention type and an in-row
// demographic criterion.
type CamposBPA2 struct {
	TipoAtencao   string  `json:"tipo_atencao"`
	Criterio      string  `json:"criterio"`
	ValorCriterio string  `json:"valor_criterio"`
	PontosMin     float64 `json:"pontos_min"`
	PontosMax     float64 `json:"pontos_max"`
}

func (c *CamposBPA2) Tipo() Tipo { return TipoBPA2 }

func (c *CamposBPA2) Faixa(k Chave) (Faixa, bool) {
	if fold(c.TipoAtencao) != fold(k.TipoAtencao) {
		return Faixa{}, false
	}
	if fold(c.Criterio) != fold(k.Criterio) || fold(c.ValorCriterio) != fold(k.ValorCriterio) {
		return Faixa{}, false
	}
	return Faixa{Min: c.PontosMin, Max: c.PontosMax}, true
}

func (c *CamposBPA2) Generica() bool { return false }

func (c *CamposBPA2) geral() bool {
	crit := fold(c.Criterio)
	return crit == "" || crit == "geral"
}

func (c *CamposBPA2) dest() []any {
	return []any{&c.TipoAtencao, &c.Criterio, &c.ValorCriterio, &c.PontosMin, &c.PontosMax}
}

func (c *CamposBPA2) args() []any {
	return []any{c.TipoAtencao, c.Criterio, c.ValorCriterio, c.PontosMin, c.PontosMax}
}

// CamposRotas is a ROTAS band for one route (A, C or D).
type CamposRotas struct {
	RotaTipo  string  `json:"rota_tipo"`
	PontosMin float64 `json:"pontos_min"`
	PontosMax float64 `json:"pontos_max"`
}

func (c *CamposRotas) Tipo() Tipo { return TipoRotas }

func (c *CamposRotas) Faixa(k Chave) (Faixa, bool) {
	if fold(c.RotaTipo) != fold(k.RotaTipo) {
		return Faixa{}, false
	}
	return Faixa{Min: c.PontosMin, Max: c.PontosMax}, true
}

func (c *CamposRotas) Generica() bool { return c.RotaTipo == "" }

func (c *CamposRotas) dest() []any { return []any{&c.RotaTipo, &c.PontosMin, &c.PontosMax} }
func (c *CamposRotas) args() []any { return []any{c.RotaTipo, c.PontosMin, c.PontosMax} }

// TipoAvaliacaoQI marks MIG rows that convert hits into a QI score.
const TipoAvaliacaoQI = "qi"

// CamposMIG is a MIG band, keyed by evaluation context or by QI mode.
type CamposMIG struct {
	TipoAvaliacao string  `json:"tipo_avaliacao"`
	AcertosMin    float64 `json:"acertos_min"`
	AcertosMax    float64 `json:"acertos_max"`
	QI            *int    `json:"qi,omitempty"`
}

func (c *CamposMIG) Tipo() Tipo { return TipoMIG }

func (c *CamposMIG) Faixa(k Chave) (Faixa, bool) {
	if fold(c.TipoAvaliacao) != fold(k.TipoAvaliacao) {
		return Faixa{}, false
	}
	return Faixa{Min: c.AcertosMin, Max: c.AcertosMax}, true
}

func (c *CamposMIG) Generica() bool { return c.TipoAvaliacao == "" }

func (c *CamposMIG) dest() []any { return []any{&c.TipoAvaliacao, &c.AcertosMin, &c.AcertosMax, &c.QI} }
func (c *CamposMIG) args() []any { return []any{c.TipoAvaliacao, c.AcertosMin, c.AcertosMax, c.QI} }

// CamposMVT is an MVT band for one CNH category.
type CamposMVT struct {
	TipoCNH      string  `json:"tipo_cnh"`
	ResultadoMin float64 `json:"resultado_min"`
	ResultadoMax float64 `json:"resultado_max"`
}

func (c *CamposMVT) Tipo() Tipo { return TipoMVT }

func (c *CamposMVT) Faixa(k Chave) (Faixa, bool) {
	if fold(c.TipoCNH) != fold(k.TipoCNH) {
		return Faixa{}, false
	}
	return Faixa{Min: c.ResultadoMin, Max: c.ResultadoMax}, true
}

func (c *CamposMVT) Generica() bool { return c.TipoCNH == "" }

func (c *CamposMVT) dest() []any { return []any{&c.TipoCNH, &c.ResultadoMin, &c.ResultadoMax} }
func (c *CamposMVT) args() []any { return []any{c.TipoCNH, c.ResultadoMin, c.ResultadoMax} }

// CamposR1 is an R1 band for one education tier.
type CamposR1 struct {
	Escolaridade string  `json:"escolaridade"`
	AcertosMin   float64 `json:"acertos_min"`
	AcertosMax   float64 `json:"acertos_max"`
}

func (c *CamposR1) Tipo() Tipo { return TipoR1 }

func (c *CamposR1) Faixa(k Chave) (Faixa, bool) {
	if c.Escolaridade == "" {
		if k.Escolaridade != "" {
			return Faixa{}, false
		}
		return Faixa{Min: c.AcertosMin, Max: c.AcertosMax}, true
	}
	tier, ok := ParseEscolaridade(c.Escolaridade)
	if !ok || tier != k.Escolaridade {
		return Faixa{}, false
	}
	return Faixa{Min: c.AcertosMin, Max: c.AcertosMax}, true
}

func (c *CamposR1) Generica() bool { return c.Escolaridade == "" }

func (c *CamposR1) dest() []any { return []any{&c.Escolaridade, &c.AcertosMin, &c.AcertosMax} }
func (c *CamposR1) args() []any { return []any{c.Escolaridade, c.AcertosMin, c.AcertosMax} }
