package normativa

import "fmt"

// Contagens holds the raw counts of one sub-test administration. Which
// fields are required depends on the family.
type Contagens struct {
	Acertos  *int `json:"acertos,omitempty"`
	Erros    *int `json:"erros,omitempty"`
	Omissoes *int `json:"omissoes,omitempty"`
	VP       *int `json:"vp,omitempty"`
	VN       *int `json:"vn,omitempty"`
	FP       *int `json:"fp,omitempty"`
	FN       *int `json:"fn,omitempty"`
}

// Calcular reduces raw counts to the family's composite score.
func Calcular(tipo Tipo, c Contagens) (float64, error) {
	f, ok := LookupFamilia(tipo)
	if !ok {
		return 0, fmt.Errorf("unknown test family %q", tipo)
	}
	return f.Composto(c)
}

func contagem(nome string, v *int) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%s is required", nome)
	}
	if *v < 0 {
		return 0, fmt.Errorf("%s must not be negative", nome)
	}
	return *v, nil
}

// pontuacaoBruta is PB = acertos - erros (AC, BPA-2, ROTAS). Omissions are
// kept as metadata only.
func pontuacaoBruta(c Contagens) (float64, error) {
	a, err := contagem("acertos", c.Acertos)
	if err != nil {
		return 0, err
	}
	e, err := contagem("erros", c.Erros)
	if err != nil {
		return 0, err
	}
	return float64(a - e), nil
}

// resultadoFinal is acertos - omissoes (BETA-III, MVT).
func resultadoFinal(c Contagens) (float64, error) {
	a, err := contagem("acertos", c.Acertos)
	if err != nil {
		return 0, err
	}
	o, err := contagem("omissoes", c.Omissoes)
	if err != nil {
		return 0, err
	}
	return float64(a - o), nil
}

// escoreMemore is the signal-detection composite (vp + vn) - (fp + fn).
// Negative results are valid.
func escoreMemore(c Contagens) (float64, error) {
	vp, err := contagem("vp", c.VP)
	if err != nil {
		return 0, err
	}
	vn, err := contagem("vn", c.VN)
	if err != nil {
		return 0, err
	}
	fp, err := contagem("fp", c.FP)
	if err != nil {
		return 0, err
	}
	fn, err := contagem("fn", c.FN)
	if err != nil {
		return 0, err
	}
	return float64((vp + vn) - (fp + fn)), nil
}

// acertosDiretos uses the hit count unchanged (MIG, R1).
func acertosDiretos(c Contagens) (float64, error) {
	a, err := contagem("acertos", c.Acertos)
	if err != nil {
		return 0, err
	}
	return float64(a), nil
}
