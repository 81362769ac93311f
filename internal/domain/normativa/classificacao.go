package normativa

import (
	"encoding/json"
	"fmt"
)

// Classificacao is the ordinal qualitative level of a band. Logic compares
// ordinals; the display label comes from Rotulo.
type Classificacao int

const (
	ClassificacaoDesconhecida Classificacao = iota
	MuitoInferior
	Inferior
	MedioInferior
	Medio
	MedioSuperior
	Superior
	MuitoSuperior
)

var rotulos = map[Classificacao]string{
	MuitoInferior: "Muito Inferior",
	Inferior:      "Inferior",
	MedioInferior: "Médio Inferior",
	Medio:         "Médio",
	MedioSuperior: "Médio Superior",
	Superior:      "Superior",
	MuitoSuperior: "Muito Superior",
}

var porRotulo = map[string]Classificacao{
	"muito inferior": MuitoInferior,
	"inferior":       Inferior,
	"medio inferior": MedioInferior,
	"media inferior": MedioInferior,
	"medio":          Medio,
	"media":          Medio,
	"medio superior": MedioSuperior,
	"media superior": MedioSuperior,
	"superior":       Superior,
	"muito superior": MuitoSuperior,
}

// Rotulo returns the pt-BR display label.
func (c Classificacao) Rotulo() string {
	if r, ok := rotulos[c]; ok {
		return r
	}
	return ""
}

func (c Classificacao) String() string {
	if r := c.Rotulo(); r != "" {
		return r
	}
	return fmt.Sprintf("Classificacao(%d)", int(c))
}

func (c Classificacao) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Rotulo())
}

// ParseClassificacao accepts authored labels regardless of accents, case
// and the masculine/feminine "Médio"/"Média" variants.
func ParseClassificacao(s string) (Classificacao, error) {
	if c, ok := porRotulo[fold(s)]; ok {
		return c, nil
	}
	return ClassificacaoDesconhecida, fmt.Errorf("unknown classification label %q", s)
}
