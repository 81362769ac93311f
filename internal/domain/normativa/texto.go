package normativa

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lower-cases s, strips diacritics and collapses whitespace so that
// "Médio Inferior", "medio  inferior" and "MEDIO INFERIOR" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Escolaridade is the education tier used by AC columns and R1 rows.
type Escolaridade string

const (
	EscolaridadeFundamental Escolaridade = "fundamental"
	EscolaridadeMedio       Escolaridade = "medio"
	EscolaridadeSuperior    Escolaridade = "superior"
)

// ParseEscolaridade maps free-text education levels ("Ensino Médio
// Completo", "Superior incompleto", "pós-graduação") onto a tier.
func ParseEscolaridade(s string) (Escolaridade, bool) {
	f := fold(s)
	switch {
	case f == "":
		return "", false
	case strings.Contains(f, "superior"), strings.Contains(f, "graduac"),
		strings.Contains(f, "mestrado"), strings.Contains(f, "doutorado"):
		return EscolaridadeSuperior, true
	case strings.Contains(f, "medio"):
		return EscolaridadeMedio, true
	case strings.Contains(f, "fundamental"), strings.Contains(f, "basico"), strings.Contains(f, "primario"):
		return EscolaridadeFundamental, true
	}
	return "", false
}

var (
	faixaIntervalo = regexp.MustCompile(`\b(\d{1,3})\s*(?:-|a|ate)\s*(\d{1,3})\b`)
	faixaAcima     = regexp.MustCompile(`(?:\b(\d{1,3})\s*\+|(?:\bacima de|\bmais de|\ba partir de|>=?)\s*(\d{1,3})\b)`)
	faixaAte       = regexp.MustCompile(`(?:\bate|<=?)\s*(\d{1,3})\b`)
)

// parseFaixaEtaria extracts an age bracket from labels such as "25-34",
// "18 a 24 anos", "60+", "acima de 60" or "até 17".
func parseFaixaEtaria(s string) (Faixa, bool) {
	f := fold(s)
	if m := faixaIntervalo.FindStringSubmatch(f); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return Faixa{Min: float64(lo), Max: float64(hi)}, true
	}
	if m := faixaAcima.FindStringSubmatch(f); m != nil {
		v := m[1]
		if v == "" {
			v = m[2]
		}
		lo, _ := strconv.Atoi(v)
		return Faixa{Min: float64(lo), Max: math.Inf(1)}, true
	}
	if m := faixaAte.FindStringSubmatch(f); m != nil {
		hi, _ := strconv.Atoi(m[1])
		return Faixa{Min: 0, Max: float64(hi)}, true
	}
	return Faixa{}, false
}

var naoAlfanumerico = regexp.MustCompile(`[^a-z0-9]+`)

func termos(s string) []string {
	return strings.Fields(naoAlfanumerico.ReplaceAllString(fold(s), " "))
}

// contemTermo reports whether the words of needle appear consecutively in
// hay, so "B" matches "MVT Categoria B" but not "Tabela".
func contemTermo(hay, needle string) bool {
	h, n := termos(hay), termos(needle)
	if len(n) == 0 {
		return false
	}
	for i := 0; i+len(n) <= len(h); i++ {
		ok := true
		for j := range n {
			if h[i+j] != n[j] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
