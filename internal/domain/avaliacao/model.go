package avaliacao

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/psicotran/psicotran/internal/domain/normativa"
)

// ErrResultNotFound is returned for lookups of a result id that does not exist.
var ErrResultNotFound = errors.New("test result not found")

// Resultado is one scored sub-test administration. Rows are append-only;
// only an explicit recompute rewrites the classification columns.
type Resultado struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	AvaliacaoID uuid.UUID      `db:"avaliacao_id" json:"avaliacao_id"`
	PacienteID  *uuid.UUID     `db:"paciente_id" json:"paciente_id,omitempty"`
	Tipo        normativa.Tipo `db:"tipo" json:"tipo"`
	Subteste    string         `db:"subteste" json:"subteste,omitempty"`

	Contagens normativa.Contagens `json:"contagens"`
	Perfil    normativa.Perfil    `json:"perfil"`

	Resultado         float64          `db:"resultado" json:"resultado"`
	TabelaNormativaID int64            `db:"tabela_normativa_id" json:"tabela_normativa_id"`
	NormaID           int64            `db:"norma_id" json:"norma_id"`
	Percentil         int              `db:"percentil" json:"percentil"`
	Classificacao     string           `db:"classificacao" json:"classificacao"`
	Ajuste            normativa.Ajuste `db:"ajuste" json:"ajuste"`

	QI              *int    `db:"qi" json:"qi,omitempty"`
	QIClassificacao *string `db:"qi_classificacao" json:"qi_classificacao,omitempty"`
	QITabelaID      *int64  `db:"qi_tabela_id" json:"qi_tabela_id,omitempty"`

	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	RecomputedAt *time.Time `db:"recomputed_at" json:"recomputed_at,omitempty"`
}

// Entrada rebuilds the scoring input recorded on the row.
func (r *Resultado) Entrada() normativa.Entrada {
	return normativa.Entrada{
		Tipo:      r.Tipo,
		Subteste:  r.Subteste,
		Perfil:    r.Perfil,
		Contagens: r.Contagens,
	}
}

// aplicar copies a scoring outcome onto the row.
func (r *Resultado) aplicar(p *normativa.Pontuacao) {
	r.Tipo = p.Tabela.Tipo
	r.Resultado = p.Resultado
	r.TabelaNormativaID = p.Tabela.ID
	r.NormaID = p.Classificado.NormaID
	r.Percentil = p.Classificado.Percentil
	r.Classificacao = p.Classificado.Rotulo
	r.Ajuste = p.Classificado.Ajuste

	r.QI, r.QIClassificacao, r.QITabelaID = nil, nil, nil
	if p.QI != nil {
		rotulo := p.QI.Rotulo
		tabelaID := p.QI.TabelaID
		r.QI = p.QI.QI
		r.QIClassificacao = &rotulo
		r.QITabelaID = &tabelaID
	}
}

const resultadoCols = `id, avaliacao_id, paciente_id, tipo, subteste,
	acertos, erros, omissoes, vp, vn, fp, fn,
	idade, escolaridade, tipo_cnh, contexto, estado,
	resultado, tabela_normativa_id, norma_id, percentil, classificacao, ajuste,
	qi, qi_classificacao, qi_tabela_id, created_at, recomputed_at`

const resultadoColCount = 28

func (r *Resultado) dest() []any {
	return []any{
		&r.ID, &r.AvaliacaoID, &r.PacienteID, &r.Tipo, &r.Subteste,
		&r.Contagens.Acertos, &r.Contagens.Erros, &r.Contagens.Omissoes,
		&r.Contagens.VP, &r.Contagens.VN, &r.Contagens.FP, &r.Contagens.FN,
		&r.Perfil.Idade, &r.Perfil.Escolaridade, &r.Perfil.TipoCNH, &r.Perfil.Contexto, &r.Perfil.Estado,
		&r.Resultado, &r.TabelaNormativaID, &r.NormaID, &r.Percentil, &r.Classificacao, &r.Ajuste,
		&r.QI, &r.QIClassificacao, &r.QITabelaID, &r.CreatedAt, &r.RecomputedAt,
	}
}

func (r *Resultado) args() []any {
	return []any{
		r.ID, r.AvaliacaoID, r.PacienteID, string(r.Tipo), r.Subteste,
		r.Contagens.Acertos, r.Contagens.Erros, r.Contagens.Omissoes,
		r.Contagens.VP, r.Contagens.VN, r.Contagens.FP, r.Contagens.FN,
		r.Perfil.Idade, r.Perfil.Escolaridade, r.Perfil.TipoCNH, r.Perfil.Contexto, r.Perfil.Estado,
		r.Resultado, r.TabelaNormativaID, r.NormaID, r.Percentil, r.Classificacao, string(r.Ajuste),
		r.QI, r.QIClassificacao, r.QITabelaID, r.CreatedAt, r.RecomputedAt,
	}
}
