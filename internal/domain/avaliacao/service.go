package avaliacao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psicotran/psicotran/internal/domain/normativa"
)

// Scorer classifies administrations against normative tables.
// *normativa.Service satisfies it.
type Scorer interface {
	Pontuar(ctx context.Context, e normativa.Entrada) (*normativa.Pontuacao, error)
	PontuarComTabela(ctx context.Context, e normativa.Entrada, tabelaID int64, qiTabelaID *int64) (*normativa.Pontuacao, error)
}

// SubmitRequest is one sub-test administration entered by a clinician.
type SubmitRequest struct {
	AvaliacaoID uuid.UUID           `json:"-"`
	PacienteID  *uuid.UUID          `json:"paciente_id,omitempty"`
	Tipo        normativa.Tipo      `json:"tipo"`
	Subteste    string              `json:"subteste,omitempty"`
	Perfil      normativa.Perfil    `json:"perfil"`
	Contagens   normativa.Contagens `json:"contagens"`
}

// Tentativa is one numbered attempt of a family within an evaluation.
type Tentativa struct {
	Rotulo    string     `json:"rotulo"`
	Numero    int        `json:"numero"`
	Resultado *Resultado `json:"resultado"`
}

// Grupo holds every attempt of one family, newest first.
type Grupo struct {
	Tipo       normativa.Tipo `json:"tipo"`
	Nome       string         `json:"nome"`
	Tentativas []Tentativa    `json:"tentativas"`
}

// Verificacao compares a stored outcome with a fresh classification against
// the same table version.
type Verificacao struct {
	ResultadoID  uuid.UUID `json:"resultado_id"`
	Confere      bool      `json:"confere"`
	Armazenado   Desfecho  `json:"armazenado"`
	Recalculado  Desfecho  `json:"recalculado"`
	TabelaID     int64     `json:"tabela_normativa_id"`
	VerificadoEm time.Time `json:"verificado_em"`
}

// Desfecho is the comparable part of a scoring outcome.
type Desfecho struct {
	Resultado       float64 `json:"resultado"`
	Percentil       int     `json:"percentil"`
	Classificacao   string  `json:"classificacao"`
	QI              *int    `json:"qi,omitempty"`
	QIClassificacao *string `json:"qi_classificacao,omitempty"`
}

func desfecho(r *Resultado) Desfecho {
	return Desfecho{
		Resultado:       r.Resultado,
		Percentil:       r.Percentil,
		Classificacao:   r.Classificacao,
		QI:              r.QI,
		QIClassificacao: r.QIClassificacao,
	}
}

func (d Desfecho) igual(o Desfecho) bool {
	return d.Resultado == o.Resultado &&
		d.Percentil == o.Percentil &&
		d.Classificacao == o.Classificacao &&
		eqPtr(d.QI, o.QI) &&
		eqPtr(d.QIClassificacao, o.QIClassificacao)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Service records and reads scored administrations.
type Service struct {
	results ResultRepository
	scorer  Scorer
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(results ResultRepository, scorer Scorer, logger zerolog.Logger) *Service {
	return &Service{
		results: results,
		scorer:  scorer,
		logger:  logger,
		now:     time.Now,
	}
}

// Submit scores one administration and stores it as a new attempt. Nothing
// is stored when the norms cannot classify it.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Resultado, error) {
	if req.AvaliacaoID == uuid.Nil {
		return nil, fmt.Errorf("%w: avaliacao_id is required", normativa.ErrInvalidInput)
	}
	if strings.TrimSpace(string(req.Tipo)) == "" {
		return nil, fmt.Errorf("%w: tipo is required", normativa.ErrInvalidInput)
	}

	r := &Resultado{
		AvaliacaoID: req.AvaliacaoID,
		PacienteID:  req.PacienteID,
		Tipo:        req.Tipo,
		Subteste:    req.Subteste,
		Perfil:      req.Perfil,
		Contagens:   req.Contagens,
	}
	p, err := s.scorer.Pontuar(ctx, r.Entrada())
	if err != nil {
		if normativa.IsConfigurationError(err) {
			s.logger.Error().Err(err).
				Str("avaliacao_id", req.AvaliacaoID.String()).
				Str("tipo", string(req.Tipo)).
				Msg("result not saved: norm configuration")
		}
		return nil, err
	}

	r.ID = uuid.New()
	r.aplicar(p)
	r.Subteste = subtesteNormalizado(r.Tipo, r.Subteste)
	r.CreatedAt = s.now().UTC()
	if err := s.results.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("resultado_id", r.ID.String()).
		Str("avaliacao_id", r.AvaliacaoID.String()).
		Str("tipo", string(r.Tipo)).
		Int64("tabela_id", r.TabelaNormativaID).
		Int("percentil", r.Percentil).
		Msg("test result recorded")
	return r, nil
}

func subtesteNormalizado(tipo normativa.Tipo, subteste string) string {
	f, ok := normativa.LookupFamilia(tipo)
	if !ok || !f.ExigeSubteste() {
		return ""
	}
	code, _ := f.SubtesteValido(subteste)
	return code
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Resultado, error) {
	return s.results.GetByID(ctx, id)
}

// History groups the attempts of an evaluation by family in report order.
// Attempts are numbered chronologically per family and sub-test and listed
// newest first; nothing is merged or dropped.
func (s *Service) History(ctx context.Context, avaliacaoID uuid.UUID) ([]*Grupo, error) {
	rows, err := s.results.ListByAvaliacao(ctx, avaliacaoID)
	if err != nil {
		return nil, err
	}
	return Agrupar(rows), nil
}

// Agrupar is the pure grouping step of History. rows must be oldest first.
func Agrupar(rows []*Resultado) []*Grupo {
	porTipo := make(map[normativa.Tipo][]*Resultado)
	for _, r := range rows {
		porTipo[r.Tipo] = append(porTipo[r.Tipo], r)
	}

	var grupos []*Grupo
	for _, f := range normativa.Familias() {
		tentativas := porTipo[f.Tipo]
		if len(tentativas) == 0 {
			continue
		}
		g := &Grupo{Tipo: f.Tipo, Nome: f.Nome, Tentativas: make([]Tentativa, len(tentativas))}
		contador := make(map[string]int)
		for i, r := range tentativas {
			contador[r.Subteste]++
			n := contador[r.Subteste]
			nome := f.Nome
			if r.Subteste != "" {
				nome += " " + r.Subteste
			}
			// newest first
			g.Tentativas[len(tentativas)-1-i] = Tentativa{
				Rotulo:    fmt.Sprintf("%s (%d)", nome, n),
				Numero:    n,
				Resultado: r,
			}
		}
		grupos = append(grupos, g)
	}
	return grupos
}

// Recompute re-classifies a stored row against the currently active norms.
// It is the only operation that changes a stored classification.
func (s *Service) Recompute(ctx context.Context, id uuid.UUID) (*Resultado, error) {
	r, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.scorer.Pontuar(ctx, r.Entrada())
	if err != nil {
		return nil, err
	}

	anterior := r.TabelaNormativaID
	r.aplicar(p)
	now := s.now().UTC()
	r.RecomputedAt = &now
	if err := s.results.UpdateClassificacao(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("resultado_id", r.ID.String()).
		Int64("tabela_anterior", anterior).
		Int64("tabela_id", r.TabelaNormativaID).
		Int("percentil", r.Percentil).
		Msg("test result recomputed")
	return r, nil
}

// Verify re-classifies a stored row against the table version recorded on
// it and reports whether the stored outcome still matches.
func (s *Service) Verify(ctx context.Context, id uuid.UUID) (*Verificacao, error) {
	r, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.scorer.PontuarComTabela(ctx, r.Entrada(), r.TabelaNormativaID, r.QITabelaID)
	if err != nil {
		return nil, err
	}

	fresco := *r
	fresco.aplicar(p)
	v := &Verificacao{
		ResultadoID:  r.ID,
		Armazenado:   desfecho(r),
		Recalculado:  desfecho(&fresco),
		TabelaID:     r.TabelaNormativaID,
		VerificadoEm: s.now().UTC(),
	}
	v.Confere = v.Armazenado.igual(v.Recalculado)
	if !v.Confere {
		s.logger.Warn().
			Str("event", "result_mismatch").
			Str("resultado_id", r.ID.String()).
			Int64("tabela_id", r.TabelaNormativaID).
			Msg("stored classification differs from its table version")
	}
	return v, nil
}
