package normativa

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Entrada is one sub-test administration to be scored.
type Entrada struct {
	Tipo      Tipo      `json:"tipo"`
	Subteste  string    `json:"subteste,omitempty"`
	Perfil    Perfil    `json:"perfil"`
	Contagens Contagens `json:"contagens"`
}

// Pontuacao is the full scoring outcome of one administration.
type Pontuacao struct {
	Resultado    float64       `json:"resultado"`
	Tabela       *Tabela       `json:"tabela"`
	Chave        Chave         `json:"chave"`
	Classificado *Classificado `json:"classificado"`
	// QI is set for MIG when a QI conversion is available.
	QI *Classificado `json:"qi,omitempty"`
}

// Service ties the catalog, calculator and classifier together.
type Service struct {
	tables     TableRepository
	catalog    *Catalog
	classifier *Classifier
	importer   *Importer
}

func NewService(tables TableRepository, logger zerolog.Logger) *Service {
	return &Service{
		tables:     tables,
		catalog:    NewCatalog(tables, logger),
		classifier: NewClassifier(tables, logger),
		importer:   NewImporter(tables, logger),
	}
}

func (s *Service) ListTables(ctx context.Context, f Filtro, limit, offset int) ([]*Tabela, int, error) {
	if f.Tipo != "" {
		fam, ok := LookupFamilia(f.Tipo)
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown tipo %q", ErrInvalidInput, f.Tipo)
		}
		f.Tipo = fam.Tipo
	}
	return s.tables.List(ctx, f, limit, offset)
}

func (s *Service) ListActiveTables(ctx context.Context, tipo Tipo) ([]*Tabela, error) {
	return s.catalog.ListActiveTables(ctx, tipo)
}

// GetTable returns a table with its bands.
func (s *Service) GetTable(ctx context.Context, id int64) (*Tabela, []*Norma, error) {
	t, err := s.tables.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	normas, err := s.tables.ListNormas(ctx, t)
	if err != nil {
		return nil, nil, err
	}
	return t, normas, nil
}

func (s *Service) ResolveTable(ctx context.Context, tipo Tipo, p Perfil) (*Tabela, error) {
	return s.catalog.ResolveTable(ctx, tipo, p)
}

// Pontuar scores e against the currently active norms.
func (s *Service) Pontuar(ctx context.Context, e Entrada) (*Pontuacao, error) {
	f, escore, err := s.preparar(&e)
	if err != nil {
		return nil, err
	}
	t, err := s.catalog.ResolveTable(ctx, f.Tipo, e.Perfil)
	if err != nil {
		return nil, err
	}
	var qiTabela *Tabela
	if f.Tipo == TipoMIG {
		if qiTabela, err = s.catalog.ResolveQITable(ctx, e.Perfil); err != nil {
			return nil, err
		}
	}
	return s.pontuar(ctx, e, escore, t, qiTabela)
}

// PontuarComTabela scores e against a given table version, and for MIG a
// given QI table, regardless of which tables are active now.
func (s *Service) PontuarComTabela(ctx context.Context, e Entrada, tabelaID int64, qiTabelaID *int64) (*Pontuacao, error) {
	f, escore, err := s.preparar(&e)
	if err != nil {
		return nil, err
	}
	t, err := s.tables.GetByID(ctx, tabelaID)
	if err != nil {
		return nil, err
	}
	if t.Tipo != f.Tipo {
		return nil, fmt.Errorf("%w: table %d belongs to %s, not %s", ErrInvalidInput, t.ID, t.Tipo, f.Tipo)
	}
	var qiTabela *Tabela
	if qiTabelaID != nil {
		if qiTabela, err = s.tables.GetByID(ctx, *qiTabelaID); err != nil {
			return nil, err
		}
	}
	return s.pontuar(ctx, e, escore, t, qiTabela)
}

// ClassificarEscore classifies an already computed score against table id.
func (s *Service) ClassificarEscore(ctx context.Context, id int64, subteste string, p Perfil, escore float64) (*Classificado, Chave, error) {
	t, err := s.tables.GetByID(ctx, id)
	if err != nil {
		return nil, Chave{}, err
	}
	k, err := s.classifier.Chave(ctx, t, subteste, p)
	if err != nil {
		return nil, Chave{}, err
	}
	res, err := s.classifier.Classify(ctx, t, k, escore)
	return res, k, err
}

// Import reseeds every table in a seed document.
func (s *Service) Import(ctx context.Context, data []byte) ([]*Tabela, error) {
	return s.importer.ImportAll(ctx, data)
}

func (s *Service) ImportBuiltin(ctx context.Context) ([]*Tabela, error) {
	return s.importer.ImportBuiltin(ctx)
}

func (s *Service) preparar(e *Entrada) (*Familia, float64, error) {
	f, ok := LookupFamilia(e.Tipo)
	if !ok {
		return nil, 0, &ConfigurationError{Tipo: e.Tipo, Reason: "unknown test family", Err: ErrNoTableFound}
	}
	e.Tipo = f.Tipo

	if f.ExigeSubteste() {
		code, ok := f.SubtesteValido(e.Subteste)
		if !ok {
			return nil, 0, fmt.Errorf("%w: subteste %q is not one of %v for %s", ErrInvalidInput, e.Subteste, f.Subtestes, f.Nome)
		}
		e.Subteste = code
	} else {
		e.Subteste = ""
	}
	if e.Perfil.Idade != nil && (*e.Perfil.Idade < 0 || *e.Perfil.Idade > 130) {
		return nil, 0, fmt.Errorf("%w: idade %d out of range", ErrInvalidInput, *e.Perfil.Idade)
	}

	escore, err := f.Composto(e.Contagens)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return f, escore, nil
}

func (s *Service) pontuar(ctx context.Context, e Entrada, escore float64, t, qiTabela *Tabela) (*Pontuacao, error) {
	k, err := s.classifier.Chave(ctx, t, e.Subteste, e.Perfil)
	if err != nil {
		return nil, err
	}
	res, err := s.classifier.Classify(ctx, t, k, escore)
	if err != nil {
		return nil, err
	}
	p := &Pontuacao{Resultado: escore, Tabela: t, Chave: k, Classificado: res}

	if qiTabela != nil {
		qi, ok, err := s.classifier.ConvertQI(ctx, qiTabela, escore)
		if err != nil {
			return nil, err
		}
		if ok {
			p.QI = qi
		}
	}
	return p, nil
}
