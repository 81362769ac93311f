package avaliacao

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psicotran/psicotran/internal/domain/normativa"
	"github.com/psicotran/psicotran/internal/platform/db"
)

func newTestSQLiteStores(t *testing.T) (*SQLiteStore, *normativa.Service) {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "psicotran.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	tables, err := normativa.NewSQLiteStore(ctx, sqlDB)
	if err != nil {
		t.Fatalf("normativa.NewSQLiteStore: %v", err)
	}
	results, err := NewSQLiteStore(ctx, sqlDB)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	norms := normativa.NewService(tables, zerolog.Nop())
	if _, err := norms.ImportBuiltin(ctx); err != nil {
		t.Fatalf("ImportBuiltin: %v", err)
	}
	return results, norms
}

func TestSQLiteStore_CreateGet(t *testing.T) {
	s, _ := newTestSQLiteStores(t)
	ctx := context.Background()

	paciente := uuid.New()
	qi := 104
	qiRotulo := "Médio"
	qiTabela := int64(7)
	in := &Resultado{
		ID:                uuid.New(),
		AvaliacaoID:       uuid.New(),
		PacienteID:        &paciente,
		Tipo:              normativa.TipoMIG,
		Contagens:         normativa.Contagens{Acertos: intp(17)},
		Perfil:            normativa.Perfil{Idade: intp(41), Contexto: "Trânsito", Estado: "SP"},
		Resultado:         17,
		TabelaNormativaID: 3,
		NormaID:           12,
		Percentil:         60,
		Classificacao:     "Médio",
		Ajuste:            normativa.AjusteNenhum,
		QI:                &qi,
		QIClassificacao:   &qiRotulo,
		QITabelaID:        &qiTabela,
		CreatedAt:         time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC),
	}
	if err := s.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AvaliacaoID != in.AvaliacaoID || got.PacienteID == nil || *got.PacienteID != paciente {
		t.Errorf("ids not preserved: %+v", got)
	}
	if got.Tipo != normativa.TipoMIG || got.Percentil != 60 || got.Classificacao != "Médio" {
		t.Errorf("classification not preserved: %s p%d %s", got.Tipo, got.Percentil, got.Classificacao)
	}
	if got.Contagens.Acertos == nil || *got.Contagens.Acertos != 17 || got.Contagens.Erros != nil {
		t.Errorf("counts not preserved: %+v", got.Contagens)
	}
	if got.Perfil.Idade == nil || *got.Perfil.Idade != 41 || got.Perfil.Estado != "SP" {
		t.Errorf("context not preserved: %+v", got.Perfil)
	}
	if got.QI == nil || *got.QI != 104 || got.QITabelaID == nil || *got.QITabelaID != 7 {
		t.Errorf("QI not preserved: %v %v", got.QI, got.QITabelaID)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) || got.RecomputedAt != nil {
		t.Errorf("timestamps not preserved: %v %v", got.CreatedAt, got.RecomputedAt)
	}
}

func TestSQLiteStore_NullableColumns(t *testing.T) {
	s, _ := newTestSQLiteStores(t)
	ctx := context.Background()

	in := &Resultado{
		ID:            uuid.New(),
		AvaliacaoID:   uuid.New(),
		Tipo:          normativa.TipoMemore,
		Contagens:     normativa.Contagens{VP: intp(3), VN: intp(2), FP: intp(5), FN: intp(4)},
		Resultado:     -4,
		Percentil:     1,
		Classificacao: "Inferior",
		Ajuste:        normativa.AjustePiso,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PacienteID != nil || got.QI != nil || got.QIClassificacao != nil || got.Perfil.Idade != nil {
		t.Errorf("expected NULL columns to stay nil: %+v", got)
	}
	if got.Resultado != -4 || got.Ajuste != normativa.AjustePiso {
		t.Errorf("expected -4 floor, got %v %s", got.Resultado, got.Ajuste)
	}
}

func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	s, _ := newTestSQLiteStores(t)

	if _, err := s.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListByAvaliacao_Ordered(t *testing.T) {
	s, _ := newTestSQLiteStores(t)
	ctx := context.Background()
	avaliacaoID := uuid.New()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for _, offset := range []int{3, 1, 2} {
		r := &Resultado{
			ID:            uuid.New(),
			AvaliacaoID:   avaliacaoID,
			Tipo:          normativa.TipoR1,
			Contagens:     normativa.Contagens{Acertos: intp(offset)},
			Classificacao: "Médio",
			Ajuste:        normativa.AjusteNenhum,
			CreatedAt:     base.Add(time.Duration(offset) * time.Minute),
		}
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := &Resultado{ID: uuid.New(), AvaliacaoID: uuid.New(), Tipo: normativa.TipoR1, Ajuste: normativa.AjusteNenhum, CreatedAt: base}
	if err := s.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := s.ListByAvaliacao(ctx, avaliacaoID)
	if err != nil {
		t.Fatalf("ListByAvaliacao: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if *r.Contagens.Acertos != i+1 {
			t.Errorf("row %d: expected oldest first, got acertos %d", i, *r.Contagens.Acertos)
		}
	}
}

func TestSQLiteStore_UpdateClassificacao(t *testing.T) {
	s, _ := newTestSQLiteStores(t)
	ctx := context.Background()

	r := &Resultado{ID: uuid.New(), AvaliacaoID: uuid.New(), Tipo: normativa.TipoR1,
		Percentil: 50, Classificacao: "Médio", Ajuste: normativa.AjusteNenhum, CreatedAt: time.Now().UTC()}
	if err := s.Create(ctx, r); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	r.Percentil, r.Classificacao, r.TabelaNormativaID, r.RecomputedAt = 30, "Médio Inferior", 9, &now
	if err := s.UpdateClassificacao(ctx, r); err != nil {
		t.Fatalf("UpdateClassificacao: %v", err)
	}
	got, _ := s.GetByID(ctx, r.ID)
	if got.Percentil != 30 || got.TabelaNormativaID != 9 || got.RecomputedAt == nil || !got.RecomputedAt.Equal(now) {
		t.Errorf("update not persisted: %+v", got)
	}

	missing := &Resultado{ID: uuid.New()}
	if err := s.UpdateClassificacao(ctx, missing); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

// A stored result reads back with the classification its recorded table
// version produces, even after the norms were reseeded.
func TestSQLiteStore_PersistedClassificationSurvivesReseed(t *testing.T) {
	results, norms := newTestSQLiteStores(t)
	ctx := context.Background()
	svc := NewService(results, norms, zerolog.Nop())

	saved, err := svc.Submit(ctx, betaRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := norms.Import(ctx, []byte(betaReseed)); err != nil {
		t.Fatalf("Import: %v", err)
	}

	got, err := svc.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	fresh, err := norms.PontuarComTabela(ctx, got.Entrada(), got.TabelaNormativaID, got.QITabelaID)
	if err != nil {
		t.Fatalf("PontuarComTabela: %v", err)
	}
	if got.Percentil != fresh.Classificado.Percentil || got.Classificacao != fresh.Classificado.Rotulo {
		t.Errorf("stored p%d %s, fresh p%d %s", got.Percentil, got.Classificacao,
			fresh.Classificado.Percentil, fresh.Classificado.Rotulo)
	}

	current, err := norms.Pontuar(ctx, got.Entrada())
	if err != nil {
		t.Fatalf("Pontuar: %v", err)
	}
	if current.Tabela.ID == got.TabelaNormativaID {
		t.Error("expected the reseed to activate a new table")
	}

	v, err := svc.Verify(ctx, saved.ID)
	if err != nil || !v.Confere {
		t.Errorf("expected verification to pass, got %+v, %v", v, err)
	}
}
