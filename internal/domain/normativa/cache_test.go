package normativa

import (
	"context"
	"testing"
	"time"
)

func TestCache_ListActiveHonoursTTL(t *testing.T) {
	ctx := context.Background()
	repo := newMockTableRepo()
	repo.add(&Tabela{Nome: "MIG Geral", Tipo: TipoMIG, Criterio: "Geral"})

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(repo, time.Minute)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := c.ListActive(ctx, TipoMIG); err != nil {
			t.Fatal(err)
		}
	}
	if repo.listActiveCalls != 1 {
		t.Errorf("expected 1 backend call within TTL, got %d", repo.listActiveCalls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.ListActive(ctx, TipoMIG); err != nil {
		t.Fatal(err)
	}
	if repo.listActiveCalls != 2 {
		t.Errorf("expected refresh after TTL, got %d calls", repo.listActiveCalls)
	}
}

func TestCache_ReplaceInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := newMockTableRepo()
	repo.add(&Tabela{Nome: "R1 Geral", Tipo: TipoR1, Criterio: "Geral"})
	c := NewCache(repo, time.Hour)

	before, _ := c.ListActive(ctx, TipoR1)
	novo := &Tabela{Nome: "R1 Geral 2", Tipo: TipoR1, Criterio: "Geral"}
	if err := c.Replace(ctx, Substituicao{Tabela: novo}); err != nil {
		t.Fatal(err)
	}
	after, _ := c.ListActive(ctx, TipoR1)

	if len(before) != 1 || len(after) != 1 {
		t.Fatalf("expected one active table before and after, got %d and %d", len(before), len(after))
	}
	if after[0].ID != novo.ID {
		t.Errorf("expected the new table %d after replace, got %d", novo.ID, after[0].ID)
	}
}

func TestCache_NormasCachedPerTable(t *testing.T) {
	ctx := context.Background()
	repo := newMockTableRepo()
	tb := repo.add(&Tabela{Nome: "MEMORE Geral", Tipo: TipoMemore, Criterio: "Geral"},
		escala(0, 50, "Médio", 0, 10))
	c := NewCache(repo, time.Hour)

	for i := 0; i < 5; i++ {
		normas, err := c.ListNormas(ctx, tb)
		if err != nil {
			t.Fatal(err)
		}
		if len(normas) != 1 {
			t.Fatalf("expected 1 band, got %d", len(normas))
		}
	}
	c.Invalidate()
	if _, err := c.ListNormas(ctx, tb); err != nil {
		t.Fatal(err)
	}
	if repo.listNormasCalls != 1 {
		t.Errorf("expected bands loaded once, got %d loads", repo.listNormasCalls)
	}
}
