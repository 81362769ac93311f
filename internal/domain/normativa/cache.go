package normativa

import (
	"context"
	"sync"
	"time"
)

type ativasEntry struct {
	tabelas   []*Tabela
	expiresAt time.Time
}

// Cache is a read-through TableRepository decorator. Active-table lists
// expire after the TTL or on Invalidate; band sets are keyed by table id and
// never change, so they are kept for the life of the process.
type Cache struct {
	next TableRepository
	ttl  time.Duration
	now  func() time.Time

	mu     sync.RWMutex
	ativas map[Tipo]*ativasEntry
	normas map[int64][]*Norma
}

func NewCache(next TableRepository, ttl time.Duration) *Cache {
	return &Cache{
		next:   next,
		ttl:    ttl,
		now:    time.Now,
		ativas: make(map[Tipo]*ativasEntry),
		normas: make(map[int64][]*Norma),
	}
}

func (c *Cache) ListActive(ctx context.Context, tipo Tipo) ([]*Tabela, error) {
	c.mu.RLock()
	e, ok := c.ativas[tipo]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.tabelas, nil
	}

	tabelas, err := c.next.ListActive(ctx, tipo)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.ativas[tipo] = &ativasEntry{tabelas: tabelas, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return tabelas, nil
}

func (c *Cache) List(ctx context.Context, f Filtro, limit, offset int) ([]*Tabela, int, error) {
	return c.next.List(ctx, f, limit, offset)
}

func (c *Cache) GetByID(ctx context.Context, id int64) (*Tabela, error) {
	return c.next.GetByID(ctx, id)
}

func (c *Cache) ListNormas(ctx context.Context, t *Tabela) ([]*Norma, error) {
	c.mu.RLock()
	normas, ok := c.normas[t.ID]
	c.mu.RUnlock()
	if ok {
		return normas, nil
	}

	normas, err := c.next.ListNormas(ctx, t)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.normas[t.ID] = normas
	c.mu.Unlock()
	return normas, nil
}

// Replace writes through and drops the active-table lists.
func (c *Cache) Replace(ctx context.Context, lote ...Substituicao) error {
	if err := c.next.Replace(ctx, lote...); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate drops every cached active-table list.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.ativas = make(map[Tipo]*ativasEntry)
	c.mu.Unlock()
}
