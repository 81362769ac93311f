package normativa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psicotran/psicotran/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type tableRepoPG struct{ pool *pgxpool.Pool }

func NewTableRepoPG(pool *pgxpool.Pool) TableRepository {
	return &tableRepoPG{pool: pool}
}

func (r *tableRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const tabelaCols = `id, nome, tipo, versao, criterio, valor_criterio, descricao, ativa, created_at`

func (r *tableRepoPG) scanTabela(row pgx.Row) (*Tabela, error) {
	var t Tabela
	err := row.Scan(&t.ID, &t.Nome, &t.Tipo, &t.Versao, &t.Criterio, &t.ValorCriterio,
		&t.Descricao, &t.Ativa, &t.CreatedAt)
	return &t, err
}

func (r *tableRepoPG) collect(rows pgx.Rows) ([]*Tabela, error) {
	defer rows.Close()
	var items []*Tabela
	for rows.Next() {
		t, err := r.scanTabela(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *tableRepoPG) ListActive(ctx context.Context, tipo Tipo) ([]*Tabela, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tabelaCols+` FROM tabela_normativa WHERE tipo = $1 AND ativa ORDER BY id`, tipo)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *tableRepoPG) List(ctx context.Context, f Filtro, limit, offset int) ([]*Tabela, int, error) {
	where, args := filtroSQL(f, func(i int) string { return fmt.Sprintf("$%d", i) })

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tabela_normativa`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT `+tabelaCols+` FROM tabela_normativa%s ORDER BY tipo, id LIMIT $%d OFFSET $%d`, where, n+1, n+2),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *tableRepoPG) GetByID(ctx context.Context, id int64) (*Tabela, error) {
	t, err := r.scanTabela(r.conn(ctx).QueryRow(ctx,
		`SELECT `+tabelaCols+` FROM tabela_normativa WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	return t, err
}

func (r *tableRepoPG) ListNormas(ctx context.Context, t *Tabela) ([]*Norma, error) {
	f, ok := LookupFamilia(t.Tipo)
	if !ok {
		return nil, &ConfigurationError{Tipo: t.Tipo, Reason: "unknown test family"}
	}
	rows, err := r.conn(ctx).Query(ctx, normasSelectSQL(f, "$1"), t.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Norma
	for rows.Next() {
		n := &Norma{Campos: f.NovosCampos()}
		dest := append([]any{&n.ID, &n.TabelaID, &n.Percentil, &n.Classificacao}, n.Campos.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *tableRepoPG) Replace(ctx context.Context, lote ...Substituicao) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		for _, sub := range lote {
			if err := r.replace(ctx, sub.Tabela, sub.Normas); err != nil {
				return fmt.Errorf("table %s: %w", sub.Tabela.Nome, err)
			}
		}
		return nil
	})
}

func (r *tableRepoPG) replace(ctx context.Context, t *Tabela, normas []*Norma) error {
	f, ok := LookupFamilia(t.Tipo)
	if !ok {
		return &ConfigurationError{Tipo: t.Tipo, Reason: "unknown test family"}
	}
	ativas, err := r.ListActive(ctx, f.Tipo)
	if err != nil {
		return err
	}
	for _, old := range ativas {
		if !old.MesmaSelecao(t) {
			continue
		}
		if _, err := r.conn(ctx).Exec(ctx, `UPDATE tabela_normativa SET ativa = FALSE WHERE id = $1`, old.ID); err != nil {
			return fmt.Errorf("deactivate table %d: %w", old.ID, err)
		}
	}

	t.Ativa = true
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO tabela_normativa (nome, tipo, versao, criterio, valor_criterio, descricao, ativa)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		t.Nome, f.Tipo, t.Versao, t.Criterio, t.ValorCriterio, t.Descricao, t.Ativa,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert table: %w", err)
	}

	insert := normaInsertSQL(f, func(i int) string { return fmt.Sprintf("$%d", i) }) + ` RETURNING id`
	for _, n := range normas {
		n.TabelaID = t.ID
		args := append([]any{n.TabelaID, n.Percentil, n.Classificacao}, n.Campos.args()...)
		if err := r.conn(ctx).QueryRow(ctx, insert, args...).Scan(&n.ID); err != nil {
			return fmt.Errorf("insert norm row: %w", err)
		}
	}
	return nil
}

// filtroSQL renders a WHERE clause for f using the driver's placeholder style.
func filtroSQL(f Filtro, ph func(int) string) (string, []any) {
	var conds []string
	var args []any
	if f.Tipo != "" {
		args = append(args, f.Tipo)
		conds = append(conds, "tipo = "+ph(len(args)))
	}
	if f.SomenteAtivas {
		conds = append(conds, "ativa")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func normasSelectSQL(f *Familia, ph string) string {
	return fmt.Sprintf(`SELECT id, tabela_id, percentil, classificacao, %s FROM %s WHERE tabela_id = %s ORDER BY id`,
		strings.Join(f.Colunas, ", "), f.TabelaNormas, ph)
}

func normaInsertSQL(f *Familia, ph func(int) string) string {
	cols := append([]string{"tabela_id", "percentil", "classificacao"}, f.Colunas...)
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = ph(i + 1)
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, f.TabelaNormas, strings.Join(cols, ", "), strings.Join(marks, ", "))
}
