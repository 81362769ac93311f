package avaliacao

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
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

type resultRepoPG struct{ pool *pgxpool.Pool }

func NewResultRepoPG(pool *pgxpool.Pool) ResultRepository {
	return &resultRepoPG{pool: pool}
}

func (r *resultRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *resultRepoPG) Create(ctx context.Context, res *Resultado) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO resultado_teste (`+resultadoCols+`) VALUES (`+placeholders(resultadoColCount, pgPlaceholder)+`)`,
		res.args()...)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (r *resultRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Resultado, error) {
	var res Resultado
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+resultadoCols+` FROM resultado_teste WHERE id = $1`, id).Scan(res.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resultRepoPG) ListByAvaliacao(ctx context.Context, avaliacaoID uuid.UUID) ([]*Resultado, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+resultadoCols+` FROM resultado_teste WHERE avaliacao_id = $1 ORDER BY created_at, id`, avaliacaoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Resultado
	for rows.Next() {
		var res Resultado
		if err := rows.Scan(res.dest()...); err != nil {
			return nil, err
		}
		items = append(items, &res)
	}
	return items, rows.Err()
}

func (r *resultRepoPG) UpdateClassificacao(ctx context.Context, res *Resultado) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE resultado_teste SET
			resultado = $2, tabela_normativa_id = $3, norma_id = $4, percentil = $5,
			classificacao = $6, ajuste = $7, qi = $8, qi_classificacao = $9, qi_tabela_id = $10,
			recomputed_at = $11
		WHERE id = $1`,
		res.ID, res.Resultado, res.TabelaNormativaID, res.NormaID, res.Percentil,
		res.Classificacao, string(res.Ajuste), res.QI, res.QIClassificacao, res.QITabelaID,
		res.RecomputedAt)
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrResultNotFound
	}
	return nil
}

func pgPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

func placeholders(n int, ph func(int) string) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = ph(i + 1)
	}
	return strings.Join(marks, ", ")
}
