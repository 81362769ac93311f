package avaliacao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/psicotran/psicotran/internal/platform/db"
)

// SQLiteStore is the embedded ResultRepository used by the offline CLI. It
// shares its database with normativa.SQLiteStore.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, sqlDB *sql.DB) (*SQLiteStore, error) {
	if err := db.ExecSchema(ctx, sqlDB, sqliteSchema); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: sqlDB}, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS resultado_teste (
		id TEXT PRIMARY KEY,
		avaliacao_id TEXT NOT NULL,
		paciente_id TEXT,
		tipo TEXT NOT NULL,
		subteste TEXT NOT NULL DEFAULT '',
		acertos INTEGER, erros INTEGER, omissoes INTEGER,
		vp INTEGER, vn INTEGER, fp INTEGER, fn INTEGER,
		idade INTEGER,
		escolaridade TEXT NOT NULL DEFAULT '',
		tipo_cnh TEXT NOT NULL DEFAULT '',
		contexto TEXT NOT NULL DEFAULT '',
		estado TEXT NOT NULL DEFAULT '',
		resultado REAL NOT NULL,
		tabela_normativa_id INTEGER NOT NULL,
		norma_id INTEGER NOT NULL,
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		ajuste TEXT NOT NULL DEFAULT 'none',
		qi INTEGER,
		qi_classificacao TEXT,
		qi_tabela_id INTEGER,
		created_at TIMESTAMP NOT NULL,
		recomputed_at TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_resultado_teste_avaliacao ON resultado_teste(avaliacao_id, created_at);`,
}

func (s *SQLiteStore) Create(ctx context.Context, r *Resultado) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resultado_teste (`+resultadoCols+`) VALUES (`+placeholders(resultadoColCount, sqlitePlaceholder)+`)`,
		sqliteArgs(r)...)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id uuid.UUID) (*Resultado, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resultadoCols+` FROM resultado_teste WHERE id = ?`, id.String())
	r, err := scanSQLite(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	return r, err
}

func (s *SQLiteStore) ListByAvaliacao(ctx context.Context, avaliacaoID uuid.UUID) ([]*Resultado, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultadoCols+` FROM resultado_teste WHERE avaliacao_id = ? ORDER BY created_at, id`, avaliacaoID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Resultado
	for rows.Next() {
		r, err := scanSQLite(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) UpdateClassificacao(ctx context.Context, r *Resultado) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE resultado_teste SET
			resultado = ?, tabela_normativa_id = ?, norma_id = ?, percentil = ?,
			classificacao = ?, ajuste = ?, qi = ?, qi_classificacao = ?, qi_tabela_id = ?,
			recomputed_at = ?
		WHERE id = ?`,
		r.Resultado, r.TabelaNormativaID, r.NormaID, r.Percentil,
		r.Classificacao, string(r.Ajuste), r.QI, r.QIClassificacao, r.QITabelaID,
		r.RecomputedAt, r.ID.String())
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrResultNotFound
	}
	return nil
}

func sqlitePlaceholder(int) string { return "?" }

// sqliteArgs stores ids as their canonical text form.
func sqliteArgs(r *Resultado) []any {
	args := r.args()
	args[0] = r.ID.String()
	args[1] = r.AvaliacaoID.String()
	if r.PacienteID != nil {
		args[2] = r.PacienteID.String()
	} else {
		args[2] = nil
	}
	return args
}

func scanSQLite(scan func(...any) error) (*Resultado, error) {
	var r Resultado
	var pacienteID uuid.NullUUID
	dest := r.dest()
	dest[2] = &pacienteID
	if err := scan(dest...); err != nil {
		return nil, err
	}
	if pacienteID.Valid {
		id := pacienteID.UUID
		r.PacienteID = &id
	}
	return &r, nil
}
