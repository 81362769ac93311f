package normativa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/psicotran/psicotran/internal/platform/db"
)

// SQLiteStore is the embedded TableRepository used by the offline CLI.
type SQLiteStore struct {
	db *sql.DB
}

type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func NewSQLiteStore(ctx context.Context, sqlDB *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: sqlDB}
	if err := db.ExecSchema(ctx, sqlDB, sqliteSchema); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tabela_normativa (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL,
		tipo TEXT NOT NULL,
		versao TEXT NOT NULL DEFAULT '',
		criterio TEXT NOT NULL DEFAULT 'Geral',
		valor_criterio TEXT,
		descricao TEXT,
		ativa INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tabela_normativa_tipo_ativa ON tabela_normativa(tipo, ativa);`,
	`CREATE TABLE IF NOT EXISTS norma_ac (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		fundamental_min REAL, fundamental_max REAL,
		medio_min REAL, medio_max REAL,
		superior_min REAL, superior_max REAL
	);`,
	`CREATE TABLE IF NOT EXISTS norma_beta_iii (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		resultado_min REAL NOT NULL,
		resultado_max REAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS norma_bpa2 (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		tipo_atencao TEXT NOT NULL,
		criterio TEXT NOT NULL DEFAULT '',
		valor_criterio TEXT NOT NULL DEFAULT '',
		pontos_min REAL NOT NULL,
		pontos_max REAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS norma_rotas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		rota_tipo TEXT NOT NULL DEFAULT '',
		pontos_min REAL NOT NULL,
		pontos_max REAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS norma_mig (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		tipo_avaliacao TEXT NOT NULL DEFAULT '',
		acertos_min REAL NOT NULL,
		acertos_max REAL NOT NULL,
		qi INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS norma_mvt (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		tipo_cnh TEXT NOT NULL DEFAULT '',
		resultado_min REAL NOT NULL,
		resultado_max REAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS norma_r1 (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		escolaridade TEXT NOT NULL DEFAULT '',
		acertos_min REAL NOT NULL,
		acertos_max REAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS norma_memore (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tabela_id INTEGER NOT NULL REFERENCES tabela_normativa(id),
		percentil INTEGER NOT NULL,
		classificacao TEXT NOT NULL,
		resultado_min REAL NOT NULL,
		resultado_max REAL NOT NULL
	);`,
}

func sqlitePlaceholder(int) string { return "?" }

func (s *SQLiteStore) scanTabela(scan func(...any) error) (*Tabela, error) {
	var t Tabela
	var valor, descricao sql.NullString
	err := scan(&t.ID, &t.Nome, &t.Tipo, &t.Versao, &t.Criterio, &valor, &descricao, &t.Ativa, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if valor.Valid {
		t.ValorCriterio = &valor.String
	}
	if descricao.Valid {
		t.Descricao = &descricao.String
	}
	return &t, nil
}

func (s *SQLiteStore) queryTabelas(ctx context.Context, q sqlQuerier, query string, args ...any) ([]*Tabela, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Tabela
	for rows.Next() {
		t, err := s.scanTabela(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) ListActive(ctx context.Context, tipo Tipo) ([]*Tabela, error) {
	return s.listActive(ctx, s.db, tipo)
}

func (s *SQLiteStore) listActive(ctx context.Context, q sqlQuerier, tipo Tipo) ([]*Tabela, error) {
	return s.queryTabelas(ctx, q,
		`SELECT `+tabelaCols+` FROM tabela_normativa WHERE tipo = ? AND ativa = 1 ORDER BY id`, tipo)
}

func (s *SQLiteStore) List(ctx context.Context, f Filtro, limit, offset int) ([]*Tabela, int, error) {
	where, args := filtroSQL(f, sqlitePlaceholder)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tabela_normativa`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := s.queryTabelas(ctx, s.db,
		`SELECT `+tabelaCols+` FROM tabela_normativa`+where+` ORDER BY tipo, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	return items, total, err
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Tabela, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tabelaCols+` FROM tabela_normativa WHERE id = ?`, id)
	t, err := s.scanTabela(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	return t, err
}

func (s *SQLiteStore) ListNormas(ctx context.Context, t *Tabela) ([]*Norma, error) {
	f, ok := LookupFamilia(t.Tipo)
	if !ok {
		return nil, &ConfigurationError{Tipo: t.Tipo, Reason: "unknown test family"}
	}
	rows, err := s.db.QueryContext(ctx, normasSelectSQL(f, "?"), t.ID)
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

func (s *SQLiteStore) Replace(ctx context.Context, lote ...Substituicao) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, sub := range lote {
		if err := s.replace(ctx, tx, sub.Tabela, sub.Normas); err != nil {
			return fmt.Errorf("table %s: %w", sub.Tabela.Nome, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) replace(ctx context.Context, tx *sql.Tx, t *Tabela, normas []*Norma) error {
	f, ok := LookupFamilia(t.Tipo)
	if !ok {
		return &ConfigurationError{Tipo: t.Tipo, Reason: "unknown test family"}
	}

	ativas, err := s.listActive(ctx, tx, f.Tipo)
	if err != nil {
		return err
	}
	for _, old := range ativas {
		if !old.MesmaSelecao(t) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tabela_normativa SET ativa = 0 WHERE id = ?`, old.ID); err != nil {
			return fmt.Errorf("deactivate table %d: %w", old.ID, err)
		}
	}

	t.Ativa = true
	t.CreatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO tabela_normativa (nome, tipo, versao, criterio, valor_criterio, descricao, ativa, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Nome, f.Tipo, t.Versao, t.Criterio, t.ValorCriterio, t.Descricao, t.Ativa, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert table: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	insert := normaInsertSQL(f, sqlitePlaceholder)
	for _, n := range normas {
		n.TabelaID = t.ID
		args := append([]any{n.TabelaID, n.Percentil, n.Classificacao}, n.Campos.args()...)
		res, err := tx.ExecContext(ctx, insert, args...)
		if err != nil {
			return fmt.Errorf("insert norm row: %w", err)
		}
		if n.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}
