package repository

import (
	"context"
	"database/sql"

	"github.com/radieske/pickem-platform-poc/internal/pickem/repo"
)

// PostgresRepo é o lado de leitura do worker: só recalcula o placar geral
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// Standings lê o placar corrente direto dos jogadores. Os pontos já foram
// recalculados pela transação de liquidação; aqui é só snapshot.
func (r *PostgresRepo) Standings(ctx context.Context) ([]repo.Standing, error) {
	const q = `
		SELECT id, name, points, picks_remaining
		FROM users
		ORDER BY points DESC, name;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []repo.Standing
	for rows.Next() {
		var s repo.Standing
		if err := rows.Scan(&s.UserID, &s.Name, &s.Points, &s.PicksRemaining); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
