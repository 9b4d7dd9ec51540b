package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/pickem-platform-poc/internal/pickem/grammar"
)

// Postgres implementa a persistência de picks e jogadores
type Postgres struct {
	db        *sql.DB
	allotment int // cota inicial de picks por jogador
}

// NewPostgres retorna uma instância do repositório
func NewPostgres(db *sql.DB, allotment int) *Postgres {
	return &Postgres{db: db, allotment: allotment}
}

var (
	ErrNoPicksRemaining = errors.New("no picks remaining")
	ErrNotFound         = errors.New("not found")
)

// CreateUser insere um jogador com a cota inicial de picks
func (p *Postgres) CreateUser(ctx context.Context, name string) (*User, error) {
	u := &User{
		ID:             uuid.NewString(),
		Name:           name,
		PicksRemaining: p.allotment,
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, name, points, picks_remaining, created_at)
		VALUES ($1,$2,0,$3,NOW())`,
		u.ID, u.Name, u.PicksRemaining,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser retorna um jogador pelo id
func (p *Postgres) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, points, picks_remaining, created_at
		FROM users WHERE id=$1`, id,
	).Scan(&u.ID, &u.Name, &u.Points, &u.PicksRemaining, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers retorna todos os jogadores (grupo fechado, lista curta)
func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, points, picks_remaining, created_at
		FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Points, &u.PicksRemaining, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CreatePick insere um pick pending e debita a cota do jogador na mesma
// transação. Lock pessimista na linha do jogador; a cota nunca fica negativa.
func (p *Postgres) CreatePick(ctx context.Context, pk *Pick) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var remaining int
	err = tx.QueryRowContext(ctx,
		`SELECT picks_remaining FROM users WHERE id=$1 FOR UPDATE`, pk.UserID,
	).Scan(&remaining)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if remaining <= 0 {
		return "", ErrNoPicksRemaining
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO picks (id, user_id, team, bet_type, spread, over_under, is_favorite, is_over, status, game_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'pending',$9,NOW(),NOW())`,
		id, pk.UserID, pk.Team, string(pk.Kind), pk.SpreadPoints, pk.TotalLine, pk.IsFavorite, pk.PickedOver, pk.GameDate,
	)
	if err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET picks_remaining = GREATEST(picks_remaining - 1, 0) WHERE id=$1`, pk.UserID,
	); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

const pickColumns = `
	p.id, p.user_id, p.team, p.bet_type, p.spread, p.over_under,
	p.is_favorite, p.is_over, p.status, p.winner, p.game_date,
	p.created_at, p.updated_at, u.name`

// PendingByTeam retorna os picks pending de um time dentro da janela de datas.
// O nome do time é comparado sem case.
func (p *Postgres) PendingByTeam(ctx context.Context, team string, gameDates []string) ([]Pick, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+pickColumns+`
		FROM picks p JOIN users u ON u.id = p.user_id
		WHERE p.status='pending' AND LOWER(p.team) = LOWER($1) AND p.game_date = ANY($2)
		ORDER BY p.created_at`,
		team, pq.Array(gameDates),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPicks(rows)
}

// PendingByDates retorna todos os picks pending da janela, ordenados por time
// (alimenta a tela de entrada de placares)
func (p *Postgres) PendingByDates(ctx context.Context, gameDates []string) ([]Pick, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+pickColumns+`
		FROM picks p JOIN users u ON u.id = p.user_id
		WHERE p.status='pending' AND p.game_date = ANY($1)
		ORDER BY p.game_date, p.team, p.created_at`,
		pq.Array(gameDates),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPicks(rows)
}

// CompleteGroup conclui os picks de um grupo (status + winner) e recalcula a
// pontuação dos jogadores afetados, tudo numa transação só.
//
// A pontuação é sempre recalculada como agregado sobre os picks completed
// vencedores, nunca incrementada: re-submeter o mesmo placar não duplica
// ponto, e a escrita única fecha a corrida entre lotes de times diferentes
// atualizando o mesmo jogador.
func (p *Postgres) CompleteGroup(ctx context.Context, picks []Pick) error {
	if len(picks) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	userSet := map[string]struct{}{}
	for i := range picks {
		pk := &picks[i]
		if pk.Winner == nil {
			return fmt.Errorf("pick %s: winner not graded", pk.ID)
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE picks SET status='completed', winner=$1, updated_at=NOW() WHERE id=$2`,
			*pk.Winner, pk.ID,
		); err != nil {
			return fmt.Errorf("complete pick %s: %w", pk.ID, err)
		}
		userSet[pk.UserID] = struct{}{}
	}

	userIDs := make([]string, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE users u
		SET points = (
			SELECT COUNT(*) FROM picks pk
			WHERE pk.user_id = u.id AND pk.status='completed' AND pk.winner
		)
		WHERE u.id = ANY($1)`,
		pq.Array(userIDs),
	); err != nil {
		return fmt.Errorf("recompute points: %w", err)
	}

	return tx.Commit()
}

// Standings retorna o placar geral ordenado por pontos
func (p *Postgres) Standings(ctx context.Context) ([]Standing, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, points, picks_remaining
		FROM users ORDER BY points DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.UserID, &s.Name, &s.Points, &s.PicksRemaining); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanPicks(rows *sql.Rows) ([]Pick, error) {
	var out []Pick
	for rows.Next() {
		var pk Pick
		var kind string
		var winner sql.NullBool
		if err := rows.Scan(
			&pk.ID, &pk.UserID, &pk.Team, &kind, &pk.SpreadPoints, &pk.TotalLine,
			&pk.IsFavorite, &pk.PickedOver, &pk.Status, &winner, &pk.GameDate,
			&pk.CreatedAt, &pk.UpdatedAt, &pk.UserName,
		); err != nil {
			return nil, err
		}
		pk.Kind = kindFromColumn(kind, pk.TotalLine)
		if winner.Valid {
			w := winner.Bool
			pk.Winner = &w
		}
		out = append(out, pk)
	}
	return out, rows.Err()
}

// kindFromColumn resolve a variante pela coluna bet_type; linhas antigas sem
// bet_type caem no sentinela over_under > 0.
func kindFromColumn(kind string, totalLine float64) grammar.BetKind {
	switch kind {
	case string(grammar.BetSpread):
		return grammar.BetSpread
	case string(grammar.BetOverUnder):
		return grammar.BetOverUnder
	default:
		if totalLine > 0 {
			return grammar.BetOverUnder
		}
		return grammar.BetSpread
	}
}
