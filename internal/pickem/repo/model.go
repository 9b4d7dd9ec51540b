package repo

import (
	"time"

	"github.com/radieske/pickem-platform-poc/internal/pickem/grammar"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Pick é o modelo persistido no Postgres.
// As colunas spread e over_under coexistem por compatibilidade com o store
// (sem sum type nativo): a coluna da variante inativa fica em 0 e a variante
// ativa é sempre decidida pela coluna bet_type, nunca pelo 0.
type Pick struct {
	ID     string
	UserID string
	Team   string
	Kind   grammar.BetKind

	SpreadPoints float64
	IsFavorite   bool
	TotalLine    float64
	PickedOver   bool

	Status    Status
	Winner    *bool // preenchido só quando Status = completed
	GameDate  string
	CreatedAt time.Time
	UpdatedAt time.Time

	UserName string // join com users, só leitura
}

// Parsed projeta o pick persistido de volta pro tipo da gramática (exibição).
func (p *Pick) Parsed() *grammar.Pick {
	return &grammar.Pick{
		Team:         p.Team,
		Kind:         p.Kind,
		SpreadPoints: p.SpreadPoints,
		IsFavorite:   p.IsFavorite,
		TotalLine:    p.TotalLine,
		PickedOver:   p.PickedOver,
	}
}

type User struct {
	ID             string
	Name           string
	Points         int
	PicksRemaining int
	CreatedAt      time.Time
}

// Standing é uma linha do placar geral.
type Standing struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Points         int    `json:"points"`
	PicksRemaining int    `json:"picks_remaining"`
}
