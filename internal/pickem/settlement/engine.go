package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/pickem-platform-poc/internal/pickem/dates"
	"github.com/radieske/pickem-platform-poc/internal/pickem/grammar"
	"github.com/radieske/pickem-platform-poc/internal/pickem/repo"
	"github.com/radieske/pickem-platform-poc/pkg/contracts/events"
)

// Store é o que o engine precisa da camada de persistência
type Store interface {
	PendingByTeam(ctx context.Context, team string, gameDates []string) ([]repo.Pick, error)
	CompleteGroup(ctx context.Context, picks []repo.Pick) error
}

// Publisher emite eventos pick_settled (best effort)
type Publisher interface {
	PublishPickSettled(ctx context.Context, e events.PickSettled) error
}

// TeamGame é um grupo de liquidação: o placar final do jogo de um time e,
// implicitamente, todos os picks pending que referenciam esse time.
// TeamScore é o placar do próprio time do grupo; OtherScore, do adversário.
type TeamGame struct {
	Team       string
	TeamScore  float64
	OtherScore float64
	GameDate   string // YYYY-MM-DD (Pacific); janela ± 1 dia na busca
}

// GroupResult é o desfecho independente de um grupo do lote.
type GroupResult struct {
	Team     string
	GameDate string
	Graded   int
	Winners  int
	Err      error
}

// BatchResult agrega os desfechos de todos os grupos de um settleBatch.
type BatchResult struct {
	Groups []GroupResult
}

// Failed retorna quantos grupos do lote falharam.
func (r BatchResult) Failed() int {
	n := 0
	for _, g := range r.Groups {
		if g.Err != nil {
			n++
		}
	}
	return n
}

// Engine decide vencedores e liquida lotes de jogos.
// Sem estado próprio: tudo entra e sai pelo Store injetado.
type Engine struct {
	log   *zap.Logger
	store Store
	publ  Publisher
}

func New(log *zap.Logger, store Store, publ Publisher) *Engine {
	return &Engine{log: log, store: store, publ: publ}
}

// CalculateWinner decide se um pick ganhou dado o placar final.
// teamScore é o placar do time do pick; quem chama responde pelo pareamento.
//
// Política de push: desigualdade estrita em todos os ramos — resultado exato
// na linha é derrota pro apostador (total == linha conta como "não passou";
// margin == spread não cobre; margin + spread == 0 não cobre).
//
// Pick malformado (variante desconhecida ou linha ativa <= 0) não é graduado:
// falha fechado com erro de validação.
func CalculateWinner(p *repo.Pick, teamScore, otherScore float64) (bool, error) {
	total := teamScore + otherScore
	margin := teamScore - otherScore

	switch p.Kind {
	case grammar.BetOverUnder:
		if p.TotalLine <= 0 {
			return false, fmt.Errorf("pick %s: %w", p.ID, grammar.ErrInvalidLine)
		}
		return (total > p.TotalLine) == p.PickedOver, nil

	case grammar.BetSpread:
		if p.SpreadPoints <= 0 {
			return false, fmt.Errorf("pick %s: %w", p.ID, grammar.ErrInvalidLine)
		}
		if p.IsFavorite {
			// favorito precisa vencer por mais que o spread
			return margin > p.SpreadPoints, nil
		}
		// azarão pode perder por até o spread, ou vencer
		return margin+p.SpreadPoints > 0, nil

	default:
		return false, fmt.Errorf("pick %s: unknown bet kind %q", p.ID, p.Kind)
	}
}

// SettleBatch liquida cada grupo do lote de forma independente: a falha de um
// grupo não impede nem desfaz a liquidação dos demais (sem transação entre
// grupos). Dentro de um grupo, conclusão dos picks e recálculo de pontos são
// atômicos (repo.CompleteGroup).
func (e *Engine) SettleBatch(ctx context.Context, games []TeamGame) BatchResult {
	res := BatchResult{Groups: make([]GroupResult, 0, len(games))}

	for _, g := range games {
		res.Groups = append(res.Groups, e.settleGroup(ctx, g))
	}
	return res
}

func (e *Engine) settleGroup(ctx context.Context, g TeamGame) GroupResult {
	out := GroupResult{Team: g.Team, GameDate: g.GameDate}

	window, err := dates.Range(g.GameDate)
	if err != nil {
		out.Err = err
		return out
	}

	picks, err := e.store.PendingByTeam(ctx, g.Team, window)
	if err != nil {
		out.Err = fmt.Errorf("load pending picks: %w", err)
		return out
	}
	if len(picks) == 0 {
		return out // nada pendente pro time nessa janela; não é erro
	}

	for i := range picks {
		won, gerr := CalculateWinner(&picks[i], g.TeamScore, g.OtherScore)
		if gerr != nil {
			out.Err = gerr
			return out
		}
		w := won
		picks[i].Winner = &w
		picks[i].Status = repo.StatusCompleted
		if won {
			out.Winners++
		}
	}
	out.Graded = len(picks)

	if err := e.store.CompleteGroup(ctx, picks); err != nil {
		out.Err = fmt.Errorf("persist group: %w", err)
		out.Graded, out.Winners = 0, 0
		return out
	}

	e.publish(ctx, picks)

	e.log.Info("group settled",
		zap.String("team", g.Team),
		zap.String("gameDate", g.GameDate),
		zap.Int("graded", out.Graded),
		zap.Int("winners", out.Winners),
	)
	return out
}

// publish emite um pick_settled por pick concluído; falha de publicação não
// desfaz a liquidação já persistida, só loga
func (e *Engine) publish(ctx context.Context, picks []repo.Pick) {
	if e.publ == nil {
		return
	}
	now := time.Now().UnixMilli()
	for i := range picks {
		p := &picks[i]
		line := p.SpreadPoints
		if p.Kind == grammar.BetOverUnder {
			line = p.TotalLine
		}
		ev := events.PickSettled{
			PickID:   p.ID,
			UserID:   p.UserID,
			Team:     p.Team,
			BetType:  string(p.Kind),
			Line:     line,
			Won:      p.Winner != nil && *p.Winner,
			GameDate: p.GameDate,
			TsUnixMs: now,
		}
		if err := e.publ.PublishPickSettled(ctx, ev); err != nil {
			e.log.Warn("pick_settled publish failed", zap.String("pickId", p.ID), zap.Error(err))
		}
	}
}
