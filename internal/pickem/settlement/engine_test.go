package settlement

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/pickem-platform-poc/internal/pickem/grammar"
	"github.com/radieske/pickem-platform-poc/internal/pickem/repo"
	"github.com/radieske/pickem-platform-poc/pkg/contracts/events"
)

func spreadPick(id, userID, team string, points float64, favorite bool) repo.Pick {
	return repo.Pick{
		ID: id, UserID: userID, Team: team,
		Kind: grammar.BetSpread, SpreadPoints: points, IsFavorite: favorite,
		Status: repo.StatusPending, GameDate: "2026-03-15",
	}
}

func overUnderPick(id, userID, team string, line float64, over bool) repo.Pick {
	return repo.Pick{
		ID: id, UserID: userID, Team: team,
		Kind: grammar.BetOverUnder, TotalLine: line, PickedOver: over,
		Status: repo.StatusPending, GameDate: "2026-03-15",
	}
}

func TestCalculateWinnerSpread(t *testing.T) {
	tests := []struct {
		name       string
		points     float64
		favorite   bool
		team       float64
		other      float64
		wantWinner bool
	}{
		{"favorite covers", 7.5, true, 80, 70, true},
		{"favorite wins but does not cover", 7.5, true, 75, 70, false},
		{"favorite push is a loss", 7.5, true, 77.5, 70, false},
		{"favorite integer push is a loss", 7, true, 77, 70, false},
		{"favorite loses outright", 7.5, true, 60, 70, false},
		{"underdog covers on narrow loss", 7.5, false, 67, 70, true},
		{"underdog wins outright", 7.5, false, 72, 70, true},
		{"underdog push is a loss", 7.5, false, 70, 77.5, false},
		{"underdog loses past the line", 7.5, false, 60, 70, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := spreadPick("p1", "u1", "Duke", tt.points, tt.favorite)
			won, err := CalculateWinner(&p, tt.team, tt.other)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWinner, won)
		})
	}
}

func TestCalculateWinnerOverUnder(t *testing.T) {
	tests := []struct {
		name       string
		line       float64
		over       bool
		team       float64
		other      float64
		wantWinner bool
	}{
		{"over hits", 150, true, 80, 71, true},
		{"over misses", 150, true, 70, 71, false},
		{"exact total is not over so over loses", 150, true, 80, 70, false},
		{"exact total is not over so under wins", 150, false, 80, 70, true},
		{"under hits", 150, false, 70, 71, true},
		{"under misses", 150, false, 90, 80, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := overUnderPick("p1", "u1", "Duke", tt.line, tt.over)
			won, err := CalculateWinner(&p, tt.team, tt.other)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWinner, won)
		})
	}
}

// Pick malformado falha fechado, nunca é graduado.
func TestCalculateWinnerMalformed(t *testing.T) {
	bad := repo.Pick{ID: "p1", Team: "Duke", Kind: grammar.BetKind("parlay")}
	_, err := CalculateWinner(&bad, 80, 70)
	assert.Error(t, err)

	zeroSpread := spreadPick("p2", "u1", "Duke", 0, true)
	_, err = CalculateWinner(&zeroSpread, 80, 70)
	assert.ErrorIs(t, err, grammar.ErrInvalidLine)

	zeroLine := overUnderPick("p3", "u1", "Duke", 0, true)
	_, err = CalculateWinner(&zeroLine, 80, 70)
	assert.ErrorIs(t, err, grammar.ErrInvalidLine)
}

// fakeStore guarda os picks em memória e emula a semântica do repo: a
// liquidação marca completed e os pontos são sempre o agregado de picks
// completed vencedores.
type fakeStore struct {
	picks     []repo.Pick
	failTeams map[string]error
}

func (f *fakeStore) PendingByTeam(_ context.Context, team string, gameDates []string) ([]repo.Pick, error) {
	inWindow := func(d string) bool {
		for _, w := range gameDates {
			if w == d {
				return true
			}
		}
		return false
	}
	var out []repo.Pick
	for _, p := range f.picks {
		if p.Status == repo.StatusPending && strings.EqualFold(p.Team, team) && inWindow(p.GameDate) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CompleteGroup(_ context.Context, picks []repo.Pick) error {
	if len(picks) == 0 {
		return nil
	}
	if err := f.failTeams[strings.ToLower(picks[0].Team)]; err != nil {
		return err
	}
	for _, g := range picks {
		for i := range f.picks {
			if f.picks[i].ID == g.ID {
				w := *g.Winner
				f.picks[i].Status = repo.StatusCompleted
				f.picks[i].Winner = &w
			}
		}
	}
	return nil
}

// points reproduz o recálculo agregado da transação de liquidação
func (f *fakeStore) points(userID string) int {
	n := 0
	for _, p := range f.picks {
		if p.UserID == userID && p.Status == repo.StatusCompleted && p.Winner != nil && *p.Winner {
			n++
		}
	}
	return n
}

type fakePublisher struct {
	events []events.PickSettled
	err    error
}

func (f *fakePublisher) PublishPickSettled(_ context.Context, e events.PickSettled) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func TestSettleBatchGradesGroup(t *testing.T) {
	store := &fakeStore{picks: []repo.Pick{
		spreadPick("p1", "todd", "Duke", 7.5, true),     // cobre: vence por 10
		spreadPick("p2", "mike", "Duke", 15, true),      // não cobre o -15
		overUnderPick("p3", "jeff", "Duke", 150, true),  // total 150 exato: push perde
		overUnderPick("p4", "todd", "Duke", 149, false), // under 149, total 150: perde
	}}
	publ := &fakePublisher{}
	eng := New(zap.NewNop(), store, publ)

	res := eng.SettleBatch(context.Background(), []TeamGame{
		{Team: "duke", TeamScore: 80, OtherScore: 70, GameDate: "2026-03-15"},
	})

	require.Len(t, res.Groups, 1)
	g := res.Groups[0]
	require.NoError(t, g.Err)
	assert.Equal(t, 4, g.Graded)
	assert.Equal(t, 1, g.Winners)

	assert.Equal(t, 1, store.points("todd"))
	assert.Equal(t, 0, store.points("mike"))
	assert.Equal(t, 0, store.points("jeff"))
	assert.Len(t, publ.events, 4)

	for _, p := range store.picks {
		assert.Equal(t, repo.StatusCompleted, p.Status)
		require.NotNil(t, p.Winner)
	}
}

// Liquidar de novo o mesmo grupo não muda pontuação nenhuma: os picks já
// estão completed e os pontos são agregados, não incrementados.
func TestSettleBatchIdempotent(t *testing.T) {
	store := &fakeStore{picks: []repo.Pick{
		spreadPick("p1", "todd", "Duke", 7.5, true),
	}}
	eng := New(zap.NewNop(), store, &fakePublisher{})
	game := []TeamGame{{Team: "Duke", TeamScore: 80, OtherScore: 70, GameDate: "2026-03-15"}}

	res := eng.SettleBatch(context.Background(), game)
	require.NoError(t, res.Groups[0].Err)
	assert.Equal(t, 1, store.points("todd"))

	res = eng.SettleBatch(context.Background(), game)
	require.NoError(t, res.Groups[0].Err)
	assert.Equal(t, 0, res.Groups[0].Graded)
	assert.Equal(t, 1, store.points("todd"))
}

// A falha de um grupo não impede nem desfaz a liquidação dos demais.
func TestSettleBatchPartialFailure(t *testing.T) {
	store := &fakeStore{
		picks: []repo.Pick{
			spreadPick("p1", "todd", "Duke", 7.5, true),
			spreadPick("p2", "mike", "Gonzaga", 3, false),
		},
		failTeams: map[string]error{"duke": errors.New("pg down")},
	}
	eng := New(zap.NewNop(), store, &fakePublisher{})

	res := eng.SettleBatch(context.Background(), []TeamGame{
		{Team: "Duke", TeamScore: 80, OtherScore: 70, GameDate: "2026-03-15"},
		{Team: "Gonzaga", TeamScore: 70, OtherScore: 72, GameDate: "2026-03-15"},
	})

	require.Len(t, res.Groups, 2)
	assert.Error(t, res.Groups[0].Err)
	assert.NoError(t, res.Groups[1].Err)
	assert.Equal(t, 1, res.Groups[1].Graded)
	assert.Equal(t, 1, res.Failed())

	// Duke segue pending; Gonzaga comitou (azarão cobriu o +3)
	assert.Equal(t, repo.StatusPending, store.picks[0].Status)
	assert.Equal(t, repo.StatusCompleted, store.picks[1].Status)
	assert.Equal(t, 1, store.points("mike"))
}

// Janela de liquidação: picks do dia anterior e seguinte entram no grupo.
func TestSettleBatchDateWindow(t *testing.T) {
	dayBefore := spreadPick("p1", "todd", "Duke", 7.5, true)
	dayBefore.GameDate = "2026-03-14"
	dayAfter := spreadPick("p2", "mike", "Duke", 7.5, true)
	dayAfter.GameDate = "2026-03-16"
	outside := spreadPick("p3", "jeff", "Duke", 7.5, true)
	outside.GameDate = "2026-03-20"

	store := &fakeStore{picks: []repo.Pick{dayBefore, dayAfter, outside}}
	eng := New(zap.NewNop(), store, &fakePublisher{})

	res := eng.SettleBatch(context.Background(), []TeamGame{
		{Team: "Duke", TeamScore: 80, OtherScore: 70, GameDate: "2026-03-15"},
	})
	require.NoError(t, res.Groups[0].Err)
	assert.Equal(t, 2, res.Groups[0].Graded)
	assert.Equal(t, repo.StatusPending, store.picks[2].Status)
}

func TestSettleBatchEmptyGroup(t *testing.T) {
	store := &fakeStore{}
	eng := New(zap.NewNop(), store, &fakePublisher{})

	res := eng.SettleBatch(context.Background(), []TeamGame{
		{Team: "Duke", TeamScore: 80, OtherScore: 70, GameDate: "2026-03-15"},
	})
	require.NoError(t, res.Groups[0].Err)
	assert.Equal(t, 0, res.Groups[0].Graded)
}

// Pick malformado no grupo falha o grupo inteiro sem persistir nada.
func TestSettleBatchMalformedPickFailsClosed(t *testing.T) {
	bad := repo.Pick{
		ID: "p1", UserID: "todd", Team: "Duke",
		Kind: grammar.BetSpread, SpreadPoints: 0,
		Status: repo.StatusPending, GameDate: "2026-03-15",
	}
	store := &fakeStore{picks: []repo.Pick{bad}}
	eng := New(zap.NewNop(), store, &fakePublisher{})

	res := eng.SettleBatch(context.Background(), []TeamGame{
		{Team: "Duke", TeamScore: 80, OtherScore: 70, GameDate: "2026-03-15"},
	})
	assert.ErrorIs(t, res.Groups[0].Err, grammar.ErrInvalidLine)
	assert.Equal(t, repo.StatusPending, store.picks[0].Status)
}

// Falha de publicação não desfaz liquidação já persistida.
func TestSettleBatchPublishBestEffort(t *testing.T) {
	store := &fakeStore{picks: []repo.Pick{
		spreadPick("p1", "todd", "Duke", 7.5, true),
	}}
	eng := New(zap.NewNop(), store, &fakePublisher{err: errors.New("kafka down")})

	res := eng.SettleBatch(context.Background(), []TeamGame{
		{Team: "Duke", TeamScore: 80, OtherScore: 70, GameDate: "2026-03-15"},
	})
	require.NoError(t, res.Groups[0].Err)
	assert.Equal(t, repo.StatusCompleted, store.picks[0].Status)
}
