package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/pickem-platform-poc/internal/pickem/dates"
	"github.com/radieske/pickem-platform-poc/internal/pickem/dto"
	"github.com/radieske/pickem-platform-poc/internal/pickem/grammar"
	"github.com/radieske/pickem-platform-poc/internal/pickem/repo"
	"github.com/radieske/pickem-platform-poc/internal/pickem/settlement"
)

// Store é o recorte de persistência que a API usa
type Store interface {
	CreateUser(ctx context.Context, name string) (*repo.User, error)
	GetUser(ctx context.Context, id string) (*repo.User, error)
	CreatePick(ctx context.Context, p *repo.Pick) (string, error)
	PendingByDates(ctx context.Context, gameDates []string) ([]repo.Pick, error)
	Standings(ctx context.Context) ([]repo.Standing, error)
}

// StandingsCache é o snapshot do placar em Redis (cache-aside)
type StandingsCache interface {
	GetStandings(ctx context.Context, dst any) (bool, error)
	SetStandings(ctx context.Context, v any, ttl time.Duration) error
}

// Settler liquida lotes de jogos
type Settler interface {
	SettleBatch(ctx context.Context, games []settlement.TeamGame) settlement.BatchResult
}

var (
	picksSubmitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "pickem_picks_submitted_total", Help: "picks aceitos"})
	parseRejected  = prometheus.NewCounter(prometheus.CounterOpts{Name: "pickem_parse_rejected_total", Help: "textos que não casaram com a gramática"})
	groupsSettled  = prometheus.NewCounter(prometheus.CounterOpts{Name: "pickem_groups_settled_total", Help: "grupos liquidados com sucesso"})
	groupsFailed   = prometheus.NewCounter(prometheus.CounterOpts{Name: "pickem_groups_failed_total", Help: "grupos com falha na liquidação"})
)

func init() {
	prometheus.MustRegister(picksSubmitted, parseRejected, groupsSettled, groupsFailed)
}

type Server struct {
	log     *zap.Logger
	store   Store
	cache   StandingsCache
	settler Settler
}

func NewServer(log *zap.Logger, store Store, cache StandingsCache, settler Settler) *Server {
	return &Server{log: log, store: store, cache: cache, settler: settler}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/users", s.createUser)
	r.Get("/v1/players", s.listPlayers)
	r.Post("/v1/picks", s.submitPick)
	r.Get("/v1/picks", s.pendingPicks)
	r.Post("/v1/scores", s.submitScores)
	return r
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "name required"})
		return
	}

	u, err := s.store.CreateUser(r.Context(), req.Name)
	if err != nil {
		s.log.Error("create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, dto.CreateUserResponse{
		UserID:         u.ID,
		Name:           u.Name,
		PicksRemaining: u.PicksRemaining,
	})
}

// listPlayers alimenta o placar que a UI fica consultando: tenta o snapshot
// no Redis e cai pro Postgres, repovoando o cache por 30s
func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	var cached []repo.Standing
	if ok, _ := s.cache.GetStandings(r.Context(), &cached); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	st, err := s.store.Standings(r.Context())
	if err != nil {
		s.log.Error("standings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	_ = s.cache.SetStandings(r.Context(), st, 30*time.Second)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) submitPick(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "user_id required"})
		return
	}

	gameDate := req.GameDate
	if gameDate == "" {
		gameDate = dates.Today()
	} else if _, err := dates.Range(gameDate); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "game_date must be YYYY-MM-DD"})
		return
	}

	parsed, err := grammar.Parse(req.Text)
	if err != nil {
		parseRejected.Inc()
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "could not read pick; expected " + grammar.ExampleForms,
		})
		return
	}

	u, err := s.store.GetUser(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
			return
		}
		s.log.Error("get user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if verr := grammar.Validate(parsed, u.PicksRemaining); verr != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: verr.Error()})
		return
	}

	pick := &repo.Pick{
		UserID:       u.ID,
		Team:         parsed.Team,
		Kind:         parsed.Kind,
		SpreadPoints: parsed.SpreadPoints,
		IsFavorite:   parsed.IsFavorite,
		TotalLine:    parsed.TotalLine,
		PickedOver:   parsed.PickedOver,
		Status:       repo.StatusPending,
		GameDate:     gameDate,
	}

	id, err := s.store.CreatePick(r.Context(), pick)
	if err != nil {
		// a cota pode ter acabado entre a validação e o insert
		if errors.Is(err, repo.ErrNoPicksRemaining) {
			writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: grammar.ErrNoPicksRemaining.Error()})
			return
		}
		s.log.Error("create pick", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	picksSubmitted.Inc()
	writeJSON(w, http.StatusCreated, dto.SubmitPickResponse{
		PickID:         id,
		Formatted:      grammar.Format(parsed),
		GameDate:       gameDate,
		PicksRemaining: u.PicksRemaining - 1,
	})
}

// pendingPicks lista os picks aguardando placar na janela date ± 1,
// agrupados por time (alimenta a tela de entrada de placares)
func (s *Server) pendingPicks(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = dates.Today()
	}
	window, err := dates.Range(date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	picks, err := s.store.PendingByDates(r.Context(), window)
	if err != nil {
		s.log.Error("pending picks", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp := dto.PendingPicksResponse{Date: date}
	idx := map[string]int{}
	for i := range picks {
		p := &picks[i]
		j, ok := idx[p.Team]
		if !ok {
			resp.Teams = append(resp.Teams, dto.PendingTeam{Team: p.Team})
			j = len(resp.Teams) - 1
			idx[p.Team] = j
		}
		resp.Teams[j].Picks = append(resp.Teams[j].Picks, dto.PendingPick{
			PickID:    p.ID,
			UserID:    p.UserID,
			UserName:  p.UserName,
			BetType:   string(p.Kind),
			Formatted: grammar.Format(p.Parsed()),
			GameDate:  p.GameDate,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// submitScores liquida um lote de jogos; cada grupo comita ou falha sozinho.
// 200 = tudo ok, 207 = falha parcial, 500 = nenhum grupo comitou.
func (s *Server) submitScores(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if len(req.Games) == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "games required"})
		return
	}

	games := make([]settlement.TeamGame, 0, len(req.Games))
	for _, g := range req.Games {
		if g.Team == "" || g.TeamScore < 0 || g.OtherScore < 0 {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid game payload"})
			return
		}
		gameDate := g.GameDate
		if gameDate == "" {
			gameDate = dates.Today()
		}
		games = append(games, settlement.TeamGame{
			Team:       g.Team,
			TeamScore:  g.TeamScore,
			OtherScore: g.OtherScore,
			GameDate:   gameDate,
		})
	}

	res := s.settler.SettleBatch(r.Context(), games)

	resp := dto.SubmitScoresResponse{Results: make([]dto.GroupOutcome, 0, len(res.Groups))}
	for _, g := range res.Groups {
		out := dto.GroupOutcome{
			Team:     g.Team,
			GameDate: g.GameDate,
			Settled:  g.Graded,
			Winners:  g.Winners,
		}
		if g.Err != nil {
			out.Error = g.Err.Error()
			groupsFailed.Inc()
		} else {
			groupsSettled.Inc()
		}
		resp.Results = append(resp.Results, out)
	}

	status := http.StatusOK
	switch failed := res.Failed(); {
	case failed == len(res.Groups):
		status = http.StatusInternalServerError
	case failed > 0:
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
