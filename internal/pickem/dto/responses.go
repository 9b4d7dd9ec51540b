package dto

type CreateUserResponse struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	PicksRemaining int    `json:"picks_remaining"`
}

type SubmitPickResponse struct {
	PickID         string `json:"pick_id"`
	Formatted      string `json:"formatted"` // forma canônica de exibição
	GameDate       string `json:"game_date"`
	PicksRemaining int    `json:"picks_remaining"`
}

// PendingPick é um pick aguardando placar, já formatado pra exibição.
type PendingPick struct {
	PickID    string `json:"pick_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	BetType   string `json:"bet_type"`
	Formatted string `json:"formatted"`
	GameDate  string `json:"game_date"`
}

// PendingTeam agrupa os picks pending de um mesmo time (tela de placares).
type PendingTeam struct {
	Team  string        `json:"team"`
	Picks []PendingPick `json:"picks"`
}

type PendingPicksResponse struct {
	Date  string        `json:"date"`
	Teams []PendingTeam `json:"teams"`
}

// GroupOutcome é o desfecho de um grupo do lote de liquidação.
type GroupOutcome struct {
	Team     string `json:"team"`
	GameDate string `json:"game_date"`
	Settled  int    `json:"settled"`
	Winners  int    `json:"winners"`
	Error    string `json:"error,omitempty"`
}

type SubmitScoresResponse struct {
	Results []GroupOutcome `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
