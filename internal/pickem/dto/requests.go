package dto

type CreateUserRequest struct {
	Name string `json:"name"`
}

type SubmitPickRequest struct {
	UserID   string `json:"user_id"`
	Text     string `json:"text"`      // ex: "Duke -7.5", "gonzaga O150"
	GameDate string `json:"game_date"` // YYYY-MM-DD; vazio = hoje (Pacific)
}

type GameScore struct {
	Team       string  `json:"team"`
	TeamScore  float64 `json:"team_score"`
	OtherScore float64 `json:"other_score"`
	GameDate   string  `json:"game_date"` // YYYY-MM-DD
}

type SubmitScoresRequest struct {
	Games []GameScore `json:"games"`
}
