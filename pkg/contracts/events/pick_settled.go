package events

// Evento emitido pelo pickem-service após a liquidação de um pick.
// Consumido pelo standings-worker para atualizar o snapshot do placar.
type PickSettled struct {
	PickID   string  `json:"pick_id"`
	UserID   string  `json:"user_id"`
	Team     string  `json:"team"`
	BetType  string  `json:"bet_type"` // "spread" | "over_under"
	Line     float64 `json:"line"`
	Won      bool    `json:"won"`
	GameDate string  `json:"game_date"` // YYYY-MM-DD (Pacific)
	TsUnixMs int64   `json:"ts_unix_ms"`
}
