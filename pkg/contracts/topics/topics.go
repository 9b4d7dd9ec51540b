package topics

const (
	// Liquidação de picks
	PickSettled = "pick_settled"
)
