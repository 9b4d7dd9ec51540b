package grammar

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// BetKind discrimina a variante de um pick. Nunca usamos "linha == 0"
// como discriminante: uma coluna zerada indica apenas o slot inativo.
type BetKind string

const (
	BetSpread    BetKind = "spread"
	BetOverUnder BetKind = "over_under"
)

// Pick é o resultado estruturado de um texto interpretado.
// Apenas o grupo de campos da variante ativa (Kind) é significativo.
type Pick struct {
	Team string
	Kind BetKind

	// Variante spread
	SpreadPoints float64
	IsFavorite   bool // true = time precisa vencer por mais que SpreadPoints

	// Variante over/under
	TotalLine  float64
	PickedOver bool // true = aposta que o placar combinado passa da linha
}

var (
	ErrNoMatch          = errors.New("pick text does not match any known form")
	ErrNoPicksRemaining = errors.New("no picks remaining")
	ErrMissingTeam      = errors.New("team name is required")
	ErrInvalidLine      = errors.New("line must be positive")
)

// Formas aceitas, em ordem de prioridade (a primeira que casar vence):
//  1. over/under: "Duke O150", "gonzaga under 140.5"
//  2. spread por extenso: "st marys minus 7.5"
//  3. spread com sinal: "Duke -7.5", "Duke +3"
//
// O casamento é case-insensitive sobre o texto original já com trim, pra
// preservar a capitalização digitada no nome do time.
var (
	reOverUnder  = regexp.MustCompile(`(?i)^(\S+)\s+(o(?:ver)?|u(?:nder)?)\s*(\d+(?:\.\d+)?)$`)
	reSpreadWord = regexp.MustCompile(`(?i)^(.+?)\s+(minus|plus)\s+(\d+(?:\.\d+)?)$`)
	reSpreadSign = regexp.MustCompile(`(?i)^(.+?)\s*([+-])(\d+(?:\.\d+)?)$`)
)

// ExampleForms é exibido ao usuário quando o texto não casa com a gramática.
const ExampleForms = `"Duke -7.5" (spread) ou "Duke O150.5" (over/under)`

// Parse interpreta um texto livre como um pick estruturado.
// Retorna ErrNoMatch quando nenhuma forma casa ou o time fica vazio.
func Parse(text string) (*Pick, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoMatch
	}

	if m := reOverUnder.FindStringSubmatch(text); m != nil {
		team := strings.TrimSpace(m[1])
		line, err := strconv.ParseFloat(m[3], 64)
		if team == "" || err != nil {
			return nil, ErrNoMatch
		}
		return &Pick{
			Team:       team,
			Kind:       BetOverUnder,
			TotalLine:  line,
			PickedOver: strings.HasPrefix(strings.ToLower(m[2]), "o"),
		}, nil
	}

	if m := reSpreadWord.FindStringSubmatch(text); m != nil {
		team := strings.TrimSpace(m[1])
		points, err := strconv.ParseFloat(m[3], 64)
		if team == "" || err != nil {
			return nil, ErrNoMatch
		}
		return &Pick{
			Team:         team,
			Kind:         BetSpread,
			SpreadPoints: points,
			IsFavorite:   strings.EqualFold(m[2], "minus"),
		}, nil
	}

	if m := reSpreadSign.FindStringSubmatch(text); m != nil {
		team := strings.TrimSpace(m[1])
		points, err := strconv.ParseFloat(m[3], 64)
		if team == "" || err != nil {
			return nil, ErrNoMatch
		}
		return &Pick{
			Team:         team,
			Kind:         BetSpread,
			SpreadPoints: points,
			IsFavorite:   m[2] == "-",
		}, nil
	}

	return nil, ErrNoMatch
}

// Format rende a forma canônica de exibição de um pick.
// Garantia: Parse(Format(p)) reproduz os campos semânticos de p.
func Format(p *Pick) string {
	switch p.Kind {
	case BetOverUnder:
		dir := "UNDER"
		if p.PickedOver {
			dir = "OVER"
		}
		return p.Team + " " + dir + " " + formatLine(p.TotalLine)
	default:
		sign := "+"
		if p.IsFavorite {
			sign = "-"
		}
		return p.Team + " " + sign + formatLine(p.SpreadPoints)
	}
}

// Validate aplica as regras de submissão; consultivo, quem chama decide
// se bloqueia a submissão.
func Validate(p *Pick, picksRemaining int) error {
	if picksRemaining <= 0 {
		return ErrNoPicksRemaining
	}
	if strings.TrimSpace(p.Team) == "" {
		return ErrMissingTeam
	}
	if line := activeLine(p); line <= 0 {
		return ErrInvalidLine
	}
	return nil
}

// activeLine retorna o campo numérico da variante ativa
func activeLine(p *Pick) float64 {
	if p.Kind == BetOverUnder {
		return p.TotalLine
	}
	return p.SpreadPoints
}

func formatLine(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
