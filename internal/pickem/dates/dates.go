package dates

import (
	"fmt"
	"time"
)

// Datas de jogo são normalizadas para o fuso do Pacífico antes de persistir,
// no formato YYYY-MM-DD. A janela de liquidação usa a data alvo ± 1 dia pra
// absorver o deslize de fuso entre a entrada do pick e o horário do jogo.

const Layout = "2006-01-02"

var pacific *time.Location

func init() {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		// tzdata ausente no host; UTC mantém o serviço de pé
		loc = time.UTC
	}
	pacific = loc
}

// GameDate normaliza um instante para a data-calendário no Pacífico.
func GameDate(t time.Time) string {
	return t.In(pacific).Format(Layout)
}

// Today é a data de jogo default quando a submissão não informa uma.
func Today() string {
	return GameDate(time.Now())
}

// Range devolve [d-1, d, d+1] para a data informada.
func Range(gameDate string) ([]string, error) {
	d, err := time.ParseInLocation(Layout, gameDate, pacific)
	if err != nil {
		return nil, fmt.Errorf("invalid game date %q: %w", gameDate, err)
	}
	return []string{
		d.AddDate(0, 0, -1).Format(Layout),
		d.Format(Layout),
		d.AddDate(0, 0, 1).Format(Layout),
	}, nil
}
