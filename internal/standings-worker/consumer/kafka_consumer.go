package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/pickem-platform-poc/internal/standings-worker/cache"
	"github.com/radieske/pickem-platform-poc/internal/standings-worker/repository"
	"github.com/radieske/pickem-platform-poc/pkg/contracts/events"
)

// Processor consome eventos pick_settled, recalcula o placar no banco e
// atualiza o snapshot no Redis
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache

	OnConsumed   func()       // métricas (counter++)
	OnRecomputed func()       // métricas
	OnCached     func()       // métricas
	OnError      func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.PickSettled
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			continue
		}

		// Recalcula o placar a partir do banco (fonte da verdade)
		st, err := p.Repo.Standings(ctx)
		if err != nil {
			p.Log.Warn("standings query failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_read")
			}
			continue
		}
		if p.OnRecomputed != nil {
			p.OnRecomputed()
		}

		// Atualiza snapshot no Redis
		if err := p.Cache.SetStandings(ctx, st); err != nil {
			p.Log.Warn("redis set failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
			continue
		}
		if p.OnCached != nil {
			p.OnCached()
		}

		p.Log.Debug("standings refreshed",
			zap.String("pickId", ev.PickID),
			zap.Bool("won", ev.Won),
		)
	}
}
