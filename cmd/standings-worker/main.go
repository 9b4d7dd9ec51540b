package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	sharedcache "github.com/radieske/pickem-platform-poc/internal/shared/cache"
	"github.com/radieske/pickem-platform-poc/internal/shared/config"
	"github.com/radieske/pickem-platform-poc/internal/shared/db"
	sharedkafka "github.com/radieske/pickem-platform-poc/internal/shared/kafka"
	"github.com/radieske/pickem-platform-poc/internal/shared/logger"
	"github.com/radieske/pickem-platform-poc/internal/shared/metrics"
	"github.com/radieske/pickem-platform-poc/internal/standings-worker/cache"
	"github.com/radieske/pickem-platform-poc/internal/standings-worker/consumer"
	"github.com/radieske/pickem-platform-poc/internal/standings-worker/repository"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	rcache := cache.NewRedisCache(redisClient)
	repo := repository.NewPostgresRepo(pg)

	// Consumer Kafka (consumer group standings-worker)
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicPickSettled, "standings-worker")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_messages_consumed_total", Help: "mensagens consumidas"})
	recomputed := prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_recomputed_total", Help: "placares recalculados"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "standings_cache_sets_total", Help: "sets no cache"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "standings_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, recomputed, cached, errorsBy)

	proc := &consumer.Processor{
		Log:    log,
		Reader: reader,
		Repo:   repo,
		Cache:  rcache,

		OnConsumed:   func() { consumed.Inc() },
		OnRecomputed: func() { recomputed.Inc() },
		OnCached:     func() { cached.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", fmt.Sprintf(":%s", cfg.MetricsPort)))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("standings-worker started", zap.String("consume", cfg.TopicPickSettled))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("standings-worker stopped")
}
