package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	pcache "github.com/radieske/pickem-platform-poc/internal/pickem/cache"
	phttp "github.com/radieske/pickem-platform-poc/internal/pickem/http"
	kpub "github.com/radieske/pickem-platform-poc/internal/pickem/producer"
	"github.com/radieske/pickem-platform-poc/internal/pickem/repo"
	"github.com/radieske/pickem-platform-poc/internal/pickem/settlement"
	sharedcache "github.com/radieske/pickem-platform-poc/internal/shared/cache"
	"github.com/radieske/pickem-platform-poc/internal/shared/config"
	"github.com/radieske/pickem-platform-poc/internal/shared/db"
	sharedkafka "github.com/radieske/pickem-platform-poc/internal/shared/kafka"
	"github.com/radieske/pickem-platform-poc/internal/shared/logger"
	"github.com/radieske/pickem-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic pick_settled)
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPickSettled)
	defer writer.Close()

	// deps
	repository := repo.NewPostgres(pg, cfg.PickAllotment)
	standings := pcache.New(rdb)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicPickSettled)
	engine := settlement.New(log, repository, publ)

	// HTTP público
	api := phttp.NewServer(log, repository, standings, engine)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", fmt.Sprintf(":%s", cfg.MetricsPort)))

	log.Info("pickem-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
