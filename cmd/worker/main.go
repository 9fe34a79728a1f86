package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Africamobilier/erp/internal/app"
	"github.com/Africamobilier/erp/internal/catalog/produits"
	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/facturation"
	"github.com/Africamobilier/erp/internal/livraison"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/sales/commandes"
	"github.com/Africamobilier/erp/internal/sales/devis"
	"github.com/Africamobilier/erp/internal/shared"
	"github.com/Africamobilier/erp/internal/woocommerce"
	"github.com/Africamobilier/erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	numbers := numbering.NewService(pool)
	auditLogger := shared.NewAuditLogger(pool)

	clientsRepo := clients.NewRepository(pool)
	produitsRepo := produits.NewRepository(pool)
	devisRepo := devis.NewRepository(pool)
	commandesRepo := commandes.NewRepository(pool)
	livraisonRepo := livraison.NewRepository(pool)
	facturationRepo := facturation.NewRepository(pool)

	livraisonService := livraison.NewService(logger, livraisonRepo, commandesRepo, numbers, auditLogger)
	facturationService := facturation.NewService(logger, facturationRepo, livraisonRepo, commandesRepo, livraisonService, numbers, auditLogger)

	wcConfigRepo := woocommerce.NewConfigRepository(pool)
	wcSyncLogRepo := woocommerce.NewSyncLogRepository(pool)
	wcService := woocommerce.NewService(logger, wcConfigRepo, wcSyncLogRepo, clientsRepo, produitsRepo, devisRepo, numbers, redisClient)

	syncJob := jobs.NewSyncAllJob(wcService, logger)
	retardJob := jobs.NewFacturesRetardJob(facturationService, logger)

	syncTask, err := jobs.NewSyncAllTask()
	if err != nil {
		logger.Error("build sync task", slog.Any("error", err))
		os.Exit(1)
	}
	retardTask, err := jobs.NewFacturesRetardTask()
	if err != nil {
		logger.Error("build retard task", slog.Any("error", err))
		os.Exit(1)
	}

	syncSpec := fmt.Sprintf("@every %s", cfg.WCSyncInterval)
	retardSpec := fmt.Sprintf("0 %d * * *", cfg.FacturesRetardHeure)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskWoocommerceSyncAll, Handler: syncJob.Handle},
			{Type: jobs.TaskFacturesRetard, Handler: retardJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: syncSpec, Task: syncTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: retardSpec, Task: retardTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
