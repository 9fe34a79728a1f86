package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Africamobilier/erp/internal/app"
	"github.com/Africamobilier/erp/internal/audit"
	"github.com/Africamobilier/erp/internal/catalog/produits"
	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/facturation"
	"github.com/Africamobilier/erp/internal/livraison"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/platform/db"
	"github.com/Africamobilier/erp/internal/rbac"
	"github.com/Africamobilier/erp/internal/sales/commandes"
	"github.com/Africamobilier/erp/internal/sales/devis"
	"github.com/Africamobilier/erp/internal/shared"
	"github.com/Africamobilier/erp/internal/users"
	"github.com/Africamobilier/erp/internal/woocommerce"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, logger); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	numbers := numbering.NewService(pool)
	auditLogger := shared.NewAuditLogger(pool)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo, numbers)
	clientsHandler := clients.NewHandler(logger, clientsService, validate, rbacMiddleware)

	produitsRepo := produits.NewRepository(pool)
	produitsService := produits.NewService(produitsRepo)
	produitsHandler := produits.NewHandler(logger, produitsService, validate, rbacMiddleware)

	devisRepo := devis.NewRepository(pool)
	devisService := devis.NewService(devisRepo, clientsRepo, numbers)
	devisHandler := devis.NewHandler(logger, devisService, validate, rbacMiddleware)

	commandesRepo := commandes.NewRepository(pool)
	commandesService := commandes.NewService(logger, commandesRepo, devisRepo, clientsRepo, numbers, auditLogger)
	commandesHandler := commandes.NewHandler(logger, commandesService, validate, rbacMiddleware)

	livraisonRepo := livraison.NewRepository(pool)
	livraisonService := livraison.NewService(logger, livraisonRepo, commandesRepo, numbers, auditLogger)
	livraisonHandler := livraison.NewHandler(logger, livraisonService, validate, rbacMiddleware)

	facturationRepo := facturation.NewRepository(pool)
	facturationService := facturation.NewService(logger, facturationRepo, livraisonRepo, commandesRepo, livraisonService, numbers, auditLogger)
	facturationHandler := facturation.NewHandler(logger, facturationService, validate, rbacMiddleware)

	wcConfigRepo := woocommerce.NewConfigRepository(pool)
	wcSyncLogRepo := woocommerce.NewSyncLogRepository(pool)
	wcService := woocommerce.NewService(logger, wcConfigRepo, wcSyncLogRepo, clientsRepo, produitsRepo, devisRepo, numbers, redisClient)
	wcHandler := woocommerce.NewHandler(logger, wcService, wcConfigRepo, wcSyncLogRepo, validate, rbacMiddleware)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, validate, rbacMiddleware)

	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audit.NewHandler(logger, auditService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticator:      usersService,
		ClientsHandler:     clientsHandler,
		ProduitsHandler:    produitsHandler,
		DevisHandler:       devisHandler,
		CommandesHandler:   commandesHandler,
		LivraisonHandler:   livraisonHandler,
		FacturationHandler: facturationHandler,
		WoocommerceHandler: wcHandler,
		UsersHandler:       usersHandler,
		AuditHandler:       auditHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
