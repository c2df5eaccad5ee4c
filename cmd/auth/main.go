package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/flowfin/auth-service/internal/audit"
	"github.com/flowfin/auth-service/internal/config"
	"github.com/flowfin/auth-service/internal/db"
	"github.com/flowfin/auth-service/internal/events"
	"github.com/flowfin/auth-service/internal/httpserver"
	"github.com/flowfin/auth-service/internal/logging"
	"github.com/flowfin/auth-service/internal/middleware"
	"github.com/flowfin/auth-service/internal/repo"
	"github.com/flowfin/auth-service/internal/service"
	"github.com/flowfin/auth-service/internal/tokens"
)

func main() {
	cfg := config.Load()

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	logger := logging.New(level)

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		log.Fatalf("unknown signing algorithm %q", cfg.Algorithm)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	gormRepo := repo.GormRepo{DB: database}

	tokenSvc := tokens.NewService(tokens.Config{
		Secret:     cfg.SecretKey,
		Method:     method,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, &gormRepo)

	producer := events.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	var indexer *audit.Indexer
	if cfg.ESURL != "" {
		esClient, err := audit.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &audit.Indexer{ES: esClient, Index: audit.Index}
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), echomw.CORS())
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Repo:     gormRepo,
				Tokens:   tokenSvc,
				Producer: producer,
				Audit:    indexer,
			},
		},
		Auth: middleware.NewBearerAuth(tokenSvc),
	})

	pruneCtx, prunerCancel := context.WithCancel(context.Background())
	go runRevokedPruner(pruneCtx, logger, &gormRepo, cfg.RefreshTTL)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	prunerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}

// runRevokedPruner drops revocation markers that no live token can carry
// anymore. Markers must outlive the longest token TTL, so the refresh TTL is
// the retention floor.
func runRevokedPruner(ctx context.Context, logger *slog.Logger, r *repo.GormRepo, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.PruneRevoked(ctx, retention)
			if err != nil {
				logger.Error("revoked_prune_failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("revoked_pruned", "deleted", n)
			}
		}
	}
}
