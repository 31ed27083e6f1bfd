package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pote-app/pote-backend/internal/assistant"
	"github.com/pote-app/pote-backend/internal/bank"
	"github.com/pote-app/pote-backend/internal/config"
	"github.com/pote-app/pote-backend/internal/fx"
	"github.com/pote-app/pote-backend/internal/handler"
	"github.com/pote-app/pote-backend/internal/logging"
	"github.com/pote-app/pote-backend/internal/middleware"
	"github.com/pote-app/pote-backend/internal/repository"
	"github.com/pote-app/pote-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("pote-api", cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	profiles := repository.NewProfileRepository(db)
	rules := repository.NewRuleRepository(db)
	checkpoints := repository.NewCheckpointRepository(db)
	ledger := repository.NewLedgerRepository(db)
	messages := repository.NewMessageRepository(db)
	goals := repository.NewSavingsRepository(db)
	linked := repository.NewLinkedAccountRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	rates := fx.NewRateService()
	provider := bank.NewClient(cfg.BankProviderURL)
	classifier := assistant.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	userSvc := service.NewUserService(users, profiles, messages)
	ledgerSvc := service.NewLedgerService(ledger, profiles, db)
	ruleSvc := service.NewRuleService(rules)
	reconcileSvc := service.NewReconcileService(rules, checkpoints, profiles, ledger, messages, db)
	chatSvc := service.NewChatService(classifier, messages, profiles, ledgerSvc)
	savingsSvc := service.NewSavingsService(goals, profiles, messages, db)
	bankSvc := service.NewBankAccountService(provider, linked, profiles, rates)

	jwtExpiry := time.Duration(cfg.JWTExpiryHours) * time.Hour
	authHandler := handler.NewAuthHandler(userSvc, cfg.JWTSecret, jwtExpiry)
	sessionHandler := handler.NewSessionHandler(reconcileSvc)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc, cfg.HistoryPageSize)
	ruleHandler := handler.NewRuleHandler(ruleSvc)
	chatHandler := handler.NewChatHandler(chatSvc, cfg.HistoryPageSize)
	savingsHandler := handler.NewSavingsHandler(savingsSvc)
	bankHandler := handler.NewBankHandler(bankSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(h)
	}
	idempotent := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(middleware.Idempotency(idempotency)(h))
	}

	mux.Handle("POST /api/v1/users/{id}/session", authed(sessionHandler.Open))

	// A chat message can record a ledger entry, so retries must replay
	// instead of re-crediting.
	mux.Handle("POST /api/v1/users/{id}/messages", idempotent(chatHandler.Send))
	mux.Handle("GET /api/v1/users/{id}/messages", authed(chatHandler.History))

	mux.Handle("POST /api/v1/users/{id}/entries", idempotent(ledgerHandler.Create))
	mux.Handle("GET /api/v1/users/{id}/entries", authed(ledgerHandler.History))
	mux.Handle("GET /api/v1/users/{id}/balance", authed(ledgerHandler.Balance))
	mux.Handle("PUT /api/v1/users/{id}/balance", authed(ledgerHandler.SetBalance))
	mux.Handle("PUT /api/v1/users/{id}/currency", authed(ledgerHandler.SetCurrency))

	mux.Handle("POST /api/v1/users/{id}/rules", authed(ruleHandler.Create))
	mux.Handle("GET /api/v1/users/{id}/rules", authed(ruleHandler.List))
	mux.Handle("DELETE /api/v1/users/{id}/rules/{ruleID}", authed(ruleHandler.Delete))

	mux.Handle("POST /api/v1/users/{id}/goals", authed(savingsHandler.Create))
	mux.Handle("GET /api/v1/users/{id}/goals", authed(savingsHandler.List))
	mux.Handle("POST /api/v1/users/{id}/goals/{goalID}/contributions", idempotent(savingsHandler.Contribute))
	mux.Handle("DELETE /api/v1/users/{id}/goals/{goalID}", authed(savingsHandler.Delete))

	mux.Handle("POST /api/v1/users/{id}/accounts", authed(bankHandler.Link))
	mux.Handle("POST /api/v1/users/{id}/accounts/manual", authed(bankHandler.AddManual))
	mux.Handle("GET /api/v1/users/{id}/accounts", authed(bankHandler.List))
	mux.Handle("POST /api/v1/users/{id}/accounts/{accountID}/refresh", authed(bankHandler.Refresh))
	mux.Handle("GET /api/v1/users/{id}/wealth", authed(bankHandler.Wealth))

	// Recovery sits outermost so a panic anywhere in the chain still turns
	// into a 500 response.
	root := middleware.Recovery(middleware.Tracing(middleware.Logging(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := idempotency.CleanExpired(sweepCtx); err != nil {
					slog.Error("idempotency sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("idempotency sweep", "removed", n)
				}
			}
		}
	}()

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
