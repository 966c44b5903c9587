package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/adminkit/api/swagger"
	"github.com/noah-isme/adminkit/internal/handler"
	internalmiddleware "github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/internal/repository"
	"github.com/noah-isme/adminkit/internal/service"
	"github.com/noah-isme/adminkit/pkg/cache"
	"github.com/noah-isme/adminkit/pkg/config"
	"github.com/noah-isme/adminkit/pkg/crud"
	"github.com/noah-isme/adminkit/pkg/database"
	"github.com/noah-isme/adminkit/pkg/jobs"
	"github.com/noah-isme/adminkit/pkg/llm"
	"github.com/noah-isme/adminkit/pkg/logger"
	"github.com/noah-isme/adminkit/web"
)

// @title AdminKit API
// @version 1.0.0
// @description User administration, session login, chat completion and background tasks
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	templates, err := web.Templates(cfg.Web.TemplatesDir)
	if err != nil {
		return err
	}
	static, err := web.Static(cfg.Web.StaticDir)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	validate := crud.NewValidator()

	userRepo := repository.NewUserRepository(db,
		crud.WithValidator(validate),
		crud.WithObserver(metrics.ObserveDBQuery),
	)
	sessionRepo := repository.NewSessionRepository(rdb)

	queue := jobs.NewQueue("tasks", jobs.QueueConfig{
		Workers:    cfg.Tasks.Workers,
		MaxRetries: cfg.Tasks.Retries,
		Logger:     logr,
	})

	userSvc := service.NewUserService(userRepo, sessionRepo, validate, logr)
	taskSvc := service.NewTaskService(queue, userRepo, metrics, logr)
	authSvc := service.NewAuthService(userRepo, sessionRepo, taskSvc, metrics, validate, logr, service.AuthConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
	})
	chatSvc := service.NewChatService(llm.NewRegistry(cfg.LLM), metrics, validate, logr)
	exportSvc := service.NewExportService(userSvc, logr)

	queue.Start(context.Background())
	defer queue.Stop()

	router := newRouter(routerDeps{
		cfg:       cfg,
		logger:    logr,
		templates: templates,
		static:    static,
		auth:      authSvc,
		observer:  metrics,
		limiter:   internalmiddleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, 10*time.Minute),

		pages: handler.NewPageHandler(userSvc, chatSvc, cfg.APIPrefix),
		authH: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		}),
		users: handler.NewUserHandler(userSvc, exportSvc),
		chat:  handler.NewChatHandler(chatSvc),
		tasks: handler.NewTaskHandler(taskSvc),
		metrics: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		echo: handler.NewEchoHandler(cfg.CORS.AllowedOrigins, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
