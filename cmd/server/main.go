package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ethiogig/ethiogig-backend/internal/config"
	"github.com/ethiogig/ethiogig-backend/internal/db"
	httpHandlers "github.com/ethiogig/ethiogig-backend/internal/http/handlers"
	httpRouter "github.com/ethiogig/ethiogig-backend/internal/http/router"
	"github.com/ethiogig/ethiogig-backend/internal/logger"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/clock"
	"github.com/ethiogig/ethiogig-backend/internal/repository"
	"github.com/ethiogig/ethiogig-backend/internal/scheduler"
	"github.com/ethiogig/ethiogig-backend/internal/service"
	"github.com/ethiogig/ethiogig-backend/internal/storage"
	"github.com/ethiogig/ethiogig-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	systemClock := clock.System()

	documentStorage, err := storage.NewDocumentStorage(cfg.DocumentStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	contractRepo := repository.NewContractRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	drcRepo := repository.NewDrcRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Рассыльщик уведомлений: база, websocket и почта.
	mailer := service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	notifier := service.NewWorkflowNotifier(notificationRepo, hub, mailer)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	userService := service.NewUserService(userRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	escrowService := service.NewEscrowService(escrowRepo, contractRepo, milestoneRepo, notifier, systemClock)
	contractService := service.NewContractService(contractRepo, milestoneRepo, escrowService, notifier, systemClock)
	disputeService := service.NewDisputeService(disputeRepo, contractRepo, milestoneRepo, notifier, systemClock, cfg.DisputeResponseWindow)
	drcService := service.NewDrcService(drcRepo, disputeRepo, contractRepo, milestoneRepo, userRepo, notifier, systemClock)

	// Планировщик автозакрытия просроченных споров.
	escalation := scheduler.NewEscalationScheduler(disputeRepo, notifier, systemClock, cfg.SweepInterval)
	go escalation.Run(ctx)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	userHandler := httpHandlers.NewUserHandler(userService)
	contractHandler := httpHandlers.NewContractHandler(contractService)
	escrowHandler := httpHandlers.NewEscrowHandler(escrowService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService, documentStorage)
	drcHandler := httpHandlers.NewDrcHandler(drcService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg,
		authHandler, userHandler, contractHandler, escrowHandler,
		disputeHandler, drcHandler, notificationHandler, wsHandler,
		healthHandler, tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
