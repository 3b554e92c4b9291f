package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/brooklane/housecare/internal/auth"
	"github.com/brooklane/housecare/internal/config"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"github.com/brooklane/housecare/internal/fixtures"
	httpserver "github.com/brooklane/housecare/internal/interfaces/http"
	"github.com/brooklane/housecare/internal/report"
	"github.com/brooklane/housecare/internal/repository"
	"github.com/brooklane/housecare/internal/service"
	"github.com/brooklane/housecare/pkg/database"
	"github.com/brooklane/housecare/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	seed := flag.Bool("seed", false, "load demo fixtures after migrations")
	flag.Parse()

	gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Housecare service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(ctx, cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.DB, logger)
	houseRepo := repository.NewHouseRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	taskRepo := repository.NewTaskRepository(db.DB, logger)

	if *seed {
		loader := fixtures.NewLoader(db, userRepo, houseRepo, requestRepo, logger)
		if err := loader.Load(ctx); err != nil {
			logger.Fatal("Failed to load fixtures", zap.Error(err))
		}
	}

	// Workflow engine
	roles := auth.NewChecker()
	definition := workflow.NewServiceRequestDefinition()
	engine := workflow.NewEngine(definition, workflow.NewTransitionGuard(roles))
	service.RegisterSubscribers(engine, logger, time.Now)

	// Application services
	access := service.NewAccessPolicy(roles, houseRepo)
	userService := service.NewUserService(db, userRepo, roles, logger)
	houseService := service.NewHouseService(db, houseRepo, roles, logger)
	requestService := service.NewRequestService(db, requestRepo, historyRepo, taskRepo, engine, roles, access, logger)
	taskService := service.NewTaskService(db, taskRepo, requestRepo, roles, access, logger)
	dashboardService := service.NewDashboardService(requestRepo, houseRepo, roles, definition)
	scheduleWriter := report.NewScheduleWriter(cfg.Report.CompanyName, cfg.Report.SheetName, logger)
	reportService := service.NewReportService(requestRepo, houseRepo, userRepo, historyRepo, roles, scheduleWriter)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpserver.Services{
		Users:     userService,
		Houses:    houseService,
		Requests:  requestService,
		Tasks:     taskService,
		Dashboard: dashboardService,
		Reports:   reportService,
	}, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server error", zap.Error(err))
	}

	logger.Info("Server exited")
}
