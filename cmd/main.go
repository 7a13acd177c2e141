package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/bid-tracker/internal/auth"
	"github.com/senyabanana/bid-tracker/internal/db"
	"github.com/senyabanana/bid-tracker/internal/handlers"
	"github.com/senyabanana/bid-tracker/internal/notify"
	"github.com/senyabanana/bid-tracker/internal/repository"
	"github.com/senyabanana/bid-tracker/internal/router"
	"github.com/senyabanana/bid-tracker/internal/router/config"
	"github.com/senyabanana/bid-tracker/internal/scheduler"
	"github.com/senyabanana/bid-tracker/internal/services"
	"github.com/senyabanana/bid-tracker/internal/storage"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// schedulerRunTimeout ограничивает один проход планировщика.
const schedulerRunTimeout = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runDBMigration(cfg.MigrationURL, cfg.DatabaseURL())

	dbPool, err := db.InitDb(ctx, cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	bidRepo := repository.NewPostgresBidRepository(dbPool)
	clientRepo := repository.NewPostgresClientRepository(dbPool)
	settingsRepo := repository.NewPostgresSettingsRepository(dbPool)

	dispatcher := notify.NewDispatcher(notify.SMTPTransport{Timeout: cfg.SMTPTimeout})

	var uploader services.AttachmentUploader
	if cfg.S3Enabled() {
		s3Uploader, err := storage.NewUploader(ctx, storage.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("error initializing attachment storage: %v", err)
		}
		uploader = s3Uploader
	} else {
		logger.Println("S3 is not configured, attachment uploads are disabled")
	}

	settingsService := services.NewSettingsService(settingsRepo)
	clientService := services.NewClientService(clientRepo)
	bidService := services.NewBidService(bidRepo, clientRepo, settingsService, dispatcher, uploader, cfg.Location())
	decisionService := services.NewDecisionService(bidRepo, clientRepo)
	financeService := services.NewFinanceService(bidRepo, clientRepo, cfg.Location())

	reminders := scheduler.New(bidRepo, clientRepo, settingsService, dispatcher, logger, scheduler.Options{
		BusinessDays: cfg.ReminderBusinessDays,
		Selection:    scheduler.Selection(cfg.ReminderSelection),
		Location:     cfg.Location(),
		PortalURL:    cfg.PortalURL,
	})
	if cfg.SchedulerEnabled {
		c, err := scheduler.StartCron(ctx, cfg.SchedulerCron, cfg.Location(), reminders, schedulerRunTimeout, logger)
		if err != nil {
			log.Fatalf("error starting scheduler: %v", err)
		}
		defer c.Stop()
		logger.Printf("reminder scheduler runs at %q in %s", cfg.SchedulerCron, cfg.Timezone)
	}

	routes := router.InitRoutes(router.Handlers{
		Ping:      handlers.PingHandler(dbPool, cfg.RequestTimeout),
		Bids:      handlers.NewBidHandler(bidService, logger, cfg.RequestTimeout),
		Clients:   handlers.NewClientHandler(clientService, logger, cfg.RequestTimeout),
		Settings:  handlers.NewSettingsHandler(settingsService, logger, cfg.RequestTimeout),
		Finance:   handlers.NewFinanceHandler(financeService, logger, cfg.RequestTimeout),
		Portal:    handlers.NewPortalHandler(decisionService, logger, cfg.RequestTimeout),
		Scheduler: handlers.NewSchedulerHandler(reminders, logger, schedulerRunTimeout),
	}, auth.NewVerifier(cfg.JWTSecret), cfg.SchedulerToken)

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
