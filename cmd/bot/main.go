package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/app"
	"github.com/aacc1on/medreminder-bolt/internal/infra/config"
	idb "github.com/aacc1on/medreminder-bolt/internal/infra/database"
	"github.com/aacc1on/medreminder-bolt/internal/infra/logger"
	"github.com/aacc1on/medreminder-bolt/internal/infra/metrics"
	"github.com/aacc1on/medreminder-bolt/internal/infra/scheduler"
	"github.com/aacc1on/medreminder-bolt/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"db_driver":   cfg.DBDriver,
		"timezone":    cfg.Location().String(),
		"admin_id":    cfg.AdminTelegramID,
	}).Info("Medication reminder bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	dialect, err := idb.NewDialect(cfg.DBDriver)
	if err != nil {
		mainLogger.WithError(err).Fatal("Unsupported database driver")
	}
	db, err := idb.NewConnection(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db, dialect); err != nil {
		mainLogger.WithError(err).Fatal("Could not ensure database schema")
	}
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	scheduleRepo := idb.NewScheduleRepository(db, dialect, cfg.Location())
	patientRepo := idb.NewPatientRepository(db, dialect, cfg.Location())

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		Client: &http.Client{Timeout: cfg.SendTimeout},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"chat_id": c.Chat().ID, "text": c.Text()})
			}
			entry.Error("Unhandled bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	notifier := telegram.NewReminderNotifier(telegram.NewTelebotAdapter(bot), cfg.SendRatePerSec, cfg.Location())

	reporters := app.MultiReporter{app.NewLogReporter(logger.Component("reminder_report"))}
	if cfg.RedisURL != "" {
		rdb, err := metrics.Connect(ctx, cfg.RedisURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to redis")
		}
		defer rdb.Close()
		reporters = append(reporters, metrics.NewRedisReporter(rdb, cfg.HeartbeatTTL, logger.Component("metrics")))
		mainLogger.Info("Redis tick metrics enabled.")
	}

	engine := app.NewReminderEngine(scheduleRepo, notifier, logger.Component("reminder_engine"), cfg.SendTimeout)

	reminderScheduler := scheduler.NewReminderScheduler(
		engine,
		reporters,
		logger.Component("scheduler"),
		cfg.Location(),
		scheduler.Specs{
			Treatments: cfg.CronSpecTreatments,
			Visits:     cfg.CronSpecVisits,
			Heartbeat:  cfg.CronSpecHeartbeat,
		},
		cfg.TickTimeout,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	// Register Handlers
	patientService := app.NewPatientService(patientRepo)
	telegram.RegisterBotCommands(ctx, bot, patientService, logger.Component("telegram"))
	if cfg.AdminTelegramID != 0 {
		telegram.RegisterAdminHandlers(ctx, bot, reminderScheduler, cfg.AdminTelegramID, logger.Component("telegram_admin"))
		mainLogger.Info("Admin command handlers registered.")
	}

	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running.")

	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	reminderScheduler.Stop()
	bot.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
