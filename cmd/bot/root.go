package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PoluyanbIch/stemnavigator/internal/config"
	"github.com/PoluyanbIch/stemnavigator/internal/service"
	"github.com/PoluyanbIch/stemnavigator/internal/session"
	"github.com/PoluyanbIch/stemnavigator/internal/sheets"
	"github.com/PoluyanbIch/stemnavigator/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "stemnavigator",
	Short:        "Telegram bot that suggests STEM directions and professions",
	SilenceUsage: true,
	RunE:         runBot,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().String("questions", "", "Path to the question bank file (overrides QUESTIONS_FILE)")

	rootCmd.AddCommand(checkBankCmd)
}

func runBot(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Debug)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	questionsFile := cfg.QuestionsFile
	if p, _ := cmd.Flags().GetString("questions"); p != "" {
		questionsFile = p
	}
	engine, err := service.NewEngine(service.LoadQuestionBank(questionsFile, logger))
	if err != nil {
		return fmt.Errorf("question bank: %w", err)
	}

	professions, results := newSheetsStores(ctx, cfg, engine, logger)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	api.Debug = cfg.Debug
	logger.Info("authorised on account", zap.String("username", api.Self.UserName))

	bot := telegram.NewBot(api, telegram.Deps{
		Engine:         engine,
		Sessions:       newSessionStore(ctx, cfg, logger),
		Professions:    professions,
		Results:        results,
		Logger:         logger,
		ShuffleOptions: cfg.ShuffleOptions,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.UpdateTimeout
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	logger.Info("bot is starting", zap.Int("questions", engine.TotalQuestions()))
	bot.Start(ctx, updates)
	logger.Info("bot stopped")
	return nil
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Printf("warning: zap logger: %v", err)
		return zap.NewNop()
	}
	return logger
}

// newSessionStore uses Redis when it is configured and reachable, and keeps
// sessions in memory otherwise.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) session.Store {
	if cfg.RedisAddr == "" {
		logger.Info("redis not configured, sessions are kept in memory")
		return session.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		logger.Warn("redis ping failed, sessions are kept in memory", zap.Error(err))
		return session.NewMemoryStore()
	}
	logger.Info("sessions are stored in redis", zap.String("addr", cfg.RedisAddr))
	return session.NewRedisStore(client, cfg.SessionTTL)
}

// newSheetsStores connects the professions catalog and the results log to
// Google Sheets. Without credentials the catalog is empty and results are kept
// in memory.
func newSheetsStores(ctx context.Context, cfg *config.Config, engine *service.Engine, logger *zap.Logger) (service.ProfessionSource, service.ResultStore) {
	var (
		professions service.ProfessionSource = service.StaticProfessions(nil)
		results     service.ResultStore      = service.NewMemoryResultStore()
	)
	if !cfg.SheetsEnabled() {
		logger.Warn("google sheets not configured, professions catalog is empty")
		return professions, results
	}

	client, err := sheets.NewClient(ctx, cfg.SheetsCredentialsPath)
	if err != nil {
		logger.Error("google sheets client init failed", zap.Error(err))
		return professions, results
	}

	if cfg.ProfessionsSheetID != "" {
		professions = sheets.NewProfessions(client, cfg.ProfessionsSheetID, engine.Scales(), cfg.ProfessionsCacheTTL, logger)
	} else {
		logger.Warn("PROFESSIONS_SHEET_ID not set, professions catalog is empty")
	}
	if cfg.ResultsSheetID != "" {
		results = sheets.NewResults(client, cfg.ResultsSheetID, cfg.ResultsWorksheet)
	} else {
		logger.Warn("RESULTS_SHEET_ID not set, results are kept in memory")
	}
	return professions, results
}
