package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/chatinsight/internal/analysis"
	"github.com/edgard/chatinsight/internal/config"
	"github.com/edgard/chatinsight/internal/database"
	"github.com/edgard/chatinsight/internal/gemini"
	"github.com/edgard/chatinsight/internal/logger"
	"github.com/edgard/chatinsight/internal/metrics"
	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/report"
	"github.com/edgard/chatinsight/internal/service"
)

// app holds the components shared by every command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	db      *sqlx.DB
	store   database.Store
	metrics *metrics.Metrics
	service *service.Service
}

// newApp loads the configuration and wires storage, the question engine and
// the service layer. Logs go to logOut.
func newApp(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(logOut, cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Debug("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return nil, err
	}

	m := metrics.New()
	if err := m.RegisterDB(db.DB, database.ExtractDBNameFromPath(cfg.Database.Path)); err != nil {
		log.Warn("Failed to register database metrics", "error", err)
	}

	var completer query.Completer
	gem, err := gemini.NewClient(ctx, cfg.Gemini, log)
	switch {
	case errors.Is(err, gemini.ErrNoAPIKey):
		log.Warn("No Gemini API key configured, open questions get the offline answer")
	case err != nil:
		database.CloseDB(db)
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	default:
		completer = gem
	}

	lexicon := analysis.NewLexicon()
	engine := query.New(query.Options{
		Completer:          completer,
		Sentiment:          lexicon,
		Topics:             analysis.NewTFIDF(),
		Observer:           m,
		Logger:             log,
		UserMatchThreshold: cfg.Query.UserMatchThreshold,
		MaxUserMessages:    cfg.Query.MaxUserMessages,
		MaxWindowMessages:  cfg.Query.MaxWindowMessages,
		MaxContextMessages: cfg.Query.MaxContextMessages,
		FallbackExamples:   cfg.Query.FallbackExamples,
		ModeledTopics:      cfg.Query.ModeledTopics,
		AITimeout:          cfg.Query.AITimeout,
	})

	reporter := report.New(report.Options{
		Completer:        completer,
		Sentiment:        lexicon,
		Observer:         m,
		Logger:           log,
		AITimeout:        cfg.Query.AITimeout,
		FallbackExamples: cfg.Query.FallbackExamples,
	})

	store := database.NewStore(db, log)
	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		store:   store,
		metrics: m,
		service: service.New(store, engine, reporter, m, log),
	}, nil
}

func (a *app) Close() {
	database.CloseDB(a.db)
}
