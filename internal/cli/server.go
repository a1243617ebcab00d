package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"excel-interviewer/internal/app"
	"excel-interviewer/internal/catalog"
	"excel-interviewer/internal/config"
	"excel-interviewer/internal/infra/memory"
	pgstore "excel-interviewer/internal/infra/postgres"
	redisstore "excel-interviewer/internal/infra/redis"
	"excel-interviewer/internal/llm"
	"excel-interviewer/internal/logger"
	transport "excel-interviewer/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the interview server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.JSON || jsonLogs, cfg.Logging.Debug || debugLogs)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	llmURL := cfg.LLM.URL
	if llmURL == "" {
		llmURL = "http://localhost:11434"
	}
	llmModel := cfg.LLM.Model
	if llmModel == "" {
		llmModel = "llama3.1"
	}
	retries := cfg.LLM.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	gen := llm.NewClient(llmURL, llmModel, log,
		llm.WithTimeout(config.Duration(cfg.LLM.Timeout, 60*time.Second)),
		llm.WithRetry(retries,
			config.Duration(cfg.LLM.BackoffBase, 4*time.Second),
			config.Duration(cfg.LLM.BackoffCap, 10*time.Second)),
	)

	bank, err := catalog.LoadBank(cfg.Interview.QuestionBank)
	if err != nil {
		return err
	}
	questions := catalog.New(bank, gen, log)

	var store app.Store
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStore(pool)
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisstore.NewStore(client, config.Duration(cfg.Redis.TTL, 2*time.Hour))
	default:
		store = memory.NewStore()
	}

	service := app.NewInterviewer(store, questions, gen, log)
	handler := transport.NewHandler(service, log)
	wsHandler := transport.NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler.Router())
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
	}

	go func() {
		log.Info("starting interview service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
