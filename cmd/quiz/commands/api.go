package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradingquiz/internal/api"
	"github.com/wonny/tradingquiz/internal/api/handlers"
	"github.com/wonny/tradingquiz/internal/realtime"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Start the REST API server.

This command:
- applies pending migrations (postgres store)
- seeds the chart pool when it is empty
- runs the background scheduler in-process unless --no-scheduler
- serves the quiz, leaderboard, profile and replay endpoints

Endpoints:
  GET  /health
  POST /api/auth/register
  POST /api/auth/login
  GET  /api/quiz/random          (auth)
  POST /api/quiz/submit          (auth)
  GET  /api/quiz/btc-history?days=
  GET  /api/quiz/round?days=&reveal=
  GET  /api/leaderboard?limit=
  GET  /api/leaderboard/stream   (websocket)
  GET  /api/profile/me           (auth)
  POST /api/replay/sessions      (auth)

Example:
  go run ./cmd/quiz api
  go run ./cmd/quiz api --port 8080 --store memory`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiNoScheduler bool
	apiSeedCount   int
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiNoScheduler, "no-scheduler", false, "do not run background jobs in this process")
	apiCmd.Flags().IntVar(&apiSeedCount, "seed", 100, "samples to import when the pool is empty (0 disables)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.migrate(ctx); err != nil {
		return err
	}
	if apiSeedCount > 0 {
		if err := a.ensureSamples(ctx, apiSeedCount); err != nil {
			a.log.WithError(err).Warn("Sample seeding failed")
		}
	}

	if !apiNoScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	router := api.NewRouter(api.Routes{
		Auth:        handlers.NewAuthHandler(a.auth, a.log),
		Quiz:        handlers.NewQuizHandler(a.quiz, a.history, a.log),
		Leaderboard: handlers.NewLeaderboardHandler(a.board, a.log),
		Profile:     handlers.NewProfileHandler(a.quiz, a.log),
		Replay:      handlers.NewReplayHandler(a.replay, a.log),
		Stream:      realtime.NewHandler(a.hub, a.log, cfg.FrontendURL),
		Tokens:      a.auth,
		Health:      a,
	}, cfg.FrontendURL, a.log)

	server := api.New(cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s (store: %s)", cfg.Port, cfg.Store))
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
