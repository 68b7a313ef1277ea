package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"detective-quiz-service/internal/app"
	"detective-quiz-service/internal/config"
	"detective-quiz-service/internal/infra/memory"
	pgstore "detective-quiz-service/internal/infra/postgres"
	redisstore "detective-quiz-service/internal/infra/redis"
	transport "detective-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz progression server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	statsService, leaderboardService, closeStores, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	scheduler := app.NewScheduler(
		leaderboardService,
		config.Duration(cfg.Leaderboard.RebuildInterval, 5*time.Minute),
		config.Duration(cfg.Leaderboard.CleanupEvery, time.Hour),
		config.Duration(cfg.Leaderboard.StaleAfter, 24*time.Hour),
		log.New(os.Stderr, "scheduler ", log.LstdFlags),
	)
	go scheduler.Run(schedulerCtx)

	apiHandler := transport.NewAPIHandler(statsService, leaderboardService)
	wsHandler := transport.NewWSHandler(leaderboardService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting detective quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	stopScheduler()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildServices wires repositories by configuration: Postgres when a URL is
// set, in-memory otherwise, with an optional Redis snapshot cache on top.
func buildServices(ctx context.Context, cfg config.Config) (*app.StatsService, *app.LeaderboardService, func(), error) {
	var pool *pgxpool.Pool
	var err error
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var statsRepo app.StatsRepository
	var leaderboardRepo app.LeaderboardRepository
	if pool != nil {
		statsRepo = pgstore.NewStatsRepository(pool)
		leaderboardRepo = pgstore.NewLeaderboardRepository(pool)
	} else {
		statsRepo = memory.NewStatsStore()
		leaderboardRepo = memory.NewLeaderboardStore()
	}
	if redisClient != nil {
		cacheTTL := config.Duration(cfg.Redis.CacheTTL, 10*time.Minute)
		leaderboardRepo = redisstore.NewLeaderboardCache(redisClient, leaderboardRepo, cacheTTL)
	}

	mergeTimeout := config.Duration(cfg.Stats.MergeTimeout, 10*time.Second)
	rebuildTimeout := config.Duration(cfg.Leaderboard.RebuildTimeout, 30*time.Second)

	statsService := app.NewStatsService(statsRepo, mergeTimeout)
	leaderboardService := app.NewLeaderboardService(statsRepo, leaderboardRepo, rebuildTimeout)

	closeStores := func() {
		if pool != nil {
			pool.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	return statsService, leaderboardService, closeStores, nil
}
