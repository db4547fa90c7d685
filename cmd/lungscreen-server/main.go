package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lungscreen/lungscreen/internal/config"
	"github.com/lungscreen/lungscreen/internal/domain/admin"
	"github.com/lungscreen/lungscreen/internal/domain/education"
	"github.com/lungscreen/lungscreen/internal/domain/identity"
	"github.com/lungscreen/lungscreen/internal/domain/prediction"
	"github.com/lungscreen/lungscreen/internal/domain/risk"
	"github.com/lungscreen/lungscreen/internal/domain/scheduling"
	"github.com/lungscreen/lungscreen/internal/domain/session"
	"github.com/lungscreen/lungscreen/internal/inference"
	"github.com/lungscreen/lungscreen/internal/platform/analytics"
	"github.com/lungscreen/lungscreen/internal/platform/auth"
	"github.com/lungscreen/lungscreen/internal/platform/db"
	"github.com/lungscreen/lungscreen/internal/platform/middleware"
	"github.com/lungscreen/lungscreen/migrations"
)

// imageUploadPath is exempt from the default body limit.
const imageUploadPath = "/api/v1/predictions/image"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lungscreen-server",
		Short: "Lung cancer screening dashboard API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(classifyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServer(cfg, newLogger(cfg))
		},
	}
}

func openPool(ctx context.Context, cfg *config.Config) (*db.Migrator, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrations.FS), pool.Close, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			migrator, closePool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			migrator, closePool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

// classifyCmd runs the risk policy offline on a label or a score.
func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a model output with the risk policy",
	}

	tabular := &cobra.Command{
		Use:   "tabular",
		Short: "Classify a tabular model label (High, Medium or Low)",
		RunE: func(cmd *cobra.Command, args []string) error {
			label, _ := cmd.Flags().GetString("label")
			policy := risk.NewPolicy(zerolog.New(cmd.ErrOrStderr()))
			return printJSON(cmd, policy.ClassifyTabular(label))
		},
	}
	tabular.Flags().String("label", "", "Model output label")
	tabular.MarkFlagRequired("label")
	cmd.AddCommand(tabular)

	image := &cobra.Command{
		Use:   "image",
		Short: "Classify a CT-scan normal-class probability",
		RunE: func(cmd *cobra.Command, args []string) error {
			score, _ := cmd.Flags().GetFloat64("score")
			policy := risk.NewPolicy(zerolog.New(cmd.ErrOrStderr()))
			a, err := policy.ClassifyImage(score)
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				risk.Assessment
				risk.ImageScore
				CancerConfidence float64 `json:"cancer_confidence"`
			}{a, risk.ImageScore{PNormal: score}, risk.ImageScore{PNormal: score}.PCancer()})
		},
	}
	image.Flags().Float64("score", 0, "Probability that the scan is normal, in [0,1]")
	image.MarkFlagRequired("score")
	cmd.AddCommand(image)

	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// server is the assembled HTTP application and the resources it owns.
type server struct {
	echo    *echo.Echo
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// newServer wires storage, models, services and routes. Postgres and Redis
// are used when configured; otherwise everything lives in memory.
func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*server, error) {
	srv := &server{}
	fail := func(err error) (*server, error) {
		srv.Close()
		return nil, err
	}

	var (
		checks []db.Check
		users  identity.UserRepository
		appts  scheduling.AppointmentRepository
		tx     scheduling.TxFunc
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return fail(err)
		}
		srv.closers = append(srv.closers, pool.Close)
		logger.Info().Msg("connected to database")

		count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
		if err != nil {
			return fail(fmt.Errorf("apply migrations: %w", err))
		}
		logger.Info().Int("applied", count).Msg("migrations up to date")

		users = identity.NewUserRepoPG(pool)
		appts = scheduling.NewAppointmentRepoPG(pool)
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		}
		checks = append(checks, db.PoolCheck(pool))
	} else {
		logger.Warn().Msg("DATABASE_URL not set, users and appointments are kept in memory")
		users = identity.NewUserRepoMemory()
		appts = scheduling.NewAppointmentRepoMemory()
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		srv.closers = append(srv.closers, func() { client.Close() })
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
		checks = append(checks, db.Check{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
		logger.Info().Msg("connected to redis")
	} else {
		sessions = session.NewMemoryStore()
	}

	models, closeModels := inference.Load(cfg.Inference(), logger)
	srv.closers = append(srv.closers, closeModels)

	usage := analytics.NewUsageTracker(cfg.UsageEventsMax)
	tokens := auth.NewTokenManager(cfg.SigningSecret(), cfg.JWTIssuer)

	identitySvc := identity.NewService(users, sessions, tokens, cfg.SessionTTL, logger)
	if err := identitySvc.Seed(ctx, identity.DefaultAccounts(cfg.AdminUsername, cfg.AdminPassword, cfg.IsDev())...); err != nil {
		return fail(fmt.Errorf("seed accounts: %w", err))
	}
	policy := risk.NewPolicy(logger)
	predictionSvc := prediction.NewService(policy, models, sessions, usage, identitySvc, cfg.MaxUploadBytes, logger)
	schedulingSvc := scheduling.NewService(appts, tx, logger)
	adminSvc := admin.NewService(identitySvc, schedulingSvc, usage, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
	}))
	// Multipart framing needs headroom above the file limit.
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.MaxUploadBytes+1<<20, imageUploadPath))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", db.HealthHandler(checks, func() map[string]interface{} {
		return map[string]interface{}{
			"models":      models.Status(),
			"environment": cfg.Env,
		}
	}))

	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.BurstSize = cfg.RateLimitBurst
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rl))
	public := apiV1.Group("")
	protected := apiV1.Group("", auth.SessionMiddleware(tokens, sessions))

	identity.NewHandler(identitySvc).RegisterRoutes(public, protected)
	education.NewHandler().RegisterRoutes(public)
	prediction.NewHandler(predictionSvc).RegisterRoutes(protected)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(protected)
	admin.NewHandler(adminSvc).RegisterRoutes(protected)

	srv.echo = e
	return srv, nil
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()
	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
