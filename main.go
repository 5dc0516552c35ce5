package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gravitalia/forum/config"
	"github.com/Gravitalia/forum/database"
	forumgrpc "github.com/Gravitalia/forum/grpc"
	"github.com/Gravitalia/forum/helpers"
	"github.com/Gravitalia/forum/jobs"
	"github.com/Gravitalia/forum/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	inMemory   bool
)

// store is what serve needs from a database
type store interface {
	database.Forum
	Ping(ctx context.Context) error
}

func main() {
	root := &cobra.Command{
		Use:          "forum",
		Short:        "Community forum API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logs")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the gRPC health service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().BoolVar(&inMemory, "memory", false, "keep data in memory instead of Memgraph and Memcached")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the graph constraints and indexes",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	tokenCmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Print an access token for an email",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}

	adminCmd := &cobra.Command{
		Use:   "admin <email>",
		Short: "Give the admin role to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdmin,
	}

	root.AddCommand(serveCmd, migrateCmd, tokenCmd, adminCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}

	logger, err := helpers.NewLogger(verbose)
	if err != nil {
		return cfg, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init database
	var (
		db    store
		cache database.Cacher
	)
	if inMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		db, cache = database.NewMemory(), database.NewMemoryCache()
	} else {
		graph, err := database.Init(ctx, cfg.GraphURL, cfg.GraphUsername, cfg.GraphPassword)
		if err != nil {
			return fmt.Errorf("connect to graph database: %w", err)
		}
		defer graph.Close(context.Background())

		db, cache = graph, database.NewCache(cfg.MemURL, cfg.CacheTTL)
	}

	events := helpers.InitNATS(cfg.NatsURL, logger)
	defer events.Close()

	client, tracing, closeTracer := helpers.InitTracer(cfg.ZipkinAddress, cfg.Port, logger)
	defer closeTracer()

	var payments helpers.PaymentVerifier
	if checkout := helpers.NewCheckoutClient(client, cfg.PaymentAPI, cfg.PaymentSecret); checkout != nil {
		payments = checkout
	}

	// Start cron jobs
	scheduler := &jobs.Jobs{DB: db, Cache: cache, Logger: logger, Retention: cfg.ReportRetention}
	c, err := scheduler.Start()
	if err != nil {
		return fmt.Errorf("schedule jobs: %w", err)
	}
	defer c.Stop()
	go scheduler.WarmCache(ctx)

	// Start gRPC health service
	health := forumgrpc.NewHealth(db, logger)
	lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
	if err != nil {
		return fmt.Errorf("listen gRPC: %w", err)
	}
	go health.Watch(ctx, 30*time.Second)
	go func() {
		if err := health.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()
	defer health.Stop()

	routes := &router.Router{
		DB:            db,
		Cache:         cache,
		Events:        events,
		Tokens:        helpers.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		Payments:      payments,
		Logger:        logger,
		AllowedOrigin: cfg.AllowedOrigin,
	}

	// Create web server
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           tracing(routes.Handler()),
		ReadHeaderTimeout: 3 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("server is starting", zap.String("port", cfg.Port), zap.String("grpc_port", cfg.GrpcPort))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdown)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	graph, err := database.Init(cmd.Context(), cfg.GraphURL, cfg.GraphUsername, cfg.GraphPassword)
	if err != nil {
		return fmt.Errorf("connect to graph database: %w", err)
	}
	defer graph.Close(context.Background())

	if err := graph.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info("graph constraints and indexes created")
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	email, ok := helpers.NormalizeEmail(args[0])
	if !ok {
		return fmt.Errorf("invalid email %q", args[0])
	}

	token, err := helpers.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL).CreateToken(email)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runAdmin(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	email, ok := helpers.NormalizeEmail(args[0])
	if !ok {
		return fmt.Errorf("invalid email %q", args[0])
	}

	graph, err := database.Init(cmd.Context(), cfg.GraphURL, cfg.GraphUsername, cfg.GraphPassword)
	if err != nil {
		return fmt.Errorf("connect to graph database: %w", err)
	}
	defer graph.Close(context.Background())

	promoted, err := promote(cmd.Context(), graph, email)
	if err != nil {
		return err
	}

	if promoted {
		logger.Info("user is now an admin", zap.String("email", email))
	} else {
		logger.Info("user was already an admin", zap.String("email", email))
	}
	return nil
}

// promote gives the admin role to the user registered with email,
// it reports false when they already had it
func promote(ctx context.Context, db database.Forum, email string) (bool, error) {
	user, err := db.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return false, fmt.Errorf("no user registered with %s", email)
	} else if err != nil {
		return false, err
	}

	return db.MakeAdmin(ctx, user.Id)
}
