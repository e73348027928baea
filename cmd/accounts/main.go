package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/urfave/cli/v3"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/database"
	"github.com/iliyamo/storefront/internal/handler"
	"github.com/iliyamo/storefront/internal/logging"
	"github.com/iliyamo/storefront/internal/metrics"
	"github.com/iliyamo/storefront/internal/middleware"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/router"
	"github.com/iliyamo/storefront/internal/service"
)

var logger = loggo.GetLogger("storefront.cmd.accounts")

func main() {
	root := &cli.Command{
		Name:  "accounts",
		Usage: "Accounts service: login and admin account management",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Action: migrate,
			},
			{
				Name:  "seed-admin",
				Usage: "Create the root admin account unless it already exists",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "root email (defaults to ROOT_EMAIL)"},
					&cli.StringFlag{Name: "password", Usage: "root password (defaults to ROOT_PASSWORD)"},
				},
				Action: seedAdmin,
			},
		},
		Action: serve,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		os.Exit(1)
	}
}

func setup(ctx context.Context) (config.Config, *service.AccountService, func(), error) {
	cfg, err := config.Load(config.ServiceAccounts)
	if err != nil {
		return cfg, nil, nil, err
	}
	if err := logging.Setup(cfg.Service, cfg.LogLevel); err != nil {
		return cfg, nil, nil, err
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return cfg, nil, nil, err
	}
	if err := database.Migrate(ctx, db, database.AccountsMigrations); err != nil {
		database.Close(db)
		return cfg, nil, nil, err
	}
	svc := service.NewAccountService(repository.NewAccountRepo(db), cfg.Root.BcryptCost)
	return cfg, svc, func() { database.Close(db) }, nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, accounts, closeDB, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if cfg.Root.Email != "" && cfg.Root.Password != "" {
		if _, err := accounts.EnsureRoot(ctx, cfg.Root.Email, cfg.Root.Password); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		logger.Warningf("redis unreachable; rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	m := metrics.NewCollector(cfg.Service)
	e := router.New(m, metrics.NewRegistry(m), middleware.NewTokenBucket(cfg.RateLimit, cfg.Token, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.Token, accounts))
	router.RegisterAccounts(e, handler.NewAccountHandler(accounts), cfg.Token)

	logger.Infof("accounts service starting (env=%s)", cfg.Env)
	return router.Serve(ctx, e, cfg.HTTP.Addr(), cfg.HTTP.ShutdownTimeout)
}

func migrate(ctx context.Context, _ *cli.Command) error {
	_, _, closeDB, err := setup(ctx)
	if err != nil {
		return err
	}
	closeDB()
	logger.Infof("accounts database is up to date")
	return nil
}

func seedAdmin(ctx context.Context, cmd *cli.Command) error {
	cfg, accounts, closeDB, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	email, password := cmd.String("email"), cmd.String("password")
	if email == "" {
		email = cfg.Root.Email
	}
	if password == "" {
		password = cfg.Root.Password
	}
	created, err := accounts.EnsureRoot(ctx, email, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created admin %s\n", email)
	} else {
		fmt.Printf("account %s already exists\n", email)
	}
	return nil
}
