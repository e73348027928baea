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
	"gorm.io/gorm"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/database"
	"github.com/iliyamo/storefront/internal/handler"
	"github.com/iliyamo/storefront/internal/logging"
	"github.com/iliyamo/storefront/internal/metrics"
	"github.com/iliyamo/storefront/internal/middleware"
	"github.com/iliyamo/storefront/internal/queue"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/router"
	"github.com/iliyamo/storefront/internal/service"
)

var logger = loggo.GetLogger("storefront.cmd.products")

func main() {
	root := &cli.Command{
		Name:  "products",
		Usage: "Products service: catalogue API publishing audit events",
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

func open(ctx context.Context) (config.Config, *gorm.DB, error) {
	cfg, err := config.Load(config.ServiceProducts)
	if err != nil {
		return cfg, nil, err
	}
	if err := logging.Setup(cfg.Service, cfg.LogLevel); err != nil {
		return cfg, nil, err
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return cfg, nil, err
	}
	if err := database.Migrate(ctx, db, database.ProductsMigrations); err != nil {
		database.Close(db)
		return cfg, nil, err
	}
	return cfg, db, nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, db, err := open(ctx)
	if err != nil {
		return err
	}
	defer database.Close(db)

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		logger.Warningf("redis unreachable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	cacheCfg := cfg.Cache
	if cfg.Products.TrackQueries && cacheCfg.Enabled {
		// cached reads would never reach the counter
		logger.Infof("query tracking on; response cache disabled")
		cacheCfg.Enabled = false
	}
	cache := middleware.NewResponseCache(cacheCfg, rdb, "products")

	m := metrics.NewCollector(cfg.Service)
	products := service.NewProductService(repository.NewProductRepo(db), queue.NewPublisher(cfg.MQ, m))
	analytics := service.NewAnalyticsService(repository.NewAnalyticsRepo(db))

	e := router.New(m, metrics.NewRegistry(m), middleware.NewTokenBucket(cfg.RateLimit, cfg.Token, rdb))
	router.RegisterProducts(e, handler.NewProductHandler(products, analytics, cache, cfg.Products.TrackQueries), cfg.Token, cache)

	logger.Infof("products service starting (env=%s, queue=%s)", cfg.Env, cfg.MQ.Queue)
	return router.Serve(ctx, e, cfg.HTTP.Addr(), cfg.HTTP.ShutdownTimeout)
}

func migrate(ctx context.Context, _ *cli.Command) error {
	_, db, err := open(ctx)
	if err != nil {
		return err
	}
	database.Close(db)
	logger.Infof("products database is up to date")
	return nil
}
