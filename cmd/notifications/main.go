package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/urfave/cli/v3"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/logging"
	"github.com/iliyamo/storefront/internal/metrics"
	"github.com/iliyamo/storefront/internal/notification"
	"github.com/iliyamo/storefront/internal/queue"
	"github.com/iliyamo/storefront/internal/router"
)

var logger = loggo.GetLogger("storefront.cmd.notifications")

func main() {
	root := &cli.Command{
		Name:  "notifications",
		Usage: "Notification worker: emails admins about product changes",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Consume audit events and serve health and metrics (default)",
				Action: serve,
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

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load(config.ServiceNotifications)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Service, cfg.LogLevel); err != nil {
		return err
	}

	renderer, err := notification.NewRenderer()
	if err != nil {
		return err
	}
	m := metrics.NewCollector(cfg.Service)
	processor := notification.NewProcessor(
		renderer,
		notification.NewAccountsClient(cfg.Accounts, cfg.Token, cfg.Notify.ServiceSubject),
		notification.NewMailer(cfg.Mail, nil),
		m,
	)
	worker := notification.NewWorker(queue.NewConsumer(cfg.MQ, cfg.Notify.AckMode, processor.Handle, m))

	httpCtx, stopHTTP := context.WithCancel(ctx)
	defer stopHTTP()
	e := router.New(m, metrics.NewRegistry(m))
	router.RegisterNotifications(e)
	httpDone := make(chan error, 1)
	go func() { httpDone <- router.Serve(httpCtx, e, cfg.HTTP.Addr(), cfg.HTTP.ShutdownTimeout) }()

	logger.Infof("notifications service starting (queue=%s, ack=%s)", cfg.MQ.Queue, cfg.Notify.AckMode)

	var runErr error
	select {
	case <-ctx.Done():
	case <-worker.Dead():
		runErr = errors.Annotate(worker.Wait(), "notification worker stopped")
	case runErr = <-httpDone:
		httpDone = nil
	}

	worker.Kill()
	select {
	case <-worker.Dead():
		if err := worker.Wait(); err != nil && runErr == nil && ctx.Err() == nil {
			runErr = err
		}
	case <-time.After(cfg.Notify.DrainTimeout):
		logger.Warningf("worker did not stop within %s", cfg.Notify.DrainTimeout)
	}

	stopHTTP()
	if httpDone != nil {
		if err := <-httpDone; err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}
