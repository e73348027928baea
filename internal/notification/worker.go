// Package notification turns audit events into emails to every active
// administrator.
package notification

import (
	"context"

	"github.com/juju/loggo"
	"gopkg.in/tomb.v2"
)

var logger = loggo.GetLogger("storefront.notification")

// Runner is a blocking loop that stops when its context is cancelled.
// *queue.Consumer implements it.
type Runner interface {
	Run(ctx context.Context) error
}

// Worker supervises the audit-event consumer.
type Worker struct {
	tomb   tomb.Tomb
	runner Runner
}

// NewWorker starts runner under a new Worker.
func NewWorker(runner Runner) *Worker {
	w := &Worker{runner: runner}
	w.tomb.Go(w.loop)
	return w
}

// Kill asks the worker to stop.  The message being handled is finished.
func (w *Worker) Kill() {
	w.tomb.Kill(nil)
}

// Wait blocks until the worker has stopped and returns its error.
func (w *Worker) Wait() error {
	return w.tomb.Wait()
}

// Dead is closed once the worker has stopped.
func (w *Worker) Dead() <-chan struct{} {
	return w.tomb.Dead()
}

func (w *Worker) loop() error {
	ctx := w.tomb.Context(context.Background())
	logger.Infof("notification worker started")
	defer logger.Infof("notification worker stopped")
	return w.runner.Run(ctx)
}
