package service

import (
	"context"
	"errors"
	"sync"

	"github.com/beaconkit/beacond/libs/log"
)

var (
	// ErrAlreadyStarted is returned when somebody tries to start an already
	// running service.
	ErrAlreadyStarted = errors.New("already started")
	// ErrAlreadyStopped is returned when somebody tries to start or stop a
	// service that has already been stopped. Services are not restartable.
	ErrAlreadyStopped = errors.New("already stopped")
	// ErrNotStarted is returned when somebody tries to stop a service that
	// was never started.
	ErrNotStarted = errors.New("not started")
)

// Service is a long-running component with a start/stop lifecycle.
type Service interface {
	// Start starts the service. The service stops on its own once ctx is
	// done. Starting a running or stopped service is an error.
	Start(context.Context) error

	// Stop stops the service and blocks until OnStop returns.
	Stop() error

	// IsRunning reports whether the service was started and not yet stopped.
	IsRunning() bool

	// String returns the service name.
	String() string

	// Wait blocks until the service is stopped.
	Wait()
}

// Implementation is what BaseService drives.
type Implementation interface {
	Service

	// OnStart is called once by Start. An error leaves the service
	// unstarted.
	OnStart(context.Context) error

	// OnStop is called once by Stop, or when the Start context is done.
	OnStop()
}

/*
BaseService carries the lifecycle bookkeeping so that a component only has to
provide OnStart and OnStop.

	type Worker struct {
		service.BaseService
		// private fields
	}

	func NewWorker(logger log.Logger) *Worker {
		w := &Worker{}
		w.BaseService = *service.NewBaseService(logger, "Worker", w)
		return w
	}

	func (w *Worker) OnStart(ctx context.Context) error { ... }
	func (w *Worker) OnStop() { ... }
*/
type BaseService struct {
	logger log.Logger
	name   string

	mtx     sync.Mutex
	started bool
	stopped bool
	quit    chan struct{}

	// the "subclass" of BaseService
	impl Implementation
}

// NewBaseService creates a new BaseService. A nil logger discards output.
func NewBaseService(logger log.Logger, name string, impl Implementation) *BaseService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &BaseService{
		logger: logger,
		name:   name,
		quit:   make(chan struct{}),
		impl:   impl,
	}
}

// Start calls OnStart and, once it succeeds, arranges for Stop to be called
// when ctx is done.
func (bs *BaseService) Start(ctx context.Context) error {
	bs.mtx.Lock()
	switch {
	case bs.stopped:
		bs.mtx.Unlock()
		bs.logger.Error("not starting service; already stopped", "service", bs.name)
		return ErrAlreadyStopped
	case bs.started:
		bs.mtx.Unlock()
		return ErrAlreadyStarted
	}
	bs.started = true
	bs.mtx.Unlock()

	bs.logger.Info("starting service", "service", bs.name, "impl", bs.impl.String())

	if err := bs.impl.OnStart(ctx); err != nil {
		bs.mtx.Lock()
		bs.started = false
		bs.mtx.Unlock()
		return err
	}

	go func() {
		select {
		case <-bs.quit:
			// stopped explicitly
		case <-ctx.Done():
			if err := bs.Stop(); err != nil && !errors.Is(err, ErrAlreadyStopped) {
				bs.logger.Error("failed to stop service", "service", bs.name, "err", err)
			}
		}
	}()

	return nil
}

// Stop calls OnStop and releases everyone blocked in Wait.
func (bs *BaseService) Stop() error {
	bs.mtx.Lock()
	switch {
	case bs.stopped:
		bs.mtx.Unlock()
		return ErrAlreadyStopped
	case !bs.started:
		bs.mtx.Unlock()
		bs.logger.Error("not stopping service; not started yet", "service", bs.name)
		return ErrNotStarted
	}
	bs.stopped = true
	bs.mtx.Unlock()

	bs.logger.Info("stopping service", "service", bs.name, "impl", bs.impl.String())
	bs.impl.OnStop()
	close(bs.quit)

	return nil
}

// IsRunning implements Service.
func (bs *BaseService) IsRunning() bool {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()
	return bs.started && !bs.stopped
}

// Wait blocks until the service is stopped.
func (bs *BaseService) Wait() { <-bs.quit }

// String implements Service by returning the service name.
func (bs *BaseService) String() string { return bs.name }
