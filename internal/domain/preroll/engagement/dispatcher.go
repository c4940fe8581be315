// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrDispatcherClosed is returned by Close when called twice.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Task is one unit of fire-and-forget work.
type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	QueueSize int
	Limiter   *rate.Limiter
	Logger    zerolog.Logger
}

// Dispatcher runs tasks on a single FIFO worker. Submit never blocks and task
// errors never reach the submitter.
type Dispatcher struct {
	mu     sync.RWMutex
	closed bool
	queue  chan job

	limiter *rate.Limiter
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher starts the worker goroutine.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:   make(chan job, cfg.QueueSize),
		limiter: cfg.Limiter,
		logger:  cfg.Logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go d.work()
	return d
}

// Submit enqueues t. It reports false when the queue is full or closed; the
// task is dropped in that case.
func (d *Dispatcher) Submit(name string, t Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- job{name: name, run: t}:
		return true
	default:
		return false
	}
}

// Backlog reports queued tasks and the queue capacity.
func (d *Dispatcher) Backlog() (pending, capacity int) {
	return len(d.queue), cap(d.queue)
}

func (d *Dispatcher) work() {
	defer close(d.done)
	for j := range d.queue {
		d.runOne(j)
	}
}

func (d *Dispatcher) runOne(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("task", j.name).
				Str("panic", fmt.Sprint(r)).
				Msg("engagement task panicked")
		}
	}()
	if d.limiter != nil {
		if err := d.limiter.Wait(d.ctx); err != nil {
			d.logger.Debug().Err(err).Str("task", j.name).Msg("engagement task abandoned while rate limited")
			return
		}
	}
	if err := j.run(d.ctx); err != nil {
		d.logger.Debug().Err(err).Str("task", j.name).Msg("engagement task failed")
	}
}

// Close stops accepting work and drains the queue until ctx is done, after
// which in-flight and remaining tasks see a cancelled context.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}
