package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/darkkD11/CardArena/internal/protocol"
	"github.com/darkkD11/CardArena/internal/services/directory"
	"github.com/darkkD11/CardArena/internal/services/sweeper"
)

// Run processes queued events, heartbeat rounds and maintenance sweeps on
// the calling goroutine until ctx is cancelled. It must be called at most once.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	close(e.started)
	defer close(e.stopped)
	defer e.running.Store(false)

	heartbeat := time.NewTicker(e.heartbeat.Interval())
	defer heartbeat.Stop()

	sweepCfg := e.sweeper.Config()
	sweep := time.NewTimer(sweepCfg.InitialDelay)
	defer sweep.Stop()

	e.logger.Info("engine started",
		slog.Duration("heartbeat_interval", e.heartbeat.Interval()),
		slog.Duration("sweep_interval", sweepCfg.Interval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")
			return nil
		case fn := <-e.events:
			fn()
		case <-heartbeat.C:
			e.Heartbeat(ctx)
		case <-sweep.C:
			e.Sweep(ctx)
			sweep.Reset(sweepCfg.Interval)
		}
	}
}

// Started is closed once Run owns the event loop. Connections accepted
// before that would run their handlers inline, so serving waits on it.
func (e *Engine) Started() <-chan struct{} {
	return e.started
}

// Submit queues fn for the event loop. Before Run starts fn runs inline.
// After Run has returned fn is dropped.
func (e *Engine) Submit(fn func()) {
	if !e.running.Load() {
		select {
		case <-e.stopped:
			return
		default:
		}
		fn()
		return
	}
	select {
	case e.events <- fn:
	case <-e.stopped:
	}
}

// Do runs fn on the event loop and waits for it to finish
func (e *Engine) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	e.Submit(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return context.Canceled
	}
}

// Connect queues a connection open
func (e *Engine) Connect(conn directory.Conn) {
	e.Submit(func() { e.HandleConnect(conn) })
}

// Receive queues an inbound frame. Frames from one connection are applied
// in the order they were queued.
func (e *Engine) Receive(conn directory.Conn, data []byte) {
	e.Submit(func() { e.HandleMessage(context.Background(), conn, data) })
}

// Disconnect queues a connection close
func (e *Engine) Disconnect(conn directory.Conn) {
	e.Submit(func() { e.HandleDisconnect(context.Background(), conn) })
}

// Alive records a liveness response. The directory is safe for concurrent
// use so this does not queue.
func (e *Engine) Alive(conn directory.Conn) {
	e.HandleAlive(conn)
}

// RunSweep runs a maintenance pass on the event loop
func (e *Engine) RunSweep(ctx context.Context) (sweeper.Report, error) {
	var report sweeper.Report
	err := e.Do(ctx, func() {
		report = e.Sweep(context.WithoutCancel(ctx))
	})
	return report, err
}

// Lobby returns the public room list as clients see it
func (e *Engine) Lobby(ctx context.Context) (protocol.RoomsList, error) {
	var (
		list protocol.RoomsList
		err  error
	)
	if doErr := e.Do(ctx, func() {
		list, err = e.lobby(context.WithoutCancel(ctx))
	}); doErr != nil {
		return protocol.RoomsList{}, doErr
	}
	return list, err
}

// Room returns the wire view of the room with the given id or join code
func (e *Engine) Room(ctx context.Context, ref string) (protocol.Room, error) {
	var (
		view protocol.Room
		err  error
	)
	if doErr := e.Do(ctx, func() {
		r, findErr := e.rooms.Resolve(context.WithoutCancel(ctx), ref)
		if findErr != nil {
			err = findErr
			return
		}
		view = protocol.RoomFromModel(r)
	}); doErr != nil {
		return protocol.Room{}, doErr
	}
	return view, err
}
