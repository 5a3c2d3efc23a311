package workers

import (
	"context"
	"log/slog"
	"space-chat/contract"
	"space-chat/domain"
	"space-chat/errors"
	"sync"
	"time"
)

var _ contract.Worker = (*RoomWorker)(nil)

// RoomWorker is the serialization point of one room.
// Tasks are executed one at a time, in the order they are received, on the
// worker goroutine. The task channel is unbuffered: a task is either executed
// or never accepted.
type RoomWorker struct {
	ID          domain.RoomID
	log         *slog.Logger
	tasks       chan func()
	done        chan struct{}
	stopOnce    sync.Once
	idleTimeout time.Duration
	retire      func() bool
}

// NewRoomWorker builds a worker that stops after idleTimeout without tasks,
// provided retire agrees. retire must unregister the worker so no new task
// can be routed to it.
func NewRoomWorker(id domain.RoomID, log *slog.Logger, idleTimeout time.Duration, retire func() bool) *RoomWorker {
	return &RoomWorker{
		ID:          id,
		log:         log.With("room", id),
		tasks:       make(chan func()),
		done:        make(chan struct{}),
		idleTimeout: idleTimeout,
		retire:      retire,
	}
}

func (w *RoomWorker) Run(ctx context.Context) error {
	idle := time.NewTimer(w.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case <-ctx.Done():
			w.stop()
			return ctx.Err()
		case task := <-w.tasks:
			task()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(w.idleTimeout)
		case <-idle.C:
			if w.retire == nil || w.retire() {
				w.log.Debug("Room worker retired after idle timeout")
				w.stop()
				return nil
			}
			idle.Reset(w.idleTimeout)
		}
	}
}

// Do executes fn on the worker goroutine and returns its error.
// A panic inside fn is reported as ErrWorkerPanic to the caller and
// re-raised so the supervisor restarts the worker.
func (w *RoomWorker) Do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- errors.ErrWorkerPanic
				panic(r)
			}
		}()
		reply <- fn()
	}
	select {
	case w.tasks <- task:
	case <-w.done:
		return errors.ErrRoomWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-reply
}

func (w *RoomWorker) Done() <-chan struct{} { return w.done }

func (w *RoomWorker) stop() {
	w.stopOnce.Do(func() { close(w.done) })
}
