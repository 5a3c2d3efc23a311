package workers

import (
	"context"
	"log/slog"
	"space-chat/domain/event"
	"space-chat/errors"
	"space-chat/mocks"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	workerMock := mocks.NewMockWorker(ctrl)
	telemetry := make(chan event.Event, 10)

	var calls atomic.Int32
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls.Add(1)
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(log, telemetry, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go sup.Add(workerMock).Run(ctx)

	// Waiting for panics and restarts
	time.Sleep(400 * time.Millisecond)

	req.GreaterOrEqual(calls.Load(), int32(2))
	// Then every restart is reported
	evt := <-telemetry
	req.Equal(event.RestartedAfterPanicType, evt.Type)
	req.Equal("MockWorker", evt.Payload.(event.WorkerRestartedAfterPanic).WorkerName)
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(nil).
		Times(1)

	sup := NewSupervisor(log, nil, time.Millisecond)

	// Given a channel to notify when Run() terminated
	done := make(chan struct{})

	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then supervisor detected a success, returned nil and stopped
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Spawn_After_Run_And_Stop(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	permanent := mocks.NewMockWorker(ctrl)
	dynamic := mocks.NewMockWorker(ctrl)

	// Given a permanent worker keeping the supervisor alive
	permanent.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}).Times(1)
	started := make(chan struct{})
	dynamic.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}).Times(1)

	sup := NewSupervisor(slog.Default(), nil, time.Millisecond)
	done := make(chan struct{})
	go func() {
		sup.Add(permanent).Run(context.Background())
		close(done)
	}()

	// When a worker is spawned while the supervisor runs
	req.NoError(sup.Spawn(dynamic))

	// Then it starts under supervision
	select {
	case <-started:
	case <-time.After(time.Second):
		req.Fail("spawned worker never started")
	}

	// When the supervisor stops, everyone stops
	sup.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("supervisor did not stop")
	}
	req.ErrorIs(sup.Spawn(dynamic), errors.ErrSupervisorStopped)
}
