package svcutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"

	"github.com/LucaCeccarelli/projet-integrateur/logutil"
)

type countingService struct {
	runs    atomic.Int32
	started chan struct{}
}

func (s *countingService) Serve(ctx context.Context) error {
	if s.runs.Add(1) == 1 {
		close(s.started)
	}
	<-ctx.Done()
	return ctx.Err()
}

type oneShot struct{ runs atomic.Int32 }

func (s *oneShot) Serve(context.Context) error {
	s.runs.Add(1)
	return suture.ErrDoNotRestart
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	svc := &countingService{started: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "test", logutil.Discard(), svc) }()

	select {
	case <-svc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("service never started")
	}
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(ServiceTimeout):
		t.Fatal("Run did not return")
	}
	assert.EqualValues(t, 1, svc.runs.Load())
}

func TestRunDoesNotRestartFinishedService(t *testing.T) {
	svc := &oneShot{}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, Run(ctx, "test", logutil.Discard(), svc))
	assert.EqualValues(t, 1, svc.runs.Load())
}
