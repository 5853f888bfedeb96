package component

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LifecycleFactory creates a fresh component for each lifecycle check.
type LifecycleFactory func() LifecycleComponent

const suiteTimeout = 5 * time.Second

// StandardLifecycleTests runs the lifecycle checks every LifecycleComponent
// must pass: ordinary transitions, idempotent Stop, restart, a cancelled
// start context and concurrent Start/Stop.
func StandardLifecycleTests(t *testing.T, factory LifecycleFactory) {
	t.Helper()

	tests := []struct {
		name string
		run  func(t *testing.T, comp LifecycleComponent)
	}{
		{"InitializeStartStop", checkInitializeStartStop},
		{"StopWithoutStart", checkStopWithoutStart},
		{"DoubleStop", checkDoubleStop},
		{"RestartAfterStop", checkRestartAfterStop},
		{"CancelledContext", checkCancelledContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := factory()
			require.NotNil(t, comp, "factory returned nil")
			tt.run(t, comp)
		})
	}

	t.Run("ConcurrentStartStop", func(t *testing.T) {
		checkConcurrentStartStop(t, factory())
	})
}

func startContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), suiteTimeout)
	t.Cleanup(cancel)
	return ctx
}

func checkInitializeStartStop(t *testing.T, comp LifecycleComponent) {
	require.NoError(t, comp.Initialize())
	require.NoError(t, comp.Start(startContext(t)))
	assert.True(t, comp.Health().Healthy, "started component reports healthy")
	require.NoError(t, comp.Stop(suiteTimeout))
	assert.False(t, comp.Health().Healthy, "stopped component reports unhealthy")
}

func checkStopWithoutStart(t *testing.T, comp LifecycleComponent) {
	assert.NoError(t, comp.Stop(suiteTimeout))
}

func checkDoubleStop(t *testing.T, comp LifecycleComponent) {
	require.NoError(t, comp.Initialize())
	require.NoError(t, comp.Start(startContext(t)))
	assert.NoError(t, comp.Stop(suiteTimeout))
	assert.NoError(t, comp.Stop(suiteTimeout))
}

func checkRestartAfterStop(t *testing.T, comp LifecycleComponent) {
	require.NoError(t, comp.Initialize())
	require.NoError(t, comp.Start(startContext(t)))
	require.NoError(t, comp.Stop(suiteTimeout))

	require.NoError(t, comp.Initialize())
	require.NoError(t, comp.Start(startContext(t)))
	assert.NoError(t, comp.Stop(suiteTimeout))
}

func checkCancelledContext(t *testing.T, comp LifecycleComponent) {
	require.NoError(t, comp.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := comp.Start(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, comp.Stop(suiteTimeout))
}

func checkConcurrentStartStop(t *testing.T, comp LifecycleComponent) {
	require.NotNil(t, comp, "factory returned nil")
	require.NoError(t, comp.Initialize())

	const workers = 20
	var wg sync.WaitGroup
	starts := make([]error, workers)
	stops := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			starts[i] = comp.Start(startContext(t))
		}(i)
		go func(i int) {
			defer wg.Done()
			time.Sleep(5 * time.Millisecond)
			stops[i] = comp.Stop(suiteTimeout)
		}(i)
	}
	wg.Wait()

	started := 0
	for _, err := range starts {
		if err == nil {
			started++
		}
	}
	assert.GreaterOrEqual(t, started, 1, "at least one Start succeeds")
	for _, err := range stops {
		assert.NoError(t, err)
	}
	assert.NoError(t, comp.Stop(suiteTimeout))
}
