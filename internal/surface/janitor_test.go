package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJanitor_InvalidSchedule(t *testing.T) {
	_, err := NewJanitor(New(Config{}), "every now and then", nil)
	assert.Error(t, err)
}

func TestJanitor_Run(t *testing.T) {
	p := newTestPool(Config{MaxPoolSize: 2, PressureThreshold: 0.5})
	for _, size := range []int{100, 200} {
		s, err := p.Acquire(size, size)
		require.NoError(t, err)
		require.NoError(t, s.Release())
	}

	j, err := NewJanitor(p, "@every 1h", nil)
	require.NoError(t, err)
	j.Start()
	defer j.Stop()

	j.Run()
	assert.Equal(t, 0, p.Stats().Idle)
	assert.Equal(t, uint64(2), p.Stats().TotalEvicted)
}

func TestSharedLifecycle(t *testing.T) {
	Shutdown()

	_, err := Shared()
	assert.ErrorIs(t, err, ErrNotInitialized)

	first := Init(Config{MaxPoolSize: 3})
	got, err := Shared()
	require.NoError(t, err)
	assert.Same(t, first, got)

	second := Init(Config{})
	_, err = first.Acquire(10, 10)
	assert.ErrorIs(t, err, ErrPoolClosed, "re-init closes the previous pool")

	got, err = Shared()
	require.NoError(t, err)
	assert.Same(t, second, got)

	Shutdown()
	_, err = Shared()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSystemProbe(t *testing.T) {
	used, err := SystemProbe{}.UsedPercent()
	if err != nil {
		t.Skipf("memory stats unavailable: %v", err)
	}
	assert.GreaterOrEqual(t, used, 0.0)
	assert.LessOrEqual(t, used, 100.0)
}
