package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLeasePolicy(t *testing.T) {
	t.Run("valid default", func(t *testing.T) {
		p, err := NewLeasePolicy(5 * time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, p.Default())
	})

	t.Run("zero default rejected", func(t *testing.T) {
		_, err := NewLeasePolicy(0)
		assert.ErrorIs(t, err, ErrInvalidDefaultLease)
	})

	t.Run("negative default rejected", func(t *testing.T) {
		_, err := NewLeasePolicy(-time.Second)
		assert.ErrorIs(t, err, ErrInvalidDefaultLease)
	})
}

func TestLeasePolicyResolve(t *testing.T) {
	p, err := NewLeasePolicy(5 * time.Minute)
	require.NoError(t, err)

	t.Run("zero request falls back to default", func(t *testing.T) {
		seconds, clamped := p.Resolve(0)
		assert.Equal(t, 300, seconds)
		assert.False(t, clamped)
	})

	t.Run("explicit request passes through", func(t *testing.T) {
		seconds, clamped := p.Resolve(90 * time.Second)
		assert.Equal(t, 90, seconds)
		assert.False(t, clamped)
	})

	t.Run("sub-second request clamps to one second", func(t *testing.T) {
		seconds, clamped := p.Resolve(200 * time.Millisecond)
		assert.Equal(t, 1, seconds)
		assert.True(t, clamped)
	})

	t.Run("negative request clamps to one second", func(t *testing.T) {
		seconds, clamped := p.Resolve(-time.Minute)
		assert.Equal(t, 1, seconds)
		assert.True(t, clamped)
	})
}
