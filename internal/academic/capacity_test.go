package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCanAdmitBoundary(t *testing.T) {
	assert.True(t, CanAdmit(intPtr(30), 29))
	assert.False(t, CanAdmit(intPtr(30), 30))
	assert.False(t, CanAdmit(intPtr(30), 31))
	assert.True(t, CanAdmit(nil, 10000))
	assert.False(t, CanAdmit(intPtr(0), 0))
}

func TestRemainingSeats(t *testing.T) {
	assert.Nil(t, RemainingSeats(nil, 3))

	remaining := RemainingSeats(intPtr(30), 28)
	require.NotNil(t, remaining)
	assert.Equal(t, 2, *remaining)

	remaining = RemainingSeats(intPtr(10), 12)
	require.NotNil(t, remaining)
	assert.Equal(t, 0, *remaining)
}
