package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusConfirm(t *testing.T) {
	got, err := StatusReserved.Confirm()
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got)

	for _, s := range []Status{StatusConfirmed, StatusCancelled, StatusAttended, StatusNoShow} {
		_, err := s.Confirm()
		assert.ErrorIs(t, err, ErrInvalidStatusTransition, "confirm from %s", s)
	}
}

func TestStatusCancel(t *testing.T) {
	for _, s := range []Status{StatusReserved, StatusConfirmed} {
		got, err := s.Cancel()
		require.NoError(t, err, "cancel from %s", s)
		assert.Equal(t, StatusCancelled, got)
	}

	for _, s := range []Status{StatusCancelled, StatusAttended, StatusNoShow} {
		_, err := s.Cancel()
		assert.ErrorIs(t, err, ErrInvalidStatusTransition, "cancel from %s", s)
	}
}

func TestStatusAttend(t *testing.T) {
	got, err := StatusConfirmed.Attend()
	require.NoError(t, err)
	assert.Equal(t, StatusAttended, got)

	for _, s := range []Status{StatusReserved, StatusCancelled, StatusAttended, StatusNoShow} {
		_, err := s.Attend()
		assert.ErrorIs(t, err, ErrInvalidStatusTransition, "attend from %s", s)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusReserved.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusAttended.Terminal())
	assert.True(t, StatusNoShow.Terminal())
}
