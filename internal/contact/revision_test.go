package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveRevision_IDWinsOverTimestamp(t *testing.T) {
	ref, err := ResolveRevision(5, "2020-01-01T00:00:00.000000")
	require.NoError(t, err)
	n, ok := ref.Number()
	require.True(t, ok)
	require.Equal(t, uint64(5), n)
	_, timed := ref.Time()
	require.False(t, timed)
}

func TestResolveRevision_Timestamp(t *testing.T) {
	ref, err := ResolveRevision(0, "2020-01-02T03:04:05.000006")
	require.NoError(t, err)
	at, ok := ref.Time()
	require.True(t, ok)
	require.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 6000, time.UTC), at)
}

func TestResolveRevision_BadTimestamp(t *testing.T) {
	_, err := ResolveRevision(0, "2020-01-02 03:04:05")
	require.ErrorIs(t, err, ErrBadRevisionFormat)
}

func TestResolveRevision_DefaultsToLatest(t *testing.T) {
	ref, err := ResolveRevision(0, "")
	require.NoError(t, err)
	require.True(t, ref.IsLatest())
}
