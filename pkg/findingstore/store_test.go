package findingstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taintwave/phpsentinel/pkg/taint"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "findings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLookupMissBeforeAnyStore(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Lookup("abc123", "eval", 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreThenLookupRoundTrips(t *testing.T) {
	s := openTestStore(t)
	findings := []taint.Finding{
		{ID: "f1", Code: taint.Controlled, Source: "$_GET", SourceLine: 2, Sink: "eval", SinkParam: 0, SinkLine: 10},
	}

	require.NoError(t, s.Store("abc123", "eval", 10, findings))

	got, ok, err := s.Lookup("abc123", "eval", 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, taint.Controlled, got[0].Code)
	assert.Equal(t, "$_GET", got[0].Source)
}

func TestStoreEmptyResultIsStillCached(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Store("abc123", "eval", 10, nil))

	got, ok, err := s.Lookup("abc123", "eval", 10)
	require.NoError(t, err)
	assert.True(t, ok, "a scan that found nothing should still be a cache hit")
	assert.Empty(t, got)
}

func TestStoreOverwritesPreviousEntry(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Store("abc123", "eval", 10, []taint.Finding{
		{ID: "f1", Code: taint.Controlled, Source: "$_GET", SourceLine: 2, SinkParam: 0},
	}))
	require.NoError(t, s.Store("abc123", "eval", 10, nil))

	got, ok, err := s.Lookup("abc123", "eval", 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}
