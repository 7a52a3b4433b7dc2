package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iparrondo/eeg-models/internal/lint"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string) *lint.Report {
	return &lint.Report{
		ID:          id,
		Manifest:    "pyproject.toml",
		GeneratedAt: time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		Diagnostics: []lint.Diagnostic{
			{Code: "EM005", Severity: lint.Error, Path: "tool.poetry.dependencies.torch", Message: "constraint admits no version"},
			{Code: "EM009", Severity: lint.Warning, Path: "tool.poetry.dependencies", Message: "no interpreter constraint"},
		},
		Stats: lint.Stats{Errors: 1, Warnings: 1, Rules: 14},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleReport("r1")
	require.NoError(t, s.Put(ctx, "k1", want))

	got, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_PutReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", sampleReport("old")))
	require.NoError(t, s.Put(ctx, "k", sampleReport("new")))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)
}

func TestStore_Prune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k1", sampleReport("r1")))
	require.NoError(t, s.Put(ctx, "k2", sampleReport("r2")))

	// Nothing is older than an hour yet.
	n, err := s.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	// A negative age moves the cutoff into the future and clears the table.
	n, err = s.Prune(ctx, -time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "k", sampleReport("persisted")))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, ok, err := s2.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", got.ID)
}
