package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_RecordAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := OpenCatalog(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, cat.Close()) }()

	stA := LeafStats{Sequences: 2, KmersInserted: 10, DistinctKmers: 8, FillRatio: 0.01, FalsePositiveRate: 1e-6}
	stB := LeafStats{Sequences: 1, KmersInserted: 3, DistinctKmers: 3, FillRatio: 0.002, FalsePositiveRate: 1e-8}
	require.NoError(t, cat.Record("b", "b.fa", stB))
	require.NoError(t, cat.Record("a", "a.fa", stA))

	entries, err := cat.Datasets()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "a", entries[0].Name, "ordered by name")
	assert.Equal(t, "a.fa", entries[0].Source)
	assert.Equal(t, stA, entries[0].Stats)
	assert.Equal(t, "b", entries[1].Name)
	assert.Equal(t, stB, entries[1].Stats)
	assert.False(t, entries[0].IngestedAt.IsZero())
}

func TestCatalog_RecordUpserts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := OpenCatalog(path)
	require.NoError(t, err)
	defer func() { _ = cat.Close() }()

	require.NoError(t, cat.Record("a", "a.fa", LeafStats{Sequences: 1, KmersInserted: 1, DistinctKmers: 1}))
	require.NoError(t, cat.Record("a", "a2.fa", LeafStats{Sequences: 5, KmersInserted: 9, DistinctKmers: 7}))

	entries, err := cat.Datasets()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a2.fa", entries[0].Source)
	assert.Equal(t, 5, entries[0].Stats.Sequences)
}

func TestCatalog_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := OpenCatalog(path)
	require.NoError(t, err)
	require.NoError(t, cat.Record("a", "a.fa", LeafStats{Sequences: 1, KmersInserted: 2, DistinctKmers: 2}))
	require.NoError(t, cat.Close())

	cat2, err := OpenCatalog(path)
	require.NoError(t, err)
	defer func() { _ = cat2.Close() }()
	entries, err := cat2.Datasets()
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
