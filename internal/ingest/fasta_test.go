package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFasta_MultiRecord(t *testing.T) {
	in := strings.Join([]string{
		">seq1 first sample",
		"aaaat",
		"CCCGG",
		"",
		">seq2",
		"GATTACA",
	}, "\n")

	records, err := ReadFasta(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "seq1 first sample", records[0].Header)
	assert.Equal(t, "AAAATCCCGG", records[0].Seq, "lines concatenate and uppercase")
	assert.Equal(t, "seq2", records[1].Header)
	assert.Equal(t, "GATTACA", records[1].Seq)
}

func TestReadFasta_Empty(t *testing.T) {
	records, err := ReadFasta(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadFasta_HeaderOnly(t *testing.T) {
	records, err := ReadFasta(strings.NewReader(">empty\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Seq)
}

func TestReadFasta_DataBeforeHeader(t *testing.T) {
	_, err := ReadFasta(strings.NewReader("ACGT\n>late\nACGT\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before first header")
}

func TestKmers(t *testing.T) {
	assert.Equal(t, []string{"GAAAA", "AAAAA", "AAAAT"}, Kmers("GAAAAAT", 5))
	assert.Equal(t, []string{"ACGTA"}, Kmers("ACGTA", 5))
	assert.Nil(t, Kmers("ACGT", 5), "sequence shorter than k has no k-mers")
	assert.Nil(t, Kmers("", 5))
	assert.Nil(t, Kmers("ACGT", 0))
}
