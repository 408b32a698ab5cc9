package fasta

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `>seq1 Panthera tigris COI fragment
ATGCGTACGTAGCTAGCTAG
>seq2
TTGACGATCG
ATCGATGCAA

>empty
>seq3
acgtn
`

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "seq1", records[0].SequenceID)
	assert.Equal(t, "ATGCGTACGTAGCTAGCTAG", records[0].Sequence)

	// Wrapped sequence lines are concatenated.
	assert.Equal(t, "seq2", records[1].SequenceID)
	assert.Equal(t, "TTGACGATCGATCGATGCAA", records[1].Sequence)

	// Lowercase input is uppercased; headerless/empty records are dropped.
	assert.Equal(t, "seq3", records[2].SequenceID)
	assert.Equal(t, "ACGTN", records[2].Sequence)
}

func TestParseGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	records, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "seq1", records[0].SequenceID)
}

func TestParseEmpty(t *testing.T) {
	records, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = Parse(strings.NewReader(">only_header\n\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseNoHeader(t *testing.T) {
	// Bare sequence data without a header still yields a record; the caller
	// assigns a positional id.
	records, err := Parse(strings.NewReader("ACGTACGT\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].SequenceID)
	assert.Equal(t, "ACGTACGT", records[0].Sequence)
}

func TestCountInvalid(t *testing.T) {
	assert.Equal(t, 0, CountInvalid("ACGTRYSWKMBDHVN-"))
	assert.Equal(t, 0, CountInvalid("acgt"))
	assert.Equal(t, 2, CountInvalid("ACXGZ"))
}
