package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/kwsearch/internal/types"
)

func TestHitsRoundTrip(t *testing.T) {
	files := []string{"/d/a.txt", "/d/caf\xe9.txt", "/d/c.md"}
	keywords := types.Keywords{"Python", "r\xe9sum\xe9"}
	partial := types.Result{
		"Python":       {"/d/c.md", "/d/caf\xe9.txt"},
		"r\xe9sum\xe9": {"/d/a.txt"},
	}

	hits, err := encodeHits(partial, files, keywords)
	require.NoError(t, err)
	assert.Equal(t, map[int][]int{0: {2, 1}, 1: {0}}, hits)

	decoded, err := decodeHits(hits, files, keywords)
	require.NoError(t, err)
	assert.Equal(t, partial, decoded)
}

func TestEncodeHits_UnknownEntries(t *testing.T) {
	files := []string{"/d/a.txt"}
	keywords := types.Keywords{"go"}

	_, err := encodeHits(types.Result{"rust": {"/d/a.txt"}}, files, keywords)
	assert.ErrorContains(t, err, "keyword")

	_, err = encodeHits(types.Result{"go": {"/d/b.txt"}}, files, keywords)
	assert.ErrorContains(t, err, "file")
}

func TestDecodeHits_OutOfRange(t *testing.T) {
	files := []string{"/d/a.txt"}
	keywords := types.Keywords{"go"}

	_, err := decodeHits(map[int][]int{1: {0}}, files, keywords)
	assert.ErrorContains(t, err, "keyword index 1")

	_, err = decodeHits(map[int][]int{0: {-1}}, files, keywords)
	assert.ErrorContains(t, err, "file index -1")
}
