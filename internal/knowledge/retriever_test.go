package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCorpus() []Exemplar {
	return []Exemplar{
		{ID: "blend-01", Problem: "Blend two fuels to minimize cost subject to octane requirements"},
		{ID: "knapsack-01", Problem: "Select items for a knapsack maximizing value under a weight limit"},
		{ID: "portfolio-01", Problem: "Allocate portfolio weights across four assets to maximize expected return"},
		{ID: "production-01", Problem: "Plan production quantities of two products under machine and labor hours"},
		{ID: "staffing-01", Problem: "Schedule staff shifts to cover demand while minimizing labor cost"},
	}
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	r, err := NewRetriever(testCorpus(), 0)
	require.NoError(t, err)

	got := r.Retrieve("Choose production quantities for our two products given machine hours and labor hours", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "production-01", got[0].ID)
}

func TestRetrieve_Deterministic(t *testing.T) {
	r, err := NewRetriever(testCorpus(), 0)
	require.NoError(t, err)

	q := "maximize expected return on a portfolio of assets"
	first := r.Retrieve(q, 3)
	second := r.Retrieve(q, 3)
	assert.Equal(t, first, second, "same query yields the same ranking")
	assert.Equal(t, "portfolio-01", first[0].ID)
}

func TestRetrieve_KLargerThanCorpus(t *testing.T) {
	r, err := NewRetriever(testCorpus(), 0)
	require.NoError(t, err)

	got := r.Retrieve("anything at all", 50)
	assert.Len(t, got, len(testCorpus()))
}

func TestRetrieve_ZeroKOrEmptyCorpus(t *testing.T) {
	r, err := NewRetriever(testCorpus(), 0)
	require.NoError(t, err)
	assert.Nil(t, r.Retrieve("query", 0))

	empty, err := NewRetriever(nil, 0)
	require.NoError(t, err)
	assert.Nil(t, empty.Retrieve("query", 3))
}

func TestRetrieve_NoTokenOverlapTiesBreakByID(t *testing.T) {
	r, err := NewRetriever(testCorpus(), 0)
	require.NoError(t, err)

	// A query sharing no tokens scores everything 0; order falls back to ID.
	got := r.Retrieve("zzz qqq", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "blend-01", got[0].ID)
	assert.Equal(t, "knapsack-01", got[1].ID)
}

func TestLoadCorpusFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	payload := `[
		{"id": "a", "problem": "some problem", "spec": {"variables": [], "constraints": [],
		 "objective": {"sense": "minimize", "expression": "x"}}},
		{"id": "b", "problem": "another problem", "spec": {"variables": [], "constraints": [],
		 "objective": {"sense": "maximize", "expression": "y"}}}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	got, err := LoadCorpusFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)

	_, err = LoadCorpusFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLoadCorpusFile_RejectsBlankIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": " ", "problem": "p"}]`), 0o644))

	_, err := LoadCorpusFile(path)
	assert.Error(t, err)
}
