package disambig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestPick_DomainCorroborationWinsOutright(t *testing.T) {
	candidates := []model.SearchCandidate{
		{Name: "Acme Plumbing", URL: "https://linkedin.com/company/acme-plumbing-fl", Rank: 1, Location: "Miami, Florida"},
		{Name: "Totally Different Co", URL: "https://linkedin.com/company/different", Rank: 2, Website: "https://www.acmeplumbing.com"},
	}

	picked, ok := Disambiguator{}.Pick("Acme Plumbing", candidates, "Austin, Texas", "acmeplumbing.com")
	require.True(t, ok)
	// Domain match beats name relevance and rank.
	assert.Equal(t, "https://linkedin.com/company/different", picked.URL)
}

func TestPick_LocationBeatsRank(t *testing.T) {
	candidates := []model.SearchCandidate{
		{Name: "Acme Plumbing", URL: "https://linkedin.com/company/acme-fl", Rank: 1, Location: "Miami, Florida"},
		{Name: "Acme Plumbing", URL: "https://linkedin.com/company/acme-tx", Rank: 2, Location: "Austin, Texas"},
	}

	picked, ok := Disambiguator{}.Pick("Acme Plumbing", candidates, "Austin, Texas", "")
	require.True(t, ok)
	assert.Equal(t, "https://linkedin.com/company/acme-tx", picked.URL)
}

func TestPick_RankBreaksTies(t *testing.T) {
	candidates := []model.SearchCandidate{
		{Name: "Acme Plumbing", URL: "https://linkedin.com/company/acme-2", Rank: 2},
		{Name: "Acme Plumbing", URL: "https://linkedin.com/company/acme-1", Rank: 1},
	}

	picked, ok := Disambiguator{}.Pick("Acme Plumbing", candidates, "", "")
	require.True(t, ok)
	assert.Equal(t, "https://linkedin.com/company/acme-1", picked.URL)
}

func TestPick_RejectsBelowThreshold(t *testing.T) {
	candidates := []model.SearchCandidate{
		{Name: "Completely Unrelated Consulting", URL: "https://linkedin.com/company/unrelated", Rank: 1},
	}

	_, ok := Disambiguator{}.Pick("Acme Plumbing", candidates, "", "")
	assert.False(t, ok)
}

func TestPick_PartialNameAboveThreshold(t *testing.T) {
	// One of two query tokens present: exactly at the 0.5 default.
	candidates := []model.SearchCandidate{
		{Name: "Acme Heating & Cooling", URL: "https://linkedin.com/company/acme-hvac", Rank: 1},
	}

	_, ok := Disambiguator{}.Pick("Acme Plumbing", candidates, "", "")
	assert.True(t, ok)
}

func TestPick_EmptyCandidates(t *testing.T) {
	_, ok := Disambiguator{}.Pick("Acme Plumbing", nil, "", "")
	assert.False(t, ok)
}

func TestPick_Deterministic(t *testing.T) {
	candidates := []model.SearchCandidate{
		{Name: "Acme Plumbing", URL: "https://linkedin.com/company/a", Rank: 1},
		{Name: "Acme Plumbing", URL: "https://linkedin.com/company/b", Rank: 1},
	}

	for range 10 {
		picked, ok := Disambiguator{}.Pick("Acme Plumbing", candidates, "", "")
		require.True(t, ok)
		assert.Equal(t, "https://linkedin.com/company/a", picked.URL)
	}
}

func TestRelevance_CaseFolded(t *testing.T) {
	assert.Equal(t, 1.0, relevance("ACME plumbing", "Acme Plumbing LLC"))
	assert.Equal(t, 0.0, relevance("Acme Plumbing", ""))
}

func TestLocationMatches_Substrings(t *testing.T) {
	assert.True(t, locationMatches("Serving Austin, Texas and beyond", "Austin, Texas"))
	assert.True(t, locationMatches("Austin", "Austin, Texas")) // hint contains candidate
	assert.False(t, locationMatches("Miami, Florida", "Austin, Texas"))
}
