package quizpilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test 1: Preferred model moves to the front when listed
func TestRankCandidates_PreferredFirst(t *testing.T) {
	ranked := RankCandidates([]string{"gemini-2.0-pro", "gemini-1.5-flash", "gemini-2.0-flash"}, "gemini-1.5-flash")

	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-2.0-pro", "gemini-2.0-flash"}, ranked)
}

// Test 2: A preferred model the source does not list is unusable
func TestRankCandidates_UnlistedPreferredIgnored(t *testing.T) {
	ranked := RankCandidates([]string{"gemini-2.0-flash", "gemini-1.5-pro"}, "gemini-3.0-ultra")

	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, ranked)
}

// Test 3: Version heuristic ranks newer first, pro over flash
func TestRankCandidates_VersionOrdering(t *testing.T) {
	ranked := RankCandidates([]string{
		"gemini-1.5-pro",
		"gemini-2.0-flash",
		"gemini-2.0-pro",
		"gemini-1.0-pro",
	}, "")

	assert.Equal(t, []string{
		"gemini-2.0-pro",
		"gemini-2.0-flash",
		"gemini-1.5-pro",
		"gemini-1.0-pro",
	}, ranked)
}

// Test 4: Unparseable names keep declaration order
func TestRankCandidates_DeclarationOrderTieBreak(t *testing.T) {
	ranked := RankCandidates([]string{"alpha", "beta", "gamma"}, "")

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, ranked)
}

// Test 5: Duplicates and empty identifiers are dropped
func TestRankCandidates_Dedup(t *testing.T) {
	ranked := RankCandidates([]string{"gemini-2.0-flash", "", "gemini-2.0-flash", "gemini-1.5-pro"}, "")

	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, ranked)
}
