package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, credits, events int) *LeaderboardEntry {
	return &LeaderboardEntry{UserID: id, TotalCredits: credits, TotalEvents: events}
}

func TestRankOrdering(t *testing.T) {
	entries := []*LeaderboardEntry{entry("a", 300, 5), entry("b", 300, 3), entry("c", 500, 1)}
	Rank(entries)

	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].UserID)
	assert.Equal(t, "a", entries[1].UserID)
	assert.Equal(t, "b", entries[2].UserID)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestRankTieBreaksOnUserID(t *testing.T) {
	entries := []*LeaderboardEntry{entry("zed", 100, 2), entry("amy", 100, 2)}
	Rank(entries)
	assert.Equal(t, "amy", entries[0].UserID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestBuildKeepsCallerOutsideCut(t *testing.T) {
	entries := []*LeaderboardEntry{entry("a", 10, 1), entry("b", 30, 1), entry("c", 20, 1)}
	lb := Build(entries, "a", 2)

	assert.Equal(t, 3, lb.TotalUsers)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "b", lb.Entries[0].UserID)
	require.NotNil(t, lb.UserPosition)
	assert.Equal(t, 3, lb.UserPosition.Rank)
}

func TestBuildEmpty(t *testing.T) {
	lb := Build(nil, "a", 0)
	assert.NotNil(t, lb.Entries)
	assert.Nil(t, lb.UserPosition)
	assert.Equal(t, 0, lb.TotalUsers)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxLimit, ClampLimit(MaxLimit+50))
}
