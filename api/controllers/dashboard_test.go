package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutils "github.com/gottatouchsomegrass/civic-cast/api/controllers/testing"
	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/storage"
)

func TestDashboardStats(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()
	adminHeaders := authHeaders(t, "admin-1", storage.RoleAdmin)

	electionID := s.createElection(t, "admin-1", now.Add(-time.Hour), now.Add(time.Hour), "President")
	candidateID := s.registerCandidate(t, electionID, "President", "c@example.com")
	_, voterHeaders := s.signupVoter(t, "v@example.com")

	res := testutils.PerformRequest(s.router, http.MethodPost, "/api/vote", models.CastVoteRequest{
		CandidateID: candidateID, ElectionID: electionID, Post: "President",
	}, voterHeaders)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	t.Run("requires the admin role", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/dashboard-stats", nil, voterHeaders)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("reports totals and activity", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/dashboard-stats", nil, adminHeaders)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		stats := decodeBody[models.DashboardStatsResponse](t, res.Body.Bytes())
		assert.Equal(t, 1, stats.TotalElections)
		assert.Equal(t, 1, stats.TotalCandidates)
		assert.Equal(t, 1, stats.TotalVoters)
		assert.Equal(t, 1, stats.TotalVotes)
		assert.Len(t, stats.RecentUsers, 2)

		require.Len(t, stats.WeeklyActivity, 7)
		// Today's bucket holds the single vote
		today := stats.WeeklyActivity[6]
		assert.Equal(t, now.Format("2006-01-02"), today.Date)
		assert.Equal(t, 1, today.Count)
	})
}

func TestWeeklyActivityBuckets(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	votes := []*storage.Vote{
		{Timestamp: now},
		{Timestamp: now.AddDate(0, 0, -1)},
		{Timestamp: now.AddDate(0, 0, -1)},
		{Timestamp: now.AddDate(0, 0, -6)},
		// Outside the window, must not be counted
		{Timestamp: now.AddDate(0, 0, -8)},
	}

	activity := weeklyActivity(votes, now)
	require.Len(t, activity, 7)

	assert.Equal(t, "2026-03-04", activity[0].Date)
	assert.Equal(t, 1, activity[0].Count)

	assert.Equal(t, "2026-03-09", activity[5].Date)
	assert.Equal(t, 2, activity[5].Count)

	assert.Equal(t, "2026-03-10", activity[6].Date)
	assert.Equal(t, "Tue", activity[6].Day)
	assert.Equal(t, 1, activity[6].Count)
}
