package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutils "github.com/gottatouchsomegrass/civic-cast/api/controllers/testing"
	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/storage"
)

func TestRegisterCandidate(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()

	electionID := s.createElection(t, "admin-1", now.Add(-time.Hour), now.Add(time.Hour), "President")

	validRequest := func() models.RegisterCandidateRequest {
		return models.RegisterCandidateRequest{
			Name:           "Bob",
			Email:          "bob@example.com",
			Password:       "candidate-pw",
			ElectionID:     electionID,
			ElectionPost:   "President",
			ProfilePicture: "https://example.com/bob.png",
		}
	}

	t.Run("registers against an existing post", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/register-candidate", validRequest(), nil)
		require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

		candidate := decodeBody[models.UserResponse](t, res.Body.Bytes())
		assert.Equal(t, storage.RoleCandidate, candidate.Role)
		assert.Equal(t, electionID, candidate.ElectionID)
		assert.Equal(t, "President", candidate.ElectionPost)
		assert.Zero(t, candidate.VoteCount)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/register-candidate", validRequest(), nil)
		assert.Equal(t, http.StatusConflict, res.Code)
	})

	t.Run("unknown election", func(t *testing.T) {
		req := validRequest()
		req.Email = "other@example.com"
		req.ElectionID = "missing"
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/register-candidate", req, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("unknown post", func(t *testing.T) {
		req := validRequest()
		req.Email = "other@example.com"
		req.ElectionPost = "Treasurer"
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/register-candidate", req, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("profile picture is required", func(t *testing.T) {
		req := validRequest()
		req.Email = "other@example.com"
		req.ProfilePicture = ""
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/register-candidate", req, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()

	electionID := s.createElection(t, "admin-1", now.Add(-time.Hour), now.Add(time.Hour), "President")
	candidateID := s.registerCandidate(t, electionID, "President", "c@example.com")
	voterID, voterHeaders := s.signupVoter(t, "v@example.com")

	t.Run("requires the admin role", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/users", nil, voterHeaders)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("returns voters and candidates", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/users", nil,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		require.Equal(t, http.StatusOK, res.Code)

		users := decodeBody[models.UsersResponse](t, res.Body.Bytes())
		require.Len(t, users.Voters, 1)
		assert.Equal(t, voterID, users.Voters[0].ID)
		require.Len(t, users.Candidates, 1)
		assert.Equal(t, candidateID, users.Candidates[0].ID)
	})
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()
	adminHeaders := authHeaders(t, "admin-1", storage.RoleAdmin)

	electionID := s.createElection(t, "admin-1", now.Add(-time.Hour), now.Add(time.Hour), "President")
	candidateID := s.registerCandidate(t, electionID, "President", "c@example.com")
	voterID, voterHeaders := s.signupVoter(t, "v@example.com")

	res := testutils.PerformRequest(s.router, http.MethodPost, "/api/vote", models.CastVoteRequest{
		CandidateID: candidateID, ElectionID: electionID, Post: "President",
	}, voterHeaders)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	t.Run("missing user", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodDelete, "/api/users/missing", nil, adminHeaders)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("deleting a voter cascades their votes", func(t *testing.T) {
		candidate, err := s.users.Get(context.Background(), candidateID)
		require.NoError(t, err)
		require.Equal(t, 1, candidate.VoteCount)

		res := testutils.PerformRequest(s.router, http.MethodDelete, "/api/users/"+voterID, nil, adminHeaders)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		_, err = s.users.Get(context.Background(), voterID)
		assert.ErrorIs(t, err, storage.ErrItemNotFound)

		votes, err := s.votes.GetByVoter(context.Background(), voterID)
		require.NoError(t, err)
		assert.Empty(t, votes)

		candidate, err = s.users.Get(context.Background(), candidateID)
		require.NoError(t, err)
		assert.Equal(t, 0, candidate.VoteCount)
	})

	t.Run("deleting a candidate leaves votes untouched", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodDelete, "/api/users/"+candidateID, nil, adminHeaders)
		require.Equal(t, http.StatusOK, res.Code)

		_, err := s.users.Get(context.Background(), candidateID)
		assert.ErrorIs(t, err, storage.ErrItemNotFound)
	})
}
