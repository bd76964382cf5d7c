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

func TestCreateElection(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()

	validRequest := func() models.ElectionCreateRequest {
		return models.ElectionCreateRequest{
			Title:       "Student Council 2026",
			Description: "Annual council election",
			Posts:       []models.PostRequest{{Title: "President"}, {Title: "Secretary"}},
			StartDate:   now.Add(-time.Hour),
			EndDate:     now.Add(time.Hour),
		}
	}

	t.Run("requires a token", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/elections", validRequest(), nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("requires the admin role", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/elections", validRequest(),
			authHeaders(t, "v1", storage.RoleVoter))
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("creates with derived active status", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/elections", validRequest(),
			authHeaders(t, "admin-1", storage.RoleAdmin))
		require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

		created := decodeBody[models.ElectionResponse](t, res.Body.Bytes())
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "active", created.Status)
		assert.Equal(t, "admin-1", created.CreatedBy)
		require.Len(t, created.Posts, 2)
		assert.NotEmpty(t, created.Posts[0].ID)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		req := validRequest()
		req.StartDate = now.Add(time.Hour)
		req.EndDate = now.Add(-time.Hour)
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/elections", req,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("rejects empty posts", func(t *testing.T) {
		req := validRequest()
		req.Posts = nil
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/elections", req,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("rejects duplicate post titles", func(t *testing.T) {
		req := validRequest()
		req.Posts = []models.PostRequest{{Title: "President"}, {Title: "President"}}
		res := testutils.PerformRequest(s.router, http.MethodPost, "/api/elections", req,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestGetElections(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()

	// Pending election: starts in the future
	electionID := s.createElection(t, "admin-1", now.Add(time.Hour), now.Add(2*time.Hour), "President")

	t.Run("get by id", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/elections/"+electionID, nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		election := decodeBody[models.ElectionResponse](t, res.Body.Bytes())
		assert.Equal(t, electionID, election.ID)
		assert.Equal(t, "pending", election.Status)
	})

	t.Run("get missing id", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/elections/missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("list is public", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/elections", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		elections := decodeBody[[]models.ElectionResponse](t, res.Body.Bytes())
		require.Len(t, elections, 1)
		assert.Equal(t, electionID, elections[0].ID)
	})
}

func TestUpdateElection(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()

	electionID := s.createElection(t, "admin-1", now.Add(-time.Hour), now.Add(time.Hour), "President", "Secretary")

	update := models.ElectionUpdateRequest{
		Title:     "Renamed Election",
		Posts:     []models.PostRequest{{Title: "President"}, {Title: "Treasurer"}},
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(2 * time.Hour),
	}

	t.Run("only the creator may update", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodPut, "/api/elections/"+electionID, update,
			authHeaders(t, "admin-2", storage.RoleAdmin))
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("surviving post titles keep their ids", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodGet, "/api/elections/"+electionID, nil, nil)
		require.Equal(t, http.StatusOK, res.Code)
		before := decodeBody[models.ElectionResponse](t, res.Body.Bytes())
		presidentID := before.Posts[0].ID

		res = testutils.PerformRequest(s.router, http.MethodPut, "/api/elections/"+electionID, update,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		after := decodeBody[models.ElectionResponse](t, res.Body.Bytes())
		assert.Equal(t, "Renamed Election", after.Title)
		require.Len(t, after.Posts, 2)
		assert.Equal(t, "President", after.Posts[0].Title)
		assert.Equal(t, presidentID, after.Posts[0].ID)
		assert.Equal(t, "Treasurer", after.Posts[1].Title)
		assert.NotEqual(t, presidentID, after.Posts[1].ID)
	})

	t.Run("missing election", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodPut, "/api/elections/missing", update,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestDeleteElection(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()

	electionID := s.createElection(t, "admin-1", now.Add(-time.Hour), now.Add(time.Hour), "President")

	t.Run("only the creator may delete", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodDelete, "/api/elections/"+electionID, nil,
			authHeaders(t, "admin-2", storage.RoleAdmin))
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("creator deletes", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodDelete, "/api/elections/"+electionID, nil,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(s.router, http.MethodGet, "/api/elections/"+electionID, nil, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("missing election", func(t *testing.T) {
		res := testutils.PerformRequest(s.router, http.MethodDelete, "/api/elections/missing", nil,
			authHeaders(t, "admin-1", storage.RoleAdmin))
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}
