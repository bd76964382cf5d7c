package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	testutils "github.com/gottatouchsomegrass/civic-cast/api/controllers/testing"
	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/api/transport"
	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
	"github.com/gottatouchsomegrass/civic-cast/voting"
)

const (
	testJWTSecret   = "unit-test-jwt-secret"
	testAdminSecret = "unit-test-admin-secret"
)

type testServer struct {
	router    *gin.Engine
	elections *storage.MemoryElectionStorage
	users     *storage.MemoryUserStorage
	votes     *storage.MemoryVoteStorage
}

// newTestServer wires all controllers against in-memory storage, the same
// way Server.Start does against DynamoDB.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logging.Log = logrus.New()

	router := transport.NewRouter(gin.TestMode)

	elections := storage.NewMemoryElectionStorage()
	users := storage.NewMemoryUserStorage()
	votes := storage.NewMemoryVoteStorage()
	engine := voting.NewEngine(elections, users, votes)

	NewAuthController(users, testJWTSecret, time.Hour, testAdminSecret).RegisterRoutes(router)
	NewElectionController(elections, testJWTSecret).RegisterRoutes(router)
	NewUserController(users, elections, votes, testJWTSecret).RegisterRoutes(router)
	NewVotingController(engine, testJWTSecret).RegisterRoutes(router)
	NewDashboardController(users, elections, votes, testJWTSecret).RegisterRoutes(router)

	return &testServer{
		router:    router,
		elections: elections,
		users:     users,
		votes:     votes,
	}
}

func authHeaders(t *testing.T, userID, role string) map[string]string {
	t.Helper()
	token, err := transport.SignToken(testJWTSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// createElection creates an election through the API as the given admin and
// returns its id.
func (s *testServer) createElection(t *testing.T, adminID string, start, end time.Time, postTitles ...string) string {
	t.Helper()
	posts := make([]models.PostRequest, 0, len(postTitles))
	for _, title := range postTitles {
		posts = append(posts, models.PostRequest{Title: title})
	}
	res := testutils.PerformRequest(s.router, http.MethodPost, "/api/elections", models.ElectionCreateRequest{
		Title:     "Test Election",
		Posts:     posts,
		StartDate: start,
		EndDate:   end,
	}, authHeaders(t, adminID, storage.RoleAdmin))
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	return decodeBody[models.ElectionResponse](t, res.Body.Bytes()).ID
}

// registerCandidate registers a candidate through the API and returns its id.
func (s *testServer) registerCandidate(t *testing.T, electionID, post, email string) string {
	t.Helper()
	res := testutils.PerformRequest(s.router, http.MethodPost, "/api/register-candidate", models.RegisterCandidateRequest{
		Name:           "Candidate " + email,
		Email:          email,
		Password:       "secret-pw",
		ElectionID:     electionID,
		ElectionPost:   post,
		ProfilePicture: "https://example.com/p.png",
	}, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	return decodeBody[models.UserResponse](t, res.Body.Bytes()).ID
}

// signupVoter registers a voter through the API and returns its id together
// with ready-to-use auth headers.
func (s *testServer) signupVoter(t *testing.T, email string) (string, map[string]string) {
	t.Helper()
	res := testutils.PerformRequest(s.router, http.MethodPost, "/api/auth/signup", models.SignupRequest{
		Name:     "Voter " + email,
		Email:    email,
		Password: "voter-pw",
	}, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	id := decodeBody[models.UserResponse](t, res.Body.Bytes()).ID
	return id, authHeaders(t, id, storage.RoleVoter)
}
