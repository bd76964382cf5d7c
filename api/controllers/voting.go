package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/api/transport"
	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
	"github.com/gottatouchsomegrass/civic-cast/voting"
)

type VotingController struct {
	engine    *voting.Engine
	jwtSecret string
}

func NewVotingController(engine *voting.Engine, jwtSecret string) *VotingController {
	return &VotingController{
		engine:    engine,
		jwtSecret: jwtSecret,
	}
}

func (c *VotingController) RegisterRoutes(engine *gin.Engine) {
	voter := engine.Group("/api", transport.AuthMiddleware(c.jwtSecret), transport.RequireRole(storage.RoleVoter))
	voter.POST("/vote", c.castVote)
	voter.POST("/vote/check", c.checkVotes)

	engine.GET("/api/elections/:id/results", c.getResults)

	admin := engine.Group("/api", transport.AuthMiddleware(c.jwtSecret), transport.RequireRole(storage.RoleAdmin))
	admin.POST("/elections/:id/recount", c.recountTallies)
}

// castVote godoc
// @Security BearerToken
// @Summary Cast a vote
// @Description Records one vote for a candidate on a post of an election. A voter can vote at most once per post per election.
// @Tags voting
// @Accept json
// @Produce json
// @Param vote body models.CastVoteRequest true "Vote submission"
// @Success 201 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Missing fields or unknown post/candidate pairing"
// @Failure 403 {object} models.ErrorResponse "Election not started or already ended"
// @Failure 404 {object} models.ErrorResponse "Election or candidate not found"
// @Failure 409 {object} models.ErrorResponse "Already voted for this post"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/vote [post]
func (c *VotingController) castVote(g *gin.Context) {
	var req models.CastVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	// The voter identity always comes from the verified token, never the body.
	voteReq := voting.VoteRequest{
		VoterID:     g.GetString(transport.ContextUserID),
		CandidateID: req.CandidateID,
		ElectionID:  req.ElectionID,
		Post:        req.Post,
	}

	if err := c.engine.Cast(g.Request.Context(), voteReq); err != nil {
		status, message := voteErrorStatus(err)
		if status == http.StatusInternalServerError {
			logging.Log.Errorf("VOTE: failed to cast vote: %v", err)
		}
		g.JSON(status, &models.ErrorResponse{Error: message})
		return
	}

	g.JSON(http.StatusCreated, &models.MessageResponse{Message: "vote cast successfully"})
}

func voteErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, voting.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, voting.ErrElectionNotFound), errors.Is(err, voting.ErrCandidateNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, voting.ErrNotStarted):
		return http.StatusForbidden, "voting has not started for this election"
	case errors.Is(err, voting.ErrEnded):
		return http.StatusForbidden, "voting has ended for this election"
	case errors.Is(err, voting.ErrDuplicateVote):
		return http.StatusConflict, "you have already voted for this post"
	case errors.Is(err, voting.ErrTallyInconsistent):
		// The vote itself is persisted at this point, only the cached
		// tally is behind.
		return http.StatusInternalServerError, "vote recorded, but the tally update failed and awaits a recount"
	default:
		return http.StatusInternalServerError, "could not save vote"
	}
}

// checkVotes godoc
// @Security BearerToken
// @Summary Check voted posts
// @Description Returns which posts of an election the caller has already voted on
// @Tags voting
// @Accept json
// @Produce json
// @Param check body models.VoteCheckRequest true "Election to check"
// @Success 200 {object} models.VoteCheckResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/vote/check [post]
func (c *VotingController) checkVotes(g *gin.Context) {
	var req models.VoteCheckRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	voted, err := c.engine.VotedPosts(g.Request.Context(), g.GetString(transport.ContextUserID), req.ElectionID)
	if err != nil {
		if errors.Is(err, voting.ErrValidation) {
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
			return
		}
		logging.Log.Errorf("VOTE: failed to check votes: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not check votes"})
		return
	}

	g.JSON(http.StatusOK, models.VoteCheckResponse(voted))
}

// getResults godoc
// @Summary Get election results
// @Description Per-post leaderboards with vote counts and percentage shares
// @Tags voting
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.ElectionResultsResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/elections/{id}/results [get]
func (c *VotingController) getResults(g *gin.Context) {
	electionID := g.Param("id")

	results, err := c.engine.Results(g.Request.Context(), electionID)
	if err != nil {
		if errors.Is(err, voting.ErrElectionNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "election not found"})
			return
		}
		logging.Log.Errorf("VOTE: failed to compute results for election %s: %v", electionID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not compute results"})
		return
	}

	g.JSON(http.StatusOK, models.TransformResultsFromEngine(electionID, results))
}

// recountTallies godoc
// @Security BearerToken
// @Summary Recount candidate tallies
// @Description Rebuilds the cached vote counters of an election from the vote records
// @Tags voting
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.RecountResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/elections/{id}/recount [post]
func (c *VotingController) recountTallies(g *gin.Context) {
	electionID := g.Param("id")

	tallies, err := c.engine.RecountTallies(g.Request.Context(), electionID)
	if err != nil {
		if errors.Is(err, voting.ErrElectionNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "election not found"})
			return
		}
		logging.Log.Errorf("VOTE: recount failed for election %s: %v", electionID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not recount tallies"})
		return
	}

	logging.Log.Infof("VOTE: recounted tallies for election %s (%d candidates)", electionID, len(tallies))
	g.JSON(http.StatusOK, &models.RecountResponse{Message: "tallies recounted", Tallies: tallies})
}
