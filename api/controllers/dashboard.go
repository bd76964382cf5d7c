package controllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/api/transport"
	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
)

const recentUserLimit = 5

type DashboardController struct {
	users     storage.UserStorage
	elections storage.ElectionStorage
	votes     storage.VoteStorage
	jwtSecret string
}

func NewDashboardController(users storage.UserStorage, elections storage.ElectionStorage, votes storage.VoteStorage, jwtSecret string) *DashboardController {
	return &DashboardController{
		users:     users,
		elections: elections,
		votes:     votes,
		jwtSecret: jwtSecret,
	}
}

func (c *DashboardController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api", transport.AuthMiddleware(c.jwtSecret), transport.RequireRole(storage.RoleAdmin))
	group.GET("/dashboard-stats", c.getStats)
}

// getStats godoc
// @Security BearerToken
// @Summary Admin dashboard statistics
// @Description Totals, recent signups and vote activity for the last 7 days
// @Tags admin
// @Produce json
// @Success 200 {object} models.DashboardStatsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/dashboard-stats [get]
func (c *DashboardController) getStats(g *gin.Context) {
	ctx := g.Request.Context()

	users, err := c.users.GetAll(ctx)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list users for stats: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not load dashboard stats"})
		return
	}
	elections, err := c.elections.GetAll(ctx)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list elections for stats: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not load dashboard stats"})
		return
	}
	votes, err := c.votes.GetAll(ctx)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list votes for stats: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not load dashboard stats"})
		return
	}

	stats := models.DashboardStatsResponse{
		TotalElections: len(elections),
		TotalVotes:     len(votes),
		WeeklyActivity: weeklyActivity(votes, time.Now()),
	}

	for _, u := range users {
		switch u.Role {
		case storage.RoleVoter:
			stats.TotalVoters++
		case storage.RoleCandidate:
			stats.TotalCandidates++
		}
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	limit := recentUserLimit
	if len(users) < limit {
		limit = len(users)
	}
	stats.RecentUsers = make([]models.UserResponse, 0, limit)
	for _, u := range users[:limit] {
		stats.RecentUsers = append(stats.RecentUsers, models.TransformUserFromStorage(u))
	}

	g.JSON(http.StatusOK, stats)
}

// weeklyActivity buckets votes per day for the 7 days ending at now.
func weeklyActivity(votes []*storage.Vote, now time.Time) []models.DailyVoteCount {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	counts := make(map[string]int)
	for _, v := range votes {
		counts[v.Timestamp.In(now.Location()).Format("2006-01-02")]++
	}

	activity := make([]models.DailyVoteCount, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		date := day.Format("2006-01-02")
		activity = append(activity, models.DailyVoteCount{
			Date:  date,
			Day:   day.Format("Mon"),
			Count: counts[date],
		})
	}
	return activity
}
