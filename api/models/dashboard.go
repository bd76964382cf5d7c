package models

type DailyVoteCount struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type DashboardStatsResponse struct {
	TotalCandidates int              `json:"totalCandidates"`
	TotalVoters     int              `json:"totalVoters"`
	TotalElections  int              `json:"totalElections"`
	TotalVotes      int              `json:"totalVotes"`
	RecentUsers     []UserResponse   `json:"recentUsers"`
	WeeklyActivity  []DailyVoteCount `json:"weeklyActivity"`
}
