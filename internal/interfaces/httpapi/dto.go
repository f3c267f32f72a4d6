package httpapi

import (
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/leaderboard"
	"github.com/riskibarqy/score-predictor/internal/domain/league"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/usecase"
)

type submitPredictionRequest struct {
	FixtureID string `json:"fixture_id" validate:"required,max=64"`
	LeagueID  string `json:"league_id" validate:"omitempty,max=64"`
	HomeScore *int   `json:"home_score" validate:"required,min=0,max=99"`
	AwayScore *int   `json:"away_score" validate:"required,min=0,max=99"`
}

type submitResultRequest struct {
	FixtureID string `json:"fixture_id" validate:"required,max=64"`
	HomeScore *int   `json:"home_score" validate:"required,min=0,max=99"`
	AwayScore *int   `json:"away_score" validate:"required,min=0,max=99"`
	Overwrite bool   `json:"overwrite"`
}

type createFixtureRequest struct {
	ID         string    `json:"id" validate:"omitempty,max=64"`
	LeagueType string    `json:"league_type" validate:"required,max=32"`
	Gameweek   int       `json:"gameweek" validate:"min=0,max=99"`
	HomeTeam   string    `json:"home_team" validate:"required,max=100"`
	AwayTeam   string    `json:"away_team" validate:"required,max=100,nefield=HomeTeam"`
	KickoffAt  time.Time `json:"kickoff_at" validate:"required"`
}

type createLeagueRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	IsPublic bool   `json:"is_public"`
}

type joinLeagueRequest struct {
	InviteCode string `json:"invite_code" validate:"required,alphanum,len=8"`
}

type propagateJobRequest struct {
	FixtureID string `json:"fixture_id" validate:"required"`
}

type fixtureDTO struct {
	ID         string `json:"id"`
	LeagueType string `json:"league_type"`
	Gameweek   int    `json:"gameweek"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	KickoffAt  string `json:"kickoff_at"`
	Status     string `json:"status"`
	HomeScore  *int   `json:"home_score,omitempty"`
	AwayScore  *int   `json:"away_score,omitempty"`
}

type predictionDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	FixtureID   string `json:"fixture_id"`
	LeagueID    string `json:"league_id"`
	HomeScore   int    `json:"home_score"`
	AwayScore   int    `json:"away_score"`
	Points      *int   `json:"points"`
	SubmittedAt string `json:"submitted_at"`
	UpdatedAt   string `json:"updated_at"`
}

type resultDTO struct {
	FixtureID string `json:"fixture_id"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Finished  bool   `json:"finished"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type leaderboardEntryDTO struct {
	Rank            int    `json:"rank"`
	UserID          string `json:"user_id"`
	DisplayName     string `json:"display_name"`
	TotalPoints     int    `json:"total_points"`
	PredictionCount int    `json:"prediction_count"`
}

type leagueDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsPublic    bool   `json:"is_public"`
	MemberCount int    `json:"member_count"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// leagueDetailDTO is only returned to members, since it carries the invite code.
type leagueDetailDTO struct {
	leagueDTO
	InviteCode string   `json:"invite_code,omitempty"`
	AdminID    string   `json:"admin_id,omitempty"`
	Members    []string `json:"members"`
}

type profileDTO struct {
	UserID          string `json:"user_id"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	JoinedAt        string `json:"joined_at,omitempty"`
	TotalPoints     int    `json:"total_points"`
	PredictionCount int    `json:"prediction_count"`
	Rank            int    `json:"rank"`
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func fixtureToDTO(v fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		ID:         v.ID,
		LeagueType: v.LeagueID,
		Gameweek:   v.Gameweek,
		HomeTeam:   v.HomeTeam,
		AwayTeam:   v.AwayTeam,
		KickoffAt:  formatTime(v.KickoffAt),
		Status:     string(v.Status),
		HomeScore:  v.HomeScore,
		AwayScore:  v.AwayScore,
	}
}

func fixturesToDTO(items []fixture.Fixture) []fixtureDTO {
	out := make([]fixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fixtureToDTO(item))
	}
	return out
}

func predictionToDTO(v prediction.Prediction) predictionDTO {
	return predictionDTO{
		ID:          v.ID,
		UserID:      v.UserID,
		FixtureID:   v.FixtureID,
		LeagueID:    prediction.NormalizeLeagueID(v.LeagueID),
		HomeScore:   v.HomeScore,
		AwayScore:   v.AwayScore,
		Points:      v.Points,
		SubmittedAt: formatTime(v.SubmittedAt),
		UpdatedAt:   formatTime(v.UpdatedAt),
	}
}

func predictionsToDTO(items []prediction.Prediction) []predictionDTO {
	out := make([]predictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, predictionToDTO(item))
	}
	return out
}

func resultToDTO(v result.MatchResult) resultDTO {
	return resultDTO{
		FixtureID: v.FixtureID,
		HomeScore: v.HomeScore,
		AwayScore: v.AwayScore,
		Finished:  v.Finished,
		UpdatedAt: formatTime(v.UpdatedAt),
	}
}

func leaderboardToDTO(entries []leaderboard.Entry) []leaderboardEntryDTO {
	out := make([]leaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntryDTO{
			Rank:            e.Rank,
			UserID:          e.UserID,
			DisplayName:     e.DisplayName,
			TotalPoints:     e.TotalPoints,
			PredictionCount: e.PredictionCount,
		})
	}
	return out
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:          v.ID,
		Name:        v.Name,
		IsPublic:    v.IsPublic,
		MemberCount: len(v.Members),
		CreatedAt:   formatTime(v.CreatedAt),
	}
}

func leaguesToDTO(items []league.League) []leagueDTO {
	out := make([]leagueDTO, 0, len(items))
	for _, item := range items {
		out = append(out, leagueToDTO(item))
	}
	return out
}

func leagueToDetailDTO(v league.League) leagueDetailDTO {
	members := append([]string{}, v.Members...)
	return leagueDetailDTO{
		leagueDTO:  leagueToDTO(v),
		InviteCode: v.InviteCode,
		AdminID:    v.AdminID,
		Members:    members,
	}
}

func profileToDTO(v usecase.Profile) profileDTO {
	return profileDTO{
		UserID:          v.User.ID,
		DisplayName:     v.DisplayName,
		Email:           v.User.Email,
		AvatarURL:       v.User.Avatar,
		JoinedAt:        formatTime(v.User.JoinedAt),
		TotalPoints:     v.TotalPoints,
		PredictionCount: v.PredictionCount,
		Rank:            v.Rank,
	}
}
