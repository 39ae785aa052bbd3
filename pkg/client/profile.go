package client

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/terra-clan/rating-ladder/internal/models"
)

// profileResponse mirrors the third-party GraphQL answer relayed by the backend
type profileResponse struct {
	MatchedUser *struct {
		Username string `json:"username"`
		Profile  struct {
			UserAvatar string `json:"userAvatar"`
		} `json:"profile"`
		SubmitStats *struct {
			AcSubmissionNum []struct {
				Difficulty string `json:"difficulty"`
				Count      int    `json:"count"`
			} `json:"acSubmissionNum"`
		} `json:"submitStats"`
	} `json:"matchedUser"`
	UserContestRanking *struct {
		Rating        *float64 `json:"rating"`
		GlobalRanking *int     `json:"globalRanking"`
	} `json:"userContestRanking"`
}

// UserProfile fetches and parses a user's public profile
func (c *Client) UserProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &APIError{Message: "username is required", kind: ErrUserNotFound}
	}

	body, _, err := c.doRequest(ctx, "/api/leetcode/user/"+url.PathEscape(username), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			apiErr.kind = ErrUserNotFound
		}
		return nil, err
	}

	var payload profileResponse
	if err := decode(body, &payload); err != nil {
		return nil, err
	}

	return parseProfile(username, &payload)
}

func parseProfile(username string, payload *profileResponse) (*models.UserProfile, error) {
	user := payload.MatchedUser
	if user == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "User not found", kind: ErrUserNotFound}
	}
	if user.SubmitStats == nil {
		return nil, &APIError{Message: "missing submitStats", kind: ErrPayload}
	}

	p := &models.UserProfile{
		Username:  user.Username,
		AvatarURL: user.Profile.UserAvatar,
	}
	if p.Username == "" {
		p.Username = username
	}
	if p.AvatarURL == "" {
		p.AvatarURL = models.DefaultAvatarURL
	}

	// the "All" row is ignored; the total is recomputed from the three difficulties
	for _, stat := range user.SubmitStats.AcSubmissionNum {
		switch stat.Difficulty {
		case "Easy":
			p.Solved.Easy = stat.Count
		case "Medium":
			p.Solved.Medium = stat.Count
		case "Hard":
			p.Solved.Hard = stat.Count
		}
	}
	p.Solved.Total = p.Solved.Easy + p.Solved.Medium + p.Solved.Hard

	if ranking := payload.UserContestRanking; ranking != nil {
		if ranking.Rating != nil && *ranking.Rating > 0 {
			r := int(math.Round(*ranking.Rating))
			p.ContestRating = &r
			p.ExactRating = *ranking.Rating
		}
		p.GlobalRank = ranking.GlobalRanking
	}

	return p, nil
}
