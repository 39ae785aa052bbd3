package models

// DefaultAvatarURL is shown when a profile has no avatar
const DefaultAvatarURL = "https://assets.leetcode.com/users/default_avatar.jpg"

// SolvedCounts is the accepted-submission breakdown by difficulty
type SolvedCounts struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Total  int `json:"total"`
}

// UserProfile is the summary derived from a third-party profile lookup
type UserProfile struct {
	Username      string       `json:"username"`
	AvatarURL     string       `json:"avatarUrl"`
	Solved        SolvedCounts `json:"solved"`
	ContestRating *int         `json:"contestRating"` // rounded; nil when the user has no contest history
	ExactRating   float64      `json:"-"`             // unrounded rating used for recommendations
	GlobalRank    *int         `json:"globalRank"`
	RatingColor   string       `json:"ratingColor,omitempty"`
	RatingLabel   string       `json:"ratingLabel"`
}

// Rated reports whether the user has a contest rating
func (p *UserProfile) Rated() bool {
	return p != nil && p.ContestRating != nil
}
