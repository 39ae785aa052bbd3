package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/rating"
)

func TestListProblemsQuery(t *testing.T) {
	var gotPath, gotSearch, gotSort, gotOrder string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSearch = r.URL.Query().Get("search")
		gotSort = r.URL.Query().Get("sort")
		gotOrder = r.URL.Query().Get("order")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"problems": [
				{"Problem Number": 10, "Problem Name": "A", "Problem Rating": 1250},
				{"Problem Number": 20, "Problem Name": "B", "Problem Rating": 1300.4}
			],
			"count": 2,
			"rating_range": "1200_to_1399"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	bucket, _ := rating.ParseBucket("1200_to_1399")

	list, err := c.ListProblems(context.Background(), bucket, ListOptions{
		Search: "tree",
		Sort:   models.DefaultSort(),
	})
	if err != nil {
		t.Fatalf("ListProblems: %v", err)
	}

	if gotPath != "/problems/1200_to_1399" {
		t.Errorf("path = %s", gotPath)
	}
	if gotSearch != "tree" || gotSort != "Problem Number" || gotOrder != "desc" {
		t.Errorf("query = search=%q sort=%q order=%q", gotSearch, gotSort, gotOrder)
	}
	if list.Count != 2 || len(list.Problems) != 2 || list.Problems[1].Rating != 1300 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestListProblemsErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"problems": [], "count": 0, "error": "bad csv"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListProblems(context.Background(), rating.Bucket{Lower: 1, Upper: 2}, ListOptions{})
	if !errors.Is(err, ErrPayload) {
		t.Fatalf("err = %v, want ErrPayload", err)
	}
}

func TestListProblemsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"problems": [], "count": 0, "error": "boom"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListProblems(context.Background(), rating.Bucket{Lower: 1, Upper: 2}, ListOptions{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || apiErr.Message != "boom" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestListProblemsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).ListProblems(context.Background(), rating.Bucket{Lower: 1, Upper: 2}, ListOptions{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "two sum" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"problems": [{"Problem Number": 1, "Problem Name": "Two Sum", "Problem Rating": 1100, "Rating Range": "1100_to_1199"}], "message": "Found 1 problems"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).Search(context.Background(), "two sum", models.DefaultSort())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Message != "Found 1 problems" || len(res.Problems) != 1 || res.Problems[0].RatingRange != "1100_to_1199" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestUserProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/leetcode/user/alice" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"matchedUser": {
				"username": "alice",
				"profile": {"userAvatar": ""},
				"submitStats": {"acSubmissionNum": [
					{"difficulty": "All", "count": 999},
					{"difficulty": "Easy", "count": 100},
					{"difficulty": "Medium", "count": 50},
					{"difficulty": "Hard", "count": 5}
				]}
			},
			"userContestRanking": {"rating": 1450.6, "globalRanking": 12345}
		}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL).UserProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UserProfile: %v", err)
	}
	if p.Solved != (models.SolvedCounts{Easy: 100, Medium: 50, Hard: 5, Total: 155}) {
		t.Errorf("solved = %+v", p.Solved)
	}
	if p.ContestRating == nil || *p.ContestRating != 1451 || p.ExactRating != 1450.6 {
		t.Errorf("rating = %v exact=%v", p.ContestRating, p.ExactRating)
	}
	if p.GlobalRank == nil || *p.GlobalRank != 12345 {
		t.Errorf("rank = %v", p.GlobalRank)
	}
	if p.AvatarURL != models.DefaultAvatarURL {
		t.Errorf("avatar = %s", p.AvatarURL)
	}
}

func TestUserProfileWithoutContest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"matchedUser": {"username": "bob", "profile": {}, "submitStats": {"acSubmissionNum": []}}, "userContestRanking": null}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL).UserProfile(context.Background(), "bob")
	if err != nil {
		t.Fatalf("UserProfile: %v", err)
	}
	if p.Rated() {
		t.Error("expected unrated profile")
	}
}

func TestUserProfileErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"null matched user", 200, `{"matchedUser": null}`, ErrUserNotFound},
		{"backend 404", 404, `{"error": "User not found"}`, ErrUserNotFound},
		{"missing stats", 200, `{"matchedUser": {"username": "x"}}`, ErrPayload},
		{"not json", 200, `<html>`, ErrPayload},
		{"backend 502", 502, `{"error": "upstream down"}`, ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).UserProfile(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDistribution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"distribution": {"1200_to_1299": 40, "1300_to_1399": 35}}`))
	}))
	defer srv.Close()

	dist, err := NewClient(srv.URL).Distribution(context.Background())
	if err != nil {
		t.Fatalf("Distribution: %v", err)
	}
	if dist["1200_to_1299"] != 40 || len(dist) != 2 {
		t.Errorf("unexpected distribution %v", dist)
	}
}
