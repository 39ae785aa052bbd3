package client

import (
	"context"
	"net/url"

	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/rating"
)

// ListOptions contains the query of a bucket listing
type ListOptions struct {
	Search string
	Sort   models.SortSpec
}

// ProblemList is the answer of a bucket listing
type ProblemList struct {
	Problems []models.Problem `json:"problems"`
	Count    int              `json:"count"`
	Bucket   string           `json:"rating_range"`
	Error    string           `json:"error,omitempty"`
}

// SearchResult is the answer of a catalog-wide search
type SearchResult struct {
	Problems []models.Problem `json:"problems"`
	Message  string           `json:"message"`
}

// ListProblems fetches the problems of one rating bucket
func (c *Client) ListProblems(ctx context.Context, bucket rating.Bucket, opts ListOptions) (*ProblemList, error) {
	query := url.Values{}
	query.Set("search", opts.Search)
	if opts.Sort.Field != "" {
		query.Set("sort", opts.Sort.Field.Column())
		query.Set("order", string(opts.Sort.Order))
	}

	body, _, err := c.doRequest(ctx, "/problems/"+url.PathEscape(bucket.String()), query)
	if err != nil {
		return nil, err
	}

	var result ProblemList
	if err := decode(body, &result); err != nil {
		return nil, err
	}

	if result.Error != "" {
		return nil, &APIError{Message: result.Error, kind: ErrPayload}
	}

	return &result, nil
}

// Search runs a catalog-wide search. Results carry their rating range.
func (c *Client) Search(ctx context.Context, q string, sort models.SortSpec) (*SearchResult, error) {
	query := url.Values{}
	query.Set("q", q)
	if sort.Field != "" {
		query.Set("sort", sort.Field.Column())
		query.Set("order", string(sort.Order))
	}

	body, _, err := c.doRequest(ctx, "/search", query)
	if err != nil {
		return nil, err
	}

	var result SearchResult
	if err := decode(body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Distribution returns the number of problems per bucket key
func (c *Client) Distribution(ctx context.Context) (map[string]int, error) {
	body, _, err := c.doRequest(ctx, "/api/problem-distribution", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Distribution map[string]int `json:"distribution"`
	}
	if err := decode(body, &result); err != nil {
		return nil, err
	}
	if result.Distribution == nil {
		return nil, &APIError{Message: "missing distribution", kind: ErrPayload}
	}

	return result.Distribution, nil
}
