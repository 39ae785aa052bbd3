package models

import "time"

// BucketCount is one bar of the rating distribution
type BucketCount struct {
	Bucket  string `json:"bucket"`  // "1200_to_1399"
	Display string `json:"display"` // "1200-1399"
	Count   int    `json:"count"`
	Color   string `json:"color"`
	Label   string `json:"label"`
}

// Distribution is the problem count per rating bucket, ascending by bucket
type Distribution struct {
	Buckets   []BucketCount `json:"buckets"`
	Total     int           `json:"total"`
	FetchedAt time.Time     `json:"fetchedAt"`
}
