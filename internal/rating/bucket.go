package rating

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidBucket is returned when a bucket key cannot be parsed
var ErrInvalidBucket = errors.New("invalid rating bucket")

const bucketSep = "_to_"

// Bucket is an inclusive rating interval, keyed as "<lower>_to_<upper>"
type Bucket struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// ParseBucket parses a key such as "1200_to_1399"
func ParseBucket(key string) (Bucket, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(key), bucketSep)
	if !ok {
		return Bucket{}, fmt.Errorf("%w: %q", ErrInvalidBucket, key)
	}

	lower, err := strconv.Atoi(lo)
	if err != nil {
		return Bucket{}, fmt.Errorf("%w: %q", ErrInvalidBucket, key)
	}
	upper, err := strconv.Atoi(hi)
	if err != nil {
		return Bucket{}, fmt.Errorf("%w: %q", ErrInvalidBucket, key)
	}

	if lower > upper {
		return Bucket{}, fmt.Errorf("%w: lower %d above upper %d", ErrInvalidBucket, lower, upper)
	}

	return Bucket{Lower: lower, Upper: upper}, nil
}

// String returns the bucket key used in URLs and lookups
func (b Bucket) String() string {
	return fmt.Sprintf("%d%s%d", b.Lower, bucketSep, b.Upper)
}

// Display returns the "1200-1399" form shown in headers
func (b Bucket) Display() string {
	return fmt.Sprintf("%d-%d", b.Lower, b.Upper)
}

// IsZero reports whether no bucket is set
func (b Bucket) IsZero() bool {
	return b == Bucket{}
}

// Contains reports whether rating falls inside the bucket
func (b Bucket) Contains(rating int) bool {
	return rating >= b.Lower && rating <= b.Upper
}

// Recommend returns the bucket two hundred points above the hundred
// containing the given contest rating.
func Recommend(contestRating float64) Bucket {
	lower := int(math.Floor(contestRating/100))*100 + 200
	return Bucket{Lower: lower, Upper: lower + 99}
}
