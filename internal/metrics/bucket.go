// Package metrics buckets, aggregates, summarizes and filters canonical
// orders. Every function is pure; views are recomputed from scratch.
package metrics

import "strings"

type Bucket string

const (
	BucketFast   Bucket = "0-15 mins"
	BucketMedium Bucket = "15-25 mins"
	BucketSlow   Bucket = "25+ mins"
)

// Buckets is the fixed tier order used by every metric.
var Buckets = [3]Bucket{BucketFast, BucketMedium, BucketSlow}

const (
	fastLimit   = 15
	mediumLimit = 25
)

func Classify(minutes int) Bucket {
	switch {
	case minutes <= fastLimit:
		return BucketFast
	case minutes <= mediumLimit:
		return BucketMedium
	}
	return BucketSlow
}

// Index is the position of b in Buckets, or -1.
func (b Bucket) Index() int {
	for i, candidate := range Buckets {
		if candidate == b {
			return i
		}
	}
	return -1
}

var bucketAliases = map[string]Bucket{
	"fast":   BucketFast,
	"medium": BucketMedium,
	"slow":   BucketSlow,
}

// ParseBucket accepts a range label ("0-15 mins"), its underscored form
// ("0-15_mins") or a tier name ("fast").
func ParseBucket(s string) (Bucket, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
	if b, ok := bucketAliases[s]; ok {
		return b, true
	}
	b := Bucket(s)
	return b, b.Index() >= 0
}
