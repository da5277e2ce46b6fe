package domain

import "time"

type (
	Review struct {
		ID         string
		UserName   string
		UserAvatar string
		Rating     int
		Date       time.Time
		Title      string
		Comment    string
		Helpful    int
		Images     []string
		Verified   bool
	}

	// A ReviewSummary holds the rating distribution
	// where index i counts the reviews with i+1 stars.
	ReviewSummary struct {
		AverageRating      float64
		TotalReviews       int
		RatingDistribution [5]int
	}
)

// Count returns the number of reviews with the given stars.
func (s ReviewSummary) Count(stars int) int {
	if stars < 1 || stars > 5 {
		return 0
	}
	return s.RatingDistribution[stars-1]
}
