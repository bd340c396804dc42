package domain

import "context"

// LeaderboardRepository reads vote tallies and persists derived photo scores.
type LeaderboardRepository interface {
	ListTallies(ctx context.Context) ([]PhotoTally, error)
	UpdateScore(ctx context.Context, photoID string, voteCount int, score float64) error
	TopPhotos(ctx context.Context, limit int) ([]Photo, error)
}
