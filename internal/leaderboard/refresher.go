package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"niwaki/internal/domain"
)

// Refresher recomputes derived photo scores from raw vote tallies.
type Refresher struct {
	repo   domain.LeaderboardRepository
	logger zerolog.Logger
}

func NewRefresher(repo domain.LeaderboardRepository, logger zerolog.Logger) *Refresher {
	return &Refresher{repo: repo, logger: logger}
}

// Stats summarises a refresh pass.
type Stats struct {
	Photos   int
	Updated  int
	Failed   int
	Duration time.Duration
}

// Refresh walks every photo tally and stores its net vote count and Wilson
// score. A failing photo is logged and skipped so one bad row does not stall
// the board.
func (r *Refresher) Refresh(ctx context.Context) (Stats, error) {
	started := time.Now()
	tallies, err := r.repo.ListTallies(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list tallies: %w", err)
	}
	stats := Stats{Photos: len(tallies)}
	for _, t := range tallies {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		score := WilsonScore(t.Up, t.Down)
		if err := r.repo.UpdateScore(ctx, t.PhotoID, t.Up-t.Down, score); err != nil {
			stats.Failed++
			r.logger.Warn().Err(err).Str("photo_id", t.PhotoID).Msg("leaderboard: update score failed")
			continue
		}
		stats.Updated++
	}
	stats.Duration = time.Since(started)
	r.logger.Info().
		Int("photos", stats.Photos).
		Int("updated", stats.Updated).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("leaderboard refreshed")
	return stats, nil
}
