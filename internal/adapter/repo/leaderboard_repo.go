package repo

import (
	"context"
	"fmt"

	"niwaki/internal/domain"
	"niwaki/internal/infra"
	"niwaki/internal/sqlinline"
)

// LeaderboardRepositoryPG implements domain.LeaderboardRepository.
type LeaderboardRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewLeaderboardRepository creates a leaderboard repository backed by PostgreSQL.
func NewLeaderboardRepository(sql infra.SQLExecutor) *LeaderboardRepositoryPG {
	return &LeaderboardRepositoryPG{sql: sql}
}

var _ domain.LeaderboardRepository = (*LeaderboardRepositoryPG)(nil)

// ListTallies returns up and down vote counts for every photo.
func (r *LeaderboardRepositoryPG) ListTallies(ctx context.Context) ([]domain.PhotoTally, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPhotoTallies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tallies []domain.PhotoTally
	for rows.Next() {
		var t domain.PhotoTally
		if err := rows.Scan(&t.PhotoID, &t.Up, &t.Down); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// UpdateScore stores the derived score of a photo.
func (r *LeaderboardRepositoryPG) UpdateScore(ctx context.Context, photoID string, voteCount int, score float64) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdatePhotoScore, photoID, voteCount, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TopPhotos returns the best scoring photos from public gardens.
func (r *LeaderboardRepositoryPG) TopPhotos(ctx context.Context, limit int) ([]domain.Photo, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QTopPhotos, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	photos := make([]domain.Photo, 0, limit)
	for rows.Next() {
		var (
			p           domain.Photo
			displayName *string
			avatarURL   *string
		)
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.GardenLocationID,
			&p.StoragePath,
			&p.ThumbnailPath,
			&p.Title,
			&p.VoteCount,
			&p.WilsonScore,
			&p.CreatedAt,
			&displayName,
			&avatarURL,
			&p.GardenName,
		); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		p.User = &domain.UserSummary{ID: p.UserID, DisplayName: displayName, AvatarURL: avatarURL}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
