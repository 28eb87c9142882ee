package repository

import (
	"context"
	"database/sql"
	"fmt"
	"pvp-tracker/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Latest returns the most recent snapshot for the character+bracket pair,
// or (nil, nil) when none has been recorded yet. Equal capture timestamps
// are broken by insertion order, newest insert first.
func (r *SnapshotRepository) Latest(ctx context.Context, characterID int64, bracket string) (*domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, character_id, bracket, captured_at, rating,
		        season_played, season_won, season_lost,
		        weekly_played, weekly_won, weekly_lost, created_at
		   FROM snapshots
		  WHERE character_id = ? AND bracket = ?
		  ORDER BY captured_at DESC, rowid DESC
		  LIMIT 1`,
		characterID, bracket,
	)

	var s domain.Snapshot
	err := row.Scan(
		&s.ID, &s.CharacterID, &s.Bracket, &s.CapturedAt, &s.Rating,
		&s.SeasonPlayed, &s.SeasonWon, &s.SeasonLost,
		&s.WeeklyPlayed, &s.WeeklyWon, &s.WeeklyLost, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).
			Int64("character_id", characterID).
			Str("bracket", bracket).
			Msg("failed to load latest snapshot")
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return &s, nil
}

// Append records one fetched sample. Every fetch is stored, unchanged values
// included, so the time series stays complete for later aggregation.
func (r *SnapshotRepository) Append(ctx context.Context, characterID int64, bracket string, data domain.SnapshotData, capturedAt time.Time) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (
		    id, character_id, bracket, captured_at, rating,
		    season_played, season_won, season_lost,
		    weekly_played, weekly_won, weekly_lost, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, characterID, bracket, capturedAt, data.Rating,
		data.SeasonPlayed, data.SeasonWon, data.SeasonLost,
		data.WeeklyPlayed, data.WeeklyWon, data.WeeklyLost, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("character_id", characterID).
			Str("bracket", bracket).
			Msg("failed to append snapshot")
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	r.logger.Debug().
		Int64("character_id", characterID).
		Str("bracket", bracket).
		Int("rating", data.Rating).
		Int("season_played", data.SeasonPlayed).
		Msg("snapshot appended")
	return nil
}
