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

type RatingChangeRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRatingChangeRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingChangeRepository {
	return &RatingChangeRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Record appends one detected activity interval. Callers only invoke this
// when the detector reported activity, so change.Played is always positive.
func (r *RatingChangeRepository) Record(ctx context.Context, change *domain.RatingChange) error {
	id := change.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rating_changes (
		    id, character_id, bracket, occurred_at,
		    rating_before, rating_after, rating_delta,
		    played, won, lost, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, change.CharacterID, change.Bracket, change.OccurredAt,
		change.RatingBefore, change.RatingAfter, change.RatingDelta,
		change.Played, change.Won, change.Lost, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("character_id", change.CharacterID).
			Str("bracket", change.Bracket).
			Msg("failed to record rating change")
		return fmt.Errorf("failed to record rating change: %w", err)
	}

	r.logger.Info().
		Int64("character_id", change.CharacterID).
		Str("bracket", change.Bracket).
		Int("rating_delta", change.RatingDelta).
		Int("played", change.Played).
		Int("won", change.Won).
		Int("lost", change.Lost).
		Msg("rating change recorded")
	return nil
}

// History returns all recorded changes for the character in chronological
// order. An empty bracket returns changes across every bracket.
func (r *RatingChangeRepository) History(ctx context.Context, characterID int64, bracket string) ([]domain.RatingChange, error) {
	query := `SELECT id, character_id, bracket, occurred_at,
	                 rating_before, rating_after, rating_delta,
	                 played, won, lost, created_at
	            FROM rating_changes
	           WHERE character_id = ?`
	args := []any{characterID}
	if bracket != "" {
		query += ` AND bracket = ?`
		args = append(args, bracket)
	}
	query += ` ORDER BY occurred_at ASC, rowid ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("character_id", characterID).
			Str("bracket", bracket).
			Msg("failed to query rating change history")
		return nil, fmt.Errorf("failed to query rating change history: %w", err)
	}
	defer rows.Close()

	var changes []domain.RatingChange
	for rows.Next() {
		var c domain.RatingChange
		if err := rows.Scan(
			&c.ID, &c.CharacterID, &c.Bracket, &c.OccurredAt,
			&c.RatingBefore, &c.RatingAfter, &c.RatingDelta,
			&c.Played, &c.Won, &c.Lost, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating changes: %w", err)
	}
	return changes, nil
}
