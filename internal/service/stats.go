package service

import (
	"context"
	"pvp-tracker/internal/config"
	"pvp-tracker/internal/constants"
	"pvp-tracker/internal/domain"
	"pvp-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type StatsService struct {
	cfg        *config.Config
	characters *repository.CharacterRepository
	changes    *repository.RatingChangeRepository
	logger     zerolog.Logger
}

func NewStatsService(
	cfg *config.Config,
	characters *repository.CharacterRepository,
	changes *repository.RatingChangeRepository,
	logger zerolog.Logger,
) *StatsService {
	return &StatsService{
		cfg:        cfg,
		characters: characters,
		changes:    changes,
		logger:     logger,
	}
}

// HourOfDay aggregates the recorded rating changes into 24 hour-of-day
// buckets, returned in hour order. An empty bracket aggregates across all
// brackets.
func (s *StatsService) HourOfDay(ctx context.Context, bracket string) ([]domain.HourStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	buckets := make([]domain.HourStats, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}

	// Reporting is read-only: an unknown character means nothing has been
	// polled yet, so every bucket stays empty.
	characterID, found, err := s.characters.Lookup(ctx, s.cfg.CharacterName, s.cfg.Realm, s.cfg.Region)
	if err != nil {
		return nil, err
	}
	if !found {
		return buckets, nil
	}

	changes, err := s.changes.History(ctx, characterID, bracket)
	if err != nil {
		return nil, err
	}
	for _, c := range changes {
		h := c.OccurredAt.Hour()
		buckets[h].Played += c.Played
		buckets[h].Won += c.Won
		buckets[h].Lost += c.Lost
		buckets[h].RatingDelta += c.RatingDelta
	}

	s.logger.Debug().
		Int64("character_id", characterID).
		Str("bracket", bracket).
		Int("changes", len(changes)).
		Msg("hour-of-day aggregation computed")
	return buckets, nil
}
