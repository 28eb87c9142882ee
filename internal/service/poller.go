package service

import (
	"context"
	"errors"
	"pvp-tracker/internal/api"
	"pvp-tracker/internal/config"
	"pvp-tracker/internal/constants"
	"pvp-tracker/internal/detector"
	"pvp-tracker/internal/domain"
	"pvp-tracker/internal/repository"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BracketFetcher is the remote side of a polling cycle: token acquisition
// and per-bracket statistics fetch.
type BracketFetcher interface {
	Token(ctx context.Context) (string, error)
	FetchBracket(ctx context.Context, token, bracket string) (*domain.SnapshotData, error)
}

type Poller struct {
	cfg        *config.Config
	fetcher    BracketFetcher
	characters *repository.CharacterRepository
	snapshots  *repository.SnapshotRepository
	changes    *repository.RatingChangeRepository
	logger     zerolog.Logger
}

func NewPoller(
	cfg *config.Config,
	fetcher BracketFetcher,
	characters *repository.CharacterRepository,
	snapshots *repository.SnapshotRepository,
	changes *repository.RatingChangeRepository,
	logger zerolog.Logger,
) *Poller {
	return &Poller{
		cfg:        cfg,
		fetcher:    fetcher,
		characters: characters,
		snapshots:  snapshots,
		changes:    changes,
		logger:     logger,
	}
}

type fetchResult struct {
	bracket string
	data    *domain.SnapshotData
	err     error
}

// RunCycle polls every configured bracket once. Fetch failures are contained
// per bracket; only storage failures are returned, since a store that cannot
// be trusted makes every later detection wrong.
func (p *Poller) RunCycle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CycleTimeout)
	defer cancel()

	characterID, err := p.characters.Resolve(ctx, p.cfg.CharacterName, p.cfg.Realm, p.cfg.Region)
	if err != nil {
		return err
	}

	token, err := p.fetcher.Token(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("token acquisition failed, skipping cycle")
		return nil
	}

	// Brackets are independent remote calls, so fetch them concurrently and
	// persist the results one at a time afterwards.
	results := make([]fetchResult, len(p.cfg.Brackets))
	g, fetchCtx := errgroup.WithContext(ctx)
	for i, bracket := range p.cfg.Brackets {
		i, bracket := i, bracket
		g.Go(func() error {
			apiCtx, apiCancel := context.WithTimeout(fetchCtx, constants.ExternalAPITimeout)
			defer apiCancel()

			data, err := p.fetcher.FetchBracket(apiCtx, token, bracket)
			results[i] = fetchResult{bracket: bracket, data: data, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	capturedAt := time.Now()
	for _, res := range results {
		if err := p.processBracket(ctx, characterID, res, capturedAt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) processBracket(ctx context.Context, characterID int64, res fetchResult, capturedAt time.Time) error {
	log := p.logger.With().Int64("character_id", characterID).Str("bracket", res.bracket).Logger()

	if res.err != nil {
		if errors.Is(res.err, api.ErrNotFound) {
			log.Info().Msg("no bracket data this cycle")
			return nil
		}
		log.Error().Err(res.err).Msg("bracket fetch failed, skipping")
		return nil
	}

	previous, err := p.snapshots.Latest(ctx, characterID, res.bracket)
	if err != nil {
		return err
	}

	result := detector.Detect(previous, *res.data)

	if err := p.snapshots.Append(ctx, characterID, res.bracket, *res.data, capturedAt); err != nil {
		return err
	}

	if !result.Activity {
		log.Debug().Int("rating", res.data.Rating).Msg("no activity detected")
		return nil
	}

	return p.changes.Record(ctx, &domain.RatingChange{
		CharacterID:  characterID,
		Bracket:      res.bracket,
		OccurredAt:   capturedAt,
		RatingBefore: result.Delta.RatingBefore,
		RatingAfter:  result.Delta.RatingAfter,
		RatingDelta:  result.Delta.RatingDelta,
		Played:       result.Delta.Played,
		Won:          result.Delta.Won,
		Lost:         result.Delta.Lost,
	})
}

// Run polls on the configured interval until the context is cancelled.
// An immediate first cycle runs before the ticker starts. Cancellation that
// lands mid-cycle is a normal stop, not a failure: the next run's detector
// recomputes any delta against whatever was last durably stored.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.RunCycle(ctx); err != nil {
		if cancelled(ctx, err) {
			p.logger.Info().Msg("poll loop stopped")
			return nil
		}
		return err
	}

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("poll loop stopped")
			return nil
		case <-ticker.C:
			if err := p.RunCycle(ctx); err != nil {
				if cancelled(ctx, err) {
					p.logger.Info().Msg("poll loop stopped")
					return nil
				}
				return err
			}
		}
	}
}

func cancelled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}
