package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type CharacterRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCharacterRepository(sqlDB *sql.DB, logger zerolog.Logger) *CharacterRepository {
	return &CharacterRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Lookup returns the identifier for a (name, realm, region) triple, or
// found=false when the character has never been seen. It never inserts, so
// read-only paths can use it without touching the store.
func (r *CharacterRepository) Lookup(ctx context.Context, name, realm, region string) (int64, bool, error) {
	name = strings.ToLower(name)
	realm = strings.ToLower(realm)
	region = strings.ToLower(region)

	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM characters WHERE name = ? AND realm = ? AND region = ?`,
		name, realm, region,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("name", name).Str("realm", realm).Msg("failed to look up character")
		return 0, false, fmt.Errorf("failed to look up character: %w", err)
	}
	return id, true, nil
}

// Resolve maps a (name, realm, region) triple to its stable identifier,
// creating the character on first sight. All three fields are lowercased so
// repeated resolutions with different casing hit the same row.
func (r *CharacterRepository) Resolve(ctx context.Context, name, realm, region string) (int64, error) {
	name = strings.ToLower(name)
	realm = strings.ToLower(realm)
	region = strings.ToLower(region)

	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM characters WHERE name = ? AND realm = ? AND region = ?`,
		name, realm, region,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		r.logger.Error().Err(err).Str("name", name).Str("realm", realm).Msg("failed to look up character")
		return 0, fmt.Errorf("failed to look up character: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO characters (name, realm, region, created_at) VALUES (?, ?, ?, ?)`,
		name, realm, region, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("name", name).Str("realm", realm).Msg("failed to create character")
		return 0, fmt.Errorf("failed to create character: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read character id: %w", err)
	}

	r.logger.Info().
		Int64("character_id", id).
		Str("name", name).
		Str("realm", realm).
		Str("region", region).
		Msg("character registered")
	return id, nil
}
