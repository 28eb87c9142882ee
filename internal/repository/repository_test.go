package repository

import (
	"context"
	"database/sql"
	"pvp-tracker/internal/config"
	"pvp-tracker/internal/database"
	"pvp-tracker/internal/domain"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(&config.Config{DBPath: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCharacterResolveCaseInsensitive(t *testing.T) {
	db := testDB(t)
	repo := NewCharacterRepository(db, zerolog.Nop())
	ctx := context.Background()

	first, err := repo.Resolve(ctx, "Foo", "Bar", "us")
	require.NoError(t, err)

	second, err := repo.Resolve(ctx, "foo", "bar", "US")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := repo.Resolve(ctx, "foo", "other-realm", "us")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestCharacterResolveIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewCharacterRepository(db, zerolog.Nop())
	ctx := context.Background()

	id, err := repo.Resolve(ctx, "thrall", "orgrimmar", "eu")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := repo.Resolve(ctx, "thrall", "orgrimmar", "eu")
		require.NoError(t, err)
		assert.Equal(t, id, again)
	}

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM characters`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSnapshotLatestAbsent(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db, zerolog.Nop())

	snap, err := repo.Latest(context.Background(), 1, "2v2")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotAppendAndLatest(t *testing.T) {
	db := testDB(t)
	characters := NewCharacterRepository(db, zerolog.Nop())
	snapshots := NewSnapshotRepository(db, zerolog.Nop())
	ctx := context.Background()

	characterID, err := characters.Resolve(ctx, "foo", "bar", "us")
	require.NoError(t, err)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, snapshots.Append(ctx, characterID, "2v2",
		domain.SnapshotData{Rating: 1500, SeasonPlayed: 10, SeasonWon: 6, SeasonLost: 4}, base))
	require.NoError(t, snapshots.Append(ctx, characterID, "2v2",
		domain.SnapshotData{Rating: 1516, SeasonPlayed: 12, SeasonWon: 7, SeasonLost: 5}, base.Add(5*time.Minute)))
	// other bracket must not leak into this pair's latest
	require.NoError(t, snapshots.Append(ctx, characterID, "3v3",
		domain.SnapshotData{Rating: 2000, SeasonPlayed: 50, SeasonWon: 30, SeasonLost: 20}, base.Add(10*time.Minute)))

	latest, err := snapshots.Latest(ctx, characterID, "2v2")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1516, latest.Rating)
	assert.Equal(t, 12, latest.SeasonPlayed)
	assert.Equal(t, "2v2", latest.Bracket)
}

func TestSnapshotLatestTieBreaksByInsertionOrder(t *testing.T) {
	db := testDB(t)
	characters := NewCharacterRepository(db, zerolog.Nop())
	repo := NewSnapshotRepository(db, zerolog.Nop())
	ctx := context.Background()

	characterID, err := characters.Resolve(ctx, "foo", "bar", "us")
	require.NoError(t, err)

	capturedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, characterID, "2v2",
		domain.SnapshotData{Rating: 1500, SeasonPlayed: 10, SeasonWon: 6, SeasonLost: 4}, capturedAt))
	require.NoError(t, repo.Append(ctx, characterID, "2v2",
		domain.SnapshotData{Rating: 1516, SeasonPlayed: 12, SeasonWon: 7, SeasonLost: 5}, capturedAt))

	latest, err := repo.Latest(ctx, characterID, "2v2")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1516, latest.Rating)
}

func TestRatingChangeHistoryOrdering(t *testing.T) {
	db := testDB(t)
	characters := NewCharacterRepository(db, zerolog.Nop())
	repo := NewRatingChangeRepository(db, zerolog.Nop())
	ctx := context.Background()

	characterID, err := characters.Resolve(ctx, "foo", "bar", "us")
	require.NoError(t, err)

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	// inserted out of chronological order on purpose
	require.NoError(t, repo.Record(ctx, &domain.RatingChange{
		CharacterID: characterID, Bracket: "2v2", OccurredAt: base.Add(2 * time.Hour),
		RatingBefore: 1516, RatingAfter: 1530, RatingDelta: 14, Played: 1, Won: 1,
	}))
	require.NoError(t, repo.Record(ctx, &domain.RatingChange{
		CharacterID: characterID, Bracket: "3v3", OccurredAt: base.Add(time.Hour),
		RatingBefore: 2000, RatingAfter: 1985, RatingDelta: -15, Played: 1, Lost: 1,
	}))
	require.NoError(t, repo.Record(ctx, &domain.RatingChange{
		CharacterID: characterID, Bracket: "2v2", OccurredAt: base,
		RatingBefore: 1500, RatingAfter: 1516, RatingDelta: 16, Played: 2, Won: 1, Lost: 1,
	}))

	all, err := repo.History(ctx, characterID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].OccurredAt.Before(all[i-1].OccurredAt))
	}

	twos, err := repo.History(ctx, characterID, "2v2")
	require.NoError(t, err)
	require.Len(t, twos, 2)
	assert.Equal(t, 16, twos[0].RatingDelta)
	assert.Equal(t, 14, twos[1].RatingDelta)
}

func TestRatingChangeHistoryRestartable(t *testing.T) {
	db := testDB(t)
	characters := NewCharacterRepository(db, zerolog.Nop())
	repo := NewRatingChangeRepository(db, zerolog.Nop())
	ctx := context.Background()

	characterID, err := characters.Resolve(ctx, "foo", "bar", "us")
	require.NoError(t, err)

	require.NoError(t, repo.Record(ctx, &domain.RatingChange{
		CharacterID: characterID, Bracket: "2v2", OccurredAt: time.Now(),
		RatingBefore: 1500, RatingAfter: 1516, RatingDelta: 16, Played: 2, Won: 1, Lost: 1,
	}))

	first, err := repo.History(ctx, characterID, "")
	require.NoError(t, err)
	second, err := repo.History(ctx, characterID, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
