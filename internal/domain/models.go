package domain

import (
	"time"
)

type Character struct {
	ID        int64
	Name      string
	Realm     string
	Region    string
	CreatedAt time.Time
}

// SnapshotData is the validated payload of one bracket fetch, before it is
// tied to a character and a capture time.
type SnapshotData struct {
	Rating       int
	SeasonPlayed int
	SeasonWon    int
	SeasonLost   int
	WeeklyPlayed int
	WeeklyWon    int
	WeeklyLost   int
}

type Snapshot struct {
	ID           string // nanoid
	CharacterID  int64
	Bracket      string
	CapturedAt   time.Time
	Rating       int
	SeasonPlayed int
	SeasonWon    int
	SeasonLost   int
	WeeklyPlayed int
	WeeklyWon    int
	WeeklyLost   int
	CreatedAt    time.Time
}

type RatingChange struct {
	ID           string // nanoid
	CharacterID  int64
	Bracket      string
	OccurredAt   time.Time
	RatingBefore int
	RatingAfter  int
	RatingDelta  int
	Played       int
	Won          int
	Lost         int
	CreatedAt    time.Time
}

// HourStats accumulates detected activity for one hour-of-day bucket (0-23).
type HourStats struct {
	Hour        int
	Played      int
	Won         int
	Lost        int
	RatingDelta int
}
