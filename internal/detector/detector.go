// Package detector decides whether real competitive activity occurred
// between two successive samples of a bracket and, if so, what the net
// effect was. It is pure: persistence is the caller's job.
package detector

import (
	"pvp-tracker/internal/domain"
)

type Result struct {
	Activity bool
	Delta    Delta
}

// Delta is the net effect of the games played between two snapshots.
type Delta struct {
	RatingBefore int
	RatingAfter  int
	RatingDelta  int
	Played       int
	Won          int
	Lost         int
}

// Detect compares the last stored snapshot against freshly fetched data.
//
// A nil previous snapshot means this is the first observation for the pair;
// there is nothing to diff against, so no activity is reported. A season
// played count that is flat or lower than before also reports no activity:
// a lower count means the season rolled over and the counters reset, which
// is indistinguishable from inactivity given only the two samples, and must
// never surface as negative games played. Won/lost/rating deltas are passed
// through as computed; won+lost is not required to equal played.
func Detect(previous *domain.Snapshot, current domain.SnapshotData) Result {
	if previous == nil {
		return Result{}
	}

	played := current.SeasonPlayed - previous.SeasonPlayed
	if played <= 0 {
		return Result{}
	}

	return Result{
		Activity: true,
		Delta: Delta{
			RatingBefore: previous.Rating,
			RatingAfter:  current.Rating,
			RatingDelta:  current.Rating - previous.Rating,
			Played:       played,
			Won:          current.SeasonWon - previous.SeasonWon,
			Lost:         current.SeasonLost - previous.SeasonLost,
		},
	}
}
