package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stats are the learner statistics badges are checked against.
type Stats struct {
	XPTotal          int
	LessonsCompleted int
	StreakDays       int
}

// Satisfies reports whether the stats meet the badge's requirement. Unknown
// requirement types are never satisfied, so new catalog entries fail closed.
func (b Badge) Satisfies(stats Stats) bool {
	switch b.RequirementType {
	case RequirementXPTotal:
		return stats.XPTotal >= b.RequirementValue
	case RequirementLessonsCompleted:
		return stats.LessonsCompleted >= b.RequirementValue
	case RequirementStreakDays:
		return stats.StreakDays >= b.RequirementValue
	default:
		return false
	}
}

// Evaluator checks the badge catalog against a profile's stats and grants
// whatever is newly earned. Awards are monotonic: once granted, a badge is
// never re-checked or revoked.
type Evaluator struct {
	store Store
}

// NewEvaluator creates a badge evaluator over the given store.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate grants every unearned badge whose requirement the stats now meet
// and returns the newly granted badges, oldest catalog entry first.
func (e *Evaluator) Evaluate(ctx context.Context, profileID string, stats Stats) ([]Badge, error) {
	badges, err := e.store.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	awards, err := e.store.ListAwards(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}

	owned := make(map[string]bool, len(awards))
	for _, a := range awards {
		owned[a.BadgeID] = true
	}

	var granted []Badge
	now := time.Now().UTC()
	for _, badge := range badges {
		if owned[badge.ID] || !badge.Satisfies(stats) {
			continue
		}
		err := e.store.GrantAward(ctx, Award{
			ProfileID: profileID,
			BadgeID:   badge.ID,
			AwardedAt: now,
		})
		if err != nil {
			return granted, fmt.Errorf("grant badge %s: %w", badge.ID, err)
		}
		granted = append(granted, badge)
		slog.Info("badge awarded", "profile_id", profileID, "badge", badge.Name)
	}
	return granted, nil
}
