// Package gamification holds the reward layer: badges earned from learning
// milestones and the coin shop where earnings get spent.
package gamification

import (
	"errors"
	"time"
)

var (
	ErrBadgeNotFound = errors.New("badge not found")
	ErrItemNotFound  = errors.New("shop item not found")
	ErrAlreadyOwned  = errors.New("item already owned")
)

// RequirementType selects which learner statistic a badge checks.
type RequirementType string

const (
	RequirementXPTotal          RequirementType = "xp_total"
	RequirementLessonsCompleted RequirementType = "lessons_completed"
	RequirementStreakDays       RequirementType = "streak_days"
)

// Badge is an achievement definition from the catalog.
type Badge struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	IconName         string          `json:"icon_name,omitempty"`
	RequirementType  RequirementType `json:"requirement_type"`
	RequirementValue int             `json:"requirement_value"`
}

// Award records that a profile earned a badge. Awards are permanent.
type Award struct {
	ProfileID string    `json:"profile_id"`
	BadgeID   string    `json:"badge_id"`
	AwardedAt time.Time `json:"awarded_at"`
}

// Item is something purchasable in the shop.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	IconName    string `json:"icon_name,omitempty"`
	Price       int    `json:"price"`
}

// Ownership records that a profile bought an item. Each item is bought at
// most once per profile.
type Ownership struct {
	ProfileID   string    `json:"profile_id"`
	ItemID      string    `json:"item_id"`
	PurchasedAt time.Time `json:"purchased_at"`
}
