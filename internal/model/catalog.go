package model

import "time"

// RewardCategory is a closed set; anything else is rejected at the boundary.
type RewardCategory string

const (
	CategoryScreenTime RewardCategory = "screen_time"
	CategoryTreats     RewardCategory = "treats"
	CategoryActivities RewardCategory = "activities"
	CategoryMoney      RewardCategory = "money"
	CategoryPrivileges RewardCategory = "privileges"
	CategoryOther      RewardCategory = "other"
)

func (c RewardCategory) Valid() bool {
	switch c {
	case CategoryScreenTime, CategoryTreats, CategoryActivities,
		CategoryMoney, CategoryPrivileges, CategoryOther:
		return true
	}
	return false
}

type Reward struct {
	ID                    int64          `json:"id"`
	HouseholdID           int64          `json:"household_id"`
	Name                  string         `json:"name"`
	Description           string         `json:"description"`
	CostPoints            int            `json:"cost_points"`
	Category              RewardCategory `json:"category"`
	Emoji                 string         `json:"emoji"`
	MaxRedemptionsPerWeek *int           `json:"max_redemptions_per_week"`
	Active                bool           `json:"active"`
	CreatedBy             *int64         `json:"created_by"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}
