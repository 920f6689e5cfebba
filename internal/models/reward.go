package models

import "time"

// RewardCategory represents the kind of reward children can buy with XP
type RewardCategory string

const (
	RewardCategoryAvatar    RewardCategory = "avatar"
	RewardCategoryGame      RewardCategory = "game"
	RewardCategoryPrivilege RewardCategory = "privilege"
)

// MysteryRewardCost is the XP price of a random mystery reward
const MysteryRewardCost = 50

// Reward represents a purchasable reward in the XP shop
type Reward struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    RewardCategory `json:"category"`
	XPCost      int            `json:"xpCost"`
	Icon        string         `json:"icon,omitempty"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// InventoryItem represents a reward owned by a child
type InventoryItem struct {
	ID          int        `json:"id"`
	UserID      int        `json:"userId"`
	RewardID    int        `json:"rewardId"`
	RewardName  string     `json:"rewardName,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	PurchasedAt time.Time  `json:"purchasedAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
}

// BadgeCriterion represents the progress counter a badge threshold applies to
type BadgeCriterion string

const (
	BadgeCriterionLessons BadgeCriterion = "lessons_completed"
	BadgeCriterionXP      BadgeCriterion = "total_xp"
	BadgeCriterionStreak  BadgeCriterion = "streak_days"
)

// Badge represents an achievement unlocked by meeting a progress threshold
type Badge struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Criterion   BadgeCriterion `json:"criterion"`
	Threshold   int            `json:"threshold"`
	Icon        string         `json:"icon,omitempty"`
}

// BadgeListItem represents a badge with the caller's earned flag joined in
type BadgeListItem struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earnedAt,omitempty"`
}
