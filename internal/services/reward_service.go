package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
)

// RewardRepository is the interface that wraps reward and inventory table access
type RewardRepository interface {
	GetByID(ctx context.Context, id int) (*models.Reward, error)
	GetAll(ctx context.Context, category models.RewardCategory) ([]models.Reward, error)
	GetRandomActive(ctx context.Context) (*models.Reward, error)
	Create(ctx context.Context, reward *models.Reward) error
	AddToInventory(ctx context.Context, userID, rewardID int) error
	GetInventory(ctx context.Context, userID int) ([]models.InventoryItem, error)
	UseInventoryItem(ctx context.Context, userID, itemID int, usedAt time.Time) error
}

// UserXPRepository is the user table access the reward service needs
type UserXPRepository interface {
	GetByID(ctx context.Context, userID int) (*models.User, error)
	DeductXP(ctx context.Context, userID, xp int) error
}

// BadgeListRepository is the badge read access the reward service needs
type BadgeListRepository interface {
	GetAllWithEarned(ctx context.Context, userID int) ([]models.BadgeListItem, error)
}

// rewardService implements the XP shop, inventory and badge listing
type rewardService struct {
	rewardRepo   RewardRepository
	userRepo     UserXPRepository
	badgeRepo    BadgeListRepository
	activityRepo ActivityRepository
	logger       *zap.Logger
}

// NewRewardService creates a new reward service
func NewRewardService(
	rewardRepo RewardRepository,
	userRepo UserXPRepository,
	badgeRepo BadgeListRepository,
	activityRepo ActivityRepository,
	logger *zap.Logger,
) *rewardService {
	return &rewardService{
		rewardRepo:   rewardRepo,
		userRepo:     userRepo,
		badgeRepo:    badgeRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ListRewards retrieves active rewards, optionally filtered by category
func (s *rewardService) ListRewards(ctx context.Context, category models.RewardCategory) ([]models.Reward, error) {
	if category != "" {
		switch category {
		case models.RewardCategoryAvatar, models.RewardCategoryGame, models.RewardCategoryPrivilege:
		default:
			return nil, fmt.Errorf("invalid reward category: %s", category)
		}
	}
	return s.rewardRepo.GetAll(ctx, category)
}

// CreateReward creates a reward in the shop
func (s *rewardService) CreateReward(ctx context.Context, reward *models.Reward) error {
	if reward.Name == "" {
		return fmt.Errorf("reward name cannot be empty")
	}
	if reward.XPCost <= 0 {
		return fmt.Errorf("xp cost must be positive")
	}
	switch reward.Category {
	case models.RewardCategoryAvatar, models.RewardCategoryGame, models.RewardCategoryPrivilege:
	default:
		return fmt.Errorf("invalid reward category: %s", reward.Category)
	}

	return s.rewardRepo.Create(ctx, reward)
}

// Purchase buys a reward for a child. The XP deduction carries the balance
// guard, so a child can never go negative.
func (s *rewardService) Purchase(ctx context.Context, userID, rewardID int) (*models.Reward, error) {
	reward, err := s.rewardRepo.GetByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.IsActive {
		return nil, fmt.Errorf("reward is not available")
	}

	if err := s.userRepo.DeductXP(ctx, userID, reward.XPCost); err != nil {
		return nil, err
	}

	if err := s.rewardRepo.AddToInventory(ctx, userID, reward.ID); err != nil {
		return nil, err
	}

	s.logPurchase(userID, reward, reward.XPCost, "reward_purchase")
	return reward, nil
}

// MysteryReward spends a fixed XP amount on a random active reward
func (s *rewardService) MysteryReward(ctx context.Context, userID int) (*models.Reward, error) {
	reward, err := s.rewardRepo.GetRandomActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.DeductXP(ctx, userID, models.MysteryRewardCost); err != nil {
		return nil, err
	}

	if err := s.rewardRepo.AddToInventory(ctx, userID, reward.ID); err != nil {
		return nil, err
	}

	s.logPurchase(userID, reward, models.MysteryRewardCost, "mystery_reward")
	return reward, nil
}

// GetInventory retrieves a child's purchased rewards
func (s *rewardService) GetInventory(ctx context.Context, userID int) ([]models.InventoryItem, error) {
	return s.rewardRepo.GetInventory(ctx, userID)
}

// UseItem marks an inventory item as used. Items are single use.
func (s *rewardService) UseItem(ctx context.Context, userID, itemID int) error {
	return s.rewardRepo.UseInventoryItem(ctx, userID, itemID, time.Now())
}

// ListBadges retrieves all badges with the child's earned flags
func (s *rewardService) ListBadges(ctx context.Context, userID int) ([]models.BadgeListItem, error) {
	return s.badgeRepo.GetAllWithEarned(ctx, userID)
}

// logPurchase records a shop purchase in the activity log
func (s *rewardService) logPurchase(userID int, reward *models.Reward, cost int, activityType string) {
	go func() {
		activity := &models.ActivityLog{
			UserID:       userID,
			ActivityType: activityType,
			Description:  fmt.Sprintf("purchased %q for %d XP", reward.Name, cost),
		}
		if err := s.activityRepo.Create(context.Background(), activity); err != nil {
			s.logger.Warn("failed to log purchase",
				zap.Int("userId", userID), zap.Int("rewardId", reward.ID), zap.Error(err))
		}
	}()
}
