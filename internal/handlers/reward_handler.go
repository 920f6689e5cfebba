package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/middleware"
	"github.com/savagehomeschool/backend/internal/models"
)

// RewardService is the interface that wraps the XP shop business logic
type RewardService interface {
	ListRewards(ctx context.Context, category models.RewardCategory) ([]models.Reward, error)
	CreateReward(ctx context.Context, reward *models.Reward) error
	Purchase(ctx context.Context, userID, rewardID int) (*models.Reward, error)
	MysteryReward(ctx context.Context, userID int) (*models.Reward, error)
	GetInventory(ctx context.Context, userID int) ([]models.InventoryItem, error)
	UseItem(ctx context.Context, userID, itemID int) error
	ListBadges(ctx context.Context, userID int) ([]models.BadgeListItem, error)
}

// RewardHandler handles XP shop and badge HTTP requests
type RewardHandler struct {
	BaseHandler
	rewardService RewardService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewardService RewardService, logger *zap.Logger) *RewardHandler {
	return &RewardHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		rewardService: rewardService,
	}
}

// RegisterRoutes registers all reward handler routes
func (h *RewardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/rewards", func(r chi.Router) {
		r.Get("/", h.ListRewards)
		r.Post("/{id}/purchase", h.Purchase)
		r.Post("/mystery", h.MysteryReward)
	})
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.GetInventory)
		r.Post("/{id}/use", h.UseItem)
	})
	r.Get("/badges", h.ListBadges)
}

// RegisterAdminRoutes registers the reward management routes
func (h *RewardHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/rewards", h.CreateReward)
}

// ListRewards handles GET /rewards
// @Summary List rewards
// @Description List active rewards, optionally filtered by category
// @Tags rewards
// @Produce json
// @Param category query string false "avatar, game or privilege"
// @Success 200 {array} models.Reward "Rewards"
// @Failure 400 {object} map[string]string "Invalid category"
// @Security ApiKeyAuth
// @Router /rewards [get]
func (h *RewardHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	category := models.RewardCategory(r.URL.Query().Get("category"))

	rewards, err := h.rewardService.ListRewards(r.Context(), category)
	if err != nil {
		h.Logger.Error("failed to list rewards", zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, rewards)
}

// CreateReward handles POST /admin/rewards
// @Summary Create a reward
// @Tags rewards
// @Accept json
// @Produce json
// @Param request body models.Reward true "Reward data"
// @Success 201 {object} models.Reward "Created reward"
// @Failure 400 {object} map[string]string "Invalid reward data"
// @Security ApiKeyAuth
// @Router /admin/rewards [post]
func (h *RewardHandler) CreateReward(w http.ResponseWriter, r *http.Request) {
	var reward models.Reward
	if err := json.NewDecoder(r.Body).Decode(&reward); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reward.IsActive = true

	if err := h.rewardService.CreateReward(r.Context(), &reward); err != nil {
		h.Logger.Error("failed to create reward", zap.String("name", reward.Name), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, reward)
}

// Purchase handles POST /rewards/{id}/purchase
// @Summary Purchase a reward
// @Description Spend XP on a reward and add it to the caller's inventory. Rejected when the balance is too low.
// @Tags rewards
// @Produce json
// @Param id path int true "Reward ID"
// @Success 200 {object} models.Reward "Purchased reward"
// @Failure 400 {object} map[string]string "Not enough XP or reward unavailable"
// @Failure 404 {object} map[string]string "Reward not found"
// @Security ApiKeyAuth
// @Router /rewards/{id}/purchase [post]
func (h *RewardHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rewardID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid reward ID")
		return
	}

	reward, err := h.rewardService.Purchase(r.Context(), userID, rewardID)
	if err != nil {
		h.Logger.Warn("failed to purchase reward",
			zap.Int("userId", userID), zap.Int("rewardId", rewardID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, reward)
}

// MysteryReward handles POST /rewards/mystery
// @Summary Buy a mystery reward
// @Description Spend a flat 50 XP on a random active reward
// @Tags rewards
// @Produce json
// @Success 200 {object} models.Reward "The reward drawn"
// @Failure 400 {object} map[string]string "Not enough XP"
// @Failure 404 {object} map[string]string "No rewards available"
// @Security ApiKeyAuth
// @Router /rewards/mystery [post]
func (h *RewardHandler) MysteryReward(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reward, err := h.rewardService.MysteryReward(r.Context(), userID)
	if err != nil {
		h.Logger.Warn("failed to draw mystery reward", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, reward)
}

// GetInventory handles GET /inventory
// @Summary Get inventory
// @Description The caller's purchased rewards with used flags
// @Tags rewards
// @Produce json
// @Success 200 {array} models.InventoryItem "Inventory"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /inventory [get]
func (h *RewardHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	inventory, err := h.rewardService.GetInventory(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get inventory", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, inventory)
}

// UseItem handles POST /inventory/{id}/use
// @Summary Use an inventory item
// @Description Mark an owned inventory item as used. Items are single use.
// @Tags rewards
// @Produce json
// @Param id path int true "Inventory item ID"
// @Success 200 {object} map[string]string "Item used"
// @Failure 404 {object} map[string]string "Item not found or already used"
// @Security ApiKeyAuth
// @Router /inventory/{id}/use [post]
func (h *RewardHandler) UseItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	if err := h.rewardService.UseItem(r.Context(), userID, itemID); err != nil {
		h.Logger.Warn("failed to use inventory item",
			zap.Int("userId", userID), zap.Int("itemId", itemID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "item used"})
}

// ListBadges handles GET /badges
// @Summary List badges
// @Description All badges with the caller's earned flag and date
// @Tags rewards
// @Produce json
// @Success 200 {array} models.BadgeListItem "Badges"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /badges [get]
func (h *RewardHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	badges, err := h.rewardService.ListBadges(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to list badges", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, badges)
}
