package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
)

type WishlistController struct {
	Wishlist *services.WishlistService
}

func NewWishlistController(wishlist *services.WishlistService) *WishlistController {
	return &WishlistController{Wishlist: wishlist}
}

func (wc *WishlistController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	foods, err := wc.Wishlist.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Wishlist", foods)
}

func (wc *WishlistController) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		FoodID string `json:"food_id" form:"food_id" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	foodID, err := uuid.Parse(req.FoodID)
	if err != nil {
		utils.RespondErrorData(c, http.StatusBadRequest, errors.New("invalid food id"), gin.H{"food_id": "must be a UUID"})
		return
	}

	if err := wc.Wishlist.Add(c.Request.Context(), userID, foodID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Added to wishlist", gin.H{"food_id": foodID})
}

func (wc *WishlistController) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	foodID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := wc.Wishlist.Remove(c.Request.Context(), userID, foodID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Removed from wishlist", gin.H{"food_id": foodID})
}
