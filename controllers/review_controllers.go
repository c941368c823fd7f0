package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
)

type ReviewController struct {
	Reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{Reviews: reviews}
}

// CreateReview -> POST /food/:id/review
func (rc *ReviewController) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	foodID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating" form:"rating"`
		Comment string `json:"comment" form:"comment"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	review, err := rc.Reviews.CreateReview(c.Request.Context(), userID, foodID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Review created", gin.H{"id": review.ID})
}

// CreateReply -> POST /food/:id/review/:review_id/reply
func (rc *ReviewController) CreateReply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	foodID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	reviewID, ok := uuidParam(c, "review_id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	reply, err := rc.Reviews.CreateReply(c.Request.Context(), userID, foodID, reviewID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reply created", gin.H{"id": reply.ID})
}

func (rc *ReviewController) DeleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := rc.Reviews.DeleteReview(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Review deleted", nil)
}

func (rc *ReviewController) DeleteReply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := rc.Reviews.DeleteReply(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reply deleted", nil)
}
