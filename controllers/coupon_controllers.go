package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
)

type CouponController struct {
	Coupons *services.CouponService
}

func NewCouponController(coupons *services.CouponService) *CouponController {
	return &CouponController{Coupons: coupons}
}

func (cc *CouponController) Lookup(c *gin.Context) {
	quote, err := cc.Coupons.Lookup(c.Request.Context(), c.Param("code"), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Coupon", quote)
}
