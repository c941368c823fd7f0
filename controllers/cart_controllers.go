package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
)

type CartController struct {
	Orders         *services.OrderService
	DeliveryCharge decimal.Decimal
}

func NewCartController(orders *services.OrderService, deliveryCharge decimal.Decimal) *CartController {
	return &CartController{Orders: orders, DeliveryCharge: deliveryCharge}
}

func (cc *CartController) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := cc.Orders.Cart(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart", cartView(cart))
}

// AddToCart -> POST /add-to-cart {id, quantity?}
func (cc *CartController) AddToCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		FoodID   string `json:"id" form:"id" binding:"required"`
		Quantity *int   `json:"quantity" form:"quantity"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	foodID, err := uuid.Parse(req.FoodID)
	if err != nil {
		utils.RespondErrorData(c, http.StatusBadRequest, errors.New("invalid food id"), gin.H{"id": "must be a UUID"})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := cc.Orders.AddItem(c.Request.Context(), userID, foodID, quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added to cart", cartView(cart))
}

func (cc *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	cart, err := cc.Orders.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed from cart", cartView(cart))
}

// UpdateCart -> POST /update-cart/:id {quantity}. Zero removes the line.
func (cc *CartController) UpdateCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Quantity *int `json:"quantity" form:"quantity" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	cart, err := cc.Orders.UpdateItemQuantity(c.Request.Context(), userID, itemID, *req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated", cartView(cart))
}

// Checkout -> POST /checkout {checkoutip}. checkoutip is a JSON object of food id to
// quantity; the response is a priced preview and nothing is stored.
func (cc *CartController) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		CheckoutIP string `json:"checkoutip" form:"checkoutip" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	selections, err := parseSelections(req.CheckoutIP)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	preview, err := cc.Orders.PreviewCheckout(c.Request.Context(), userID, selections, cc.DeliveryCharge)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout preview", gin.H{
		"lines":            preview.Lines,
		"item_count":       preview.ItemCount,
		"subtotal":         preview.Subtotal,
		"delivery_charges": preview.DeliveryCharges,
		"total":            preview.Total,
		"display_total":    utils.FormatCurrency(preview.Total),
	})
}

// HandleCheckout -> POST /handle-checkout. fprice is the total the client displayed; the
// server-side total always wins.
func (cc *CartController) HandleCheckout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		FPrice       string `json:"fprice" form:"fprice"`
		Recipient    string `json:"recipient" form:"recipient"`
		Phone        string `json:"phone" form:"phone"`
		Address      string `json:"address" form:"address"`
		City         string `json:"city" form:"city"`
		Country      string `json:"country" form:"country"`
		Zip          string `json:"zip" form:"zip"`
		ShippingNote string `json:"shippingNote" form:"shippingNote"`
		Coupon       string `json:"coupon" form:"coupon"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := cc.Orders.Checkout(c.Request.Context(), userID, services.CheckoutRequest{
		Recipient:       req.Recipient,
		Phone:           req.Phone,
		Address:         req.Address,
		City:            req.City,
		Country:         req.Country,
		Zip:             req.Zip,
		ShippingNote:    req.ShippingNote,
		CouponCode:      req.Coupon,
		DeliveryCharges: cc.DeliveryCharge,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if fprice := strings.TrimSpace(req.FPrice); fprice != "" {
		claimed, err := decimal.NewFromString(fprice)
		if err != nil || !claimed.Equal(result.Order.Total) {
			utils.InfoLogger.WithFields(logrus.Fields{
				"order_id": result.Order.ID,
				"fprice":   fprice,
				"total":    result.Order.Total.String(),
			}).Warn("Client total does not match order total")
		}
	}

	utils.RespondJSON(c, http.StatusCreated, "Order placed", gin.H{
		"order":         result.Order,
		"display_total": utils.FormatCurrency(result.Order.Total),
		"cart_id":       result.Cart.ID,
	})
}

func parseSelections(raw string) (map[uuid.UUID]int, error) {
	var quantities map[string]int
	if err := json.Unmarshal([]byte(raw), &quantities); err != nil {
		return nil, &services.ValidationError{Fields: map[string]string{"checkoutip": "must be a JSON object of food id to quantity"}}
	}

	selections := make(map[uuid.UUID]int, len(quantities))
	for key, qty := range quantities {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, &services.ValidationError{Fields: map[string]string{"checkoutip": key + " is not a food id"}}
		}
		if _, dup := selections[id]; dup {
			return nil, &services.ValidationError{Fields: map[string]string{"checkoutip": key + " is listed more than once"}}
		}
		if qty < 1 {
			return nil, &services.ValidationError{Fields: map[string]string{"checkoutip": "quantity for " + key + " must be at least 1"}}
		}
		selections[id] = qty
	}
	return selections, nil
}
