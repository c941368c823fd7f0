package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/food-store/models"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// billView adds the computed figures a cart or order page shows.
type billView struct {
	*models.Bill
	Subtotal     string `json:"subtotal"`
	ItemCount    int    `json:"item_count"`
	DisplayTotal string `json:"display_total"`
}

func cartView(b *models.Bill) billView {
	return billView{
		Bill:         b,
		Subtotal:     b.Subtotal().StringFixed(2),
		ItemCount:    b.ItemCount(),
		DisplayTotal: utils.FormatCurrency(b.Total),
	}
}

func (oc *OrderController) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := oc.Orders.Orders(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	views := make([]billView, 0, len(orders))
	for i := range orders {
		views = append(views, cartView(&orders[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", views)
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	order, err := oc.Orders.Order(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", cartView(order))
}

// CancelOrder -> POST /cancel-order {uuid}
func (oc *OrderController) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		UUID string `json:"uuid" form:"uuid" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	billID, err := uuid.Parse(req.UUID)
	if err != nil {
		utils.RespondErrorData(c, http.StatusBadRequest, errors.New("invalid order id"), gin.H{"uuid": "must be a UUID"})
		return
	}

	order, err := oc.Orders.CancelOrder(c.Request.Context(), userID, billID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", cartView(order))
}

// UpdateStatus -> PATCH /admin/orders/:id/status {status}
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" form:"status" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := oc.Orders.SetOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %s moved to %s", order.ID, order.Status.Name)
	utils.RespondJSON(c, http.StatusOK, "Order status updated", cartView(order))
}
