package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
)

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// GetRestaurantOrders returns the orders of the caller's restaurant
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	d, err := h.Orders.RestaurantOrders(c.Request.Context(), middleware.CurrentUser(c).ID,
		models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// UpdateOrderStatus advances an order of the caller's restaurant
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseID(c, c.Query("orderId"), "orderId")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.Orders.UpdateStatus(c.Request.Context(), orderID, req.Status, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}
