package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

// PlaceOrder creates a new order for the caller
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.Orders.CreateOrder(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders returns the caller's orders, newest first
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListOrders(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderDetail returns a single order with its status history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	orderID, ok := parseID(c, c.Param("orderId"), "orderId")
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), orderID, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder cancels an order placed by, or addressed to, the caller
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := parseID(c, c.Param("orderId"), "orderId")
	if !ok {
		return
	}
	order, err := h.Orders.CancelOrder(c.Request.Context(), orderID, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
