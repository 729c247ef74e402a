package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
	"food-marketplace-api/store"

	"github.com/gin-gonic/gin"
)

type ForceStatusRequest struct {
	Status models.OrderStatus `json:"status"`
	Reason string             `json:"reason"`
}

// AdminGetAllOrders returns all orders with a status summary
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	filter := store.OrderFilter{Status: models.OrderStatus(c.Query("status"))}
	var ok bool
	if filter.UserID, ok = optionalID(c, c.Query("userId"), "userId"); !ok {
		return
	}
	if filter.RestaurantID, ok = optionalID(c, c.Query("restaurantId"), "restaurantId"); !ok {
		return
	}
	report, err := h.Orders.AdminOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AdminForceOrderStatus lets admin override any order state (emergency use)
func (h *Handler) AdminForceOrderStatus(c *gin.Context) {
	orderID, ok := parseID(c, c.Param("orderId"), "orderId")
	if !ok {
		return
	}
	var req ForceStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.Orders.ForceStatus(c.Request.Context(), orderID, req.Status, middleware.CurrentUser(c).ID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status force-updated by admin", "order": order})
}

// AdminGetAllUsers returns all users
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Auth.ListUsers(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *Handler) AdminCreateFeatured(c *gin.Context) {
	var req services.FeaturedInput
	if !bindJSON(c, &req) {
		return
	}
	collection, err := h.Restaurants.CreateFeatured(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "featured": collection})
}

func (h *Handler) AdminCreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.Restaurants.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "category": category})
}

type AddToFeaturedRequest struct {
	RestaurantID uint `json:"restaurantId"`
}

func (h *Handler) AdminAddToFeatured(c *gin.Context) {
	collectionID, ok := parseID(c, c.Param("id"), "featured id")
	if !ok {
		return
	}
	var req AddToFeaturedRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Restaurants.AddToFeatured(c.Request.Context(), collectionID, req.RestaurantID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Restaurant added to featured collection"})
}
