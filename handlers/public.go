package handlers

import (
	"net/http"

	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Food Marketplace API",
		"version": "1.0.0",
	})
}

// Welcome is served at the root
func Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Food Marketplace API",
		"docs":    "/api/state-machine",
		"health":  "/health",
		"roles":   []string{"user", "restaurantOwner", "admin"},
	})
}

// GetStateMachineInfo returns the full order lifecycle for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"initialState":   statemachine.InitialStatus,
		"terminalStates": []string{"delivered", "cancelled"},
		"transitions":    statemachine.AllTransitions(),
		"notes": []string{
			"Progress is forward only: preparing -> on-the-way -> delivered",
			"Customers may cancel only while the order is preparing",
			"Admins can override any state via PUT /api/admin/orders/:orderId/status",
		},
	})
}
