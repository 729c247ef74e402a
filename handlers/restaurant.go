package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

// GetFeatured returns the featured collections (public)
func (h *Handler) GetFeatured(c *gin.Context) {
	collections, err := h.Restaurants.Featured(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(collections), "data": collections})
}

// GetCategories returns the cuisine categories as a bare array (public)
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.Restaurants.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListRestaurants returns restaurants matching ?search= (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.Restaurants.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// GetRestaurant returns a single restaurant with its dishes (public)
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"), "restaurant id")
	if !ok {
		return
	}
	restaurant, err := h.Restaurants.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// CreateRestaurant registers the caller's restaurant
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req services.RestaurantInput
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.Create(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Restaurant added", "restaurant": restaurant})
}

// GetMyRestaurant returns the caller's restaurant
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	restaurant, err := h.Restaurants.Mine(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	var req services.RestaurantUpdate
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.Update(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

func (h *Handler) GetDishes(c *gin.Context) {
	dishes, err := h.Restaurants.Dishes(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dishes": dishes})
}

func (h *Handler) AddDish(c *gin.Context) {
	var req services.DishInput
	if !bindJSON(c, &req) {
		return
	}
	dish, err := h.Restaurants.AddDish(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Dish added", "dish": dish})
}

// UpdateDish patches the dish named by ?dishId=
func (h *Handler) UpdateDish(c *gin.Context) {
	dishID, ok := parseID(c, c.Query("dishId"), "dishId")
	if !ok {
		return
	}
	var req services.DishInput
	if !bindJSON(c, &req) {
		return
	}
	dish, err := h.Restaurants.UpdateDish(c.Request.Context(), middleware.CurrentUser(c).ID, dishID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish updated", "dish": dish})
}

func (h *Handler) DeleteDish(c *gin.Context) {
	dishID, ok := parseID(c, c.Query("dishId"), "dishId")
	if !ok {
		return
	}
	if err := h.Restaurants.DeleteDish(c.Request.Context(), middleware.CurrentUser(c).ID, dishID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish deleted"})
}
