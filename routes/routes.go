package routes

import (
	"food-marketplace-api/handlers"
	"food-marketplace-api/metrics"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/store"
	"food-marketplace-api/token"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP surface is wired to
type Deps struct {
	Handler     *handlers.Handler
	Tokens      *token.Service
	Users       store.UserStore
	AuthLimiter *middleware.RateLimiter
	CORSOrigins []string
}

// NewRouter builds the engine with the global middleware and all routes
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		metrics.Middleware(),
		middleware.CORS(deps.CORSOrigins),
	)
	r.GET("/", handlers.Welcome)
	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	SetupRoutes(r, deps)
	return r
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	h := deps.Handler
	authRequired := middleware.Authenticate(deps.Tokens, deps.Users)
	ownerOnly := middleware.RoleRequired(models.RoleRestaurantOwner)
	adminOnly := middleware.RoleRequired(models.RoleAdmin)

	api := r.Group("/api")
	api.GET("/state-machine", handlers.GetStateMachineInfo)
	api.GET("/categories", h.GetCategories)

	// ── Auth ───────────────────────────────────────────────────────
	auth := api.Group("/auth")
	if deps.AuthLimiter != nil {
		auth.Use(deps.AuthLimiter.Handler())
	}
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", authRequired, h.GetProfile)
		auth.PUT("/password", authRequired, h.ChangePassword)
	}

	// ── Customer orders ────────────────────────────────────────────
	order := api.Group("/order", authRequired)
	{
		order.POST("/create-order", h.PlaceOrder)
		order.GET("/my-orders", h.GetMyOrders)
		order.GET("/:orderId", h.GetOrderDetail)
		order.POST("/:orderId/cancel", h.CancelOrder)
	}

	// ── Catalog and restaurant owners ──────────────────────────────
	featured := api.Group("/featured")
	{
		featured.GET("", h.GetFeatured)
		featured.GET("/restaurants", h.ListRestaurants)
		featured.GET("/restaurants/:id", h.GetRestaurant)
	}
	owner := featured.Group("", authRequired, ownerOnly)
	{
		owner.POST("/restaurants-add", h.CreateRestaurant)
		owner.GET("/my", h.GetMyRestaurant)
		owner.PUT("/my", h.UpdateRestaurant)

		owner.GET("/restaurant/dishes", h.GetDishes)
		owner.POST("/restaurant/dishes", h.AddDish)
		owner.PUT("/restaurant/dishes", h.UpdateDish)
		owner.DELETE("/restaurant/dishes", h.DeleteDish)

		owner.GET("/restaurant/orders", h.GetRestaurantOrders)
		owner.PATCH("/order", h.UpdateOrderStatus)
	}

	// ── Admin ──────────────────────────────────────────────────────
	admin := api.Group("/admin", authRequired, adminOnly)
	{
		admin.GET("/orders", h.AdminGetAllOrders)
		admin.PUT("/orders/:orderId/status", h.AdminForceOrderStatus)
		admin.GET("/users", h.AdminGetAllUsers)
		admin.POST("/featured", h.AdminCreateFeatured)
		admin.POST("/featured/:id/restaurants", h.AdminAddToFeatured)
		admin.POST("/categories", h.AdminCreateCategory)
	}
}
