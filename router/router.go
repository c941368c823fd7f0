package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-store/config"
	"github.com/yeremiapane/food-store/controllers"
	"github.com/yeremiapane/food-store/middlewares"
	"github.com/yeremiapane/food-store/models"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		utils.ErrorLogger.Printf("Invalid trusted proxies %v: %v", cfg.Server.TrustedProxies, err)
	}

	r.Use(middlewares.SecurityHeaders(cfg.Server.Mode == gin.ReleaseMode))
	r.Use(middlewares.CORSMiddlewares(cfg.Server.AllowedOrigins))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst).RateLimit())

	// One OrderService per process: its user locks must be shared by every handler.
	orderSvc := services.NewOrderService(db)

	userCtrl := controllers.NewUserController(services.NewUserService(db))
	foodCtrl := controllers.NewFoodController(services.NewCatalogService(db), cfg.Store.PageSize)
	reviewCtrl := controllers.NewReviewController(services.NewReviewService(db))
	couponCtrl := controllers.NewCouponController(services.NewCouponService(db))
	cartCtrl := controllers.NewCartController(orderSvc, cfg.Store.DeliveryCharge)
	orderCtrl := controllers.NewOrderController(orderSvc)
	wishlistCtrl := controllers.NewWishlistController(services.NewWishlistService(db))

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	strict := middlewares.NewStrictRateLimiter()
	public := r.Group("/")
	public.Use(strict.RateLimit())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	r.GET("/foods", foodCtrl.ListFoods)
	r.GET("/food/:id/details", foodCtrl.GetFood)
	r.GET("/search", foodCtrl.Search)
	r.GET("/coupons/:code", couponCtrl.Lookup)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(cfg.Auth.LoginURL))
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/profile", userCtrl.GetProfile)
		auth.PATCH("/profile", userCtrl.UpdateProfile)

		auth.POST("/food/:id/review", reviewCtrl.CreateReview)
		auth.POST("/food/:id/review/:review_id/reply", reviewCtrl.CreateReply)
		auth.DELETE("/review/:id", reviewCtrl.DeleteReview)
		auth.DELETE("/reply/:id", reviewCtrl.DeleteReply)

		auth.GET("/cart", cartCtrl.GetCart)
		auth.POST("/add-to-cart", cartCtrl.AddToCart)
		auth.POST("/remove-from-cart/:id", cartCtrl.RemoveFromCart)
		auth.POST("/update-cart/:id", cartCtrl.UpdateCart)
		auth.POST("/checkout", cartCtrl.Checkout)
		auth.POST("/handle-checkout", cartCtrl.HandleCheckout)

		auth.POST("/cancel-order", orderCtrl.CancelOrder)
		auth.GET("/orders", orderCtrl.ListOrders)
		auth.GET("/orders/:id", orderCtrl.GetOrder)

		auth.GET("/wishlist", wishlistCtrl.List)
		auth.POST("/wishlist", wishlistCtrl.List)
		auth.POST("/add-to-wishlist", wishlistCtrl.Add)
		auth.DELETE("/remove-from-wishlist/:id", wishlistCtrl.Remove)
	}

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(cfg.Auth.LoginURL), middlewares.RequireRole(models.RoleAdmin, models.RoleStaff))
	{
		admin.PATCH("/orders/:id/status", orderCtrl.UpdateStatus)
	}

	return r
}
