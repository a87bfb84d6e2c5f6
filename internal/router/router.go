package router

import (
	"fmt"
	"strings"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/cache"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	adminhandlers "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/admin"
	publichandlers "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/public"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires every route of the storefront API.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "too many login attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProduct)
			public.GET("/categories", publicHandler.ListCategories)
			public.GET("/coupon-tiers", publicHandler.ListCouponTiers)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// Coupon validation is stateless and open; the webhook is called by
		// the payment provider and carries no session either.
		apiV1.POST("/coupons/validate", publicHandler.ValidateCoupon)
		apiV1.POST("/discount-coupons/validate", publicHandler.ValidateDiscountCoupon)
		apiV1.POST("/webhook/payment-provider", publicHandler.PaymentProviderWebhook)

		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.Me)
			user.GET("/me/coupons", publicHandler.MyCoupons)
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.SetCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/apply-discount", publicHandler.ApplyDiscount)
			user.POST("/coupons/purchase", publicHandler.PurchaseCoupon)
		}

		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/products", adminHandler.ListProducts)
			admin.GET("/products/:id", adminHandler.GetProduct)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)

			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)
			admin.GET("/category-restrictions", adminHandler.ListCategoryRestrictions)
			admin.PUT("/categories/:id/restrictions", adminHandler.SetCategoryRestriction)
			admin.DELETE("/categories/:id/restrictions", adminHandler.ClearCategoryRestriction)

			admin.GET("/discount-coupons", adminHandler.ListDiscountCoupons)
			admin.POST("/discount-coupons", adminHandler.CreateDiscountCoupon)
			admin.PUT("/discount-coupons/:id", adminHandler.UpdateDiscountCoupon)
			admin.DELETE("/discount-coupons/:id", adminHandler.DeleteDiscountCoupon)

			admin.GET("/coupons", adminHandler.ListCoupons)
			admin.POST("/coupons/mint-batch", adminHandler.MintCouponBatch)

			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.GET("/payments", adminHandler.ListPayments)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
