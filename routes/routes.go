package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "straphub-service/common/errors"
	"straphub-service/common/middleware"
	"straphub-service/controllers"
)

// CartRouteOptions configures the session-scoped cart routes.
type CartRouteOptions struct {
	Session         middleware.SessionOptions
	CheckoutLimiter *middleware.RateLimiter
}

func RegisterHealthRoutes(r *gin.Engine, serviceName string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
}

func RegisterProductRoutes(r *gin.Engine, controller *controllers.ProductController) {
	api := r.Group("/products")
	api.Use(apperrors.ErrorMiddleware())
	{
		api.GET("", controller.ListProducts)
		api.GET("/:handle", controller.GetProduct)
	}
}

func RegisterCartRoutes(r *gin.Engine, controller *controllers.CartController, opts CartRouteOptions) {
	api := r.Group("/cart")
	api.Use(middleware.Session(opts.Session), middleware.NoStore(), apperrors.ErrorMiddleware())
	{
		api.GET("", controller.GetCart)
		api.DELETE("", controller.ClearCart)
		api.POST("/items", controller.AddItem)
		api.PATCH("/items/:variant_id", controller.UpdateQuantity)
		api.DELETE("/items/:variant_id", controller.RemoveItem)

		checkout := []gin.HandlerFunc{controller.Checkout}
		if opts.CheckoutLimiter != nil {
			checkout = append([]gin.HandlerFunc{middleware.RateLimit(opts.CheckoutLimiter)}, checkout...)
		}
		api.POST("/checkout", checkout...)
	}
}
