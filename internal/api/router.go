package api

import (
	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/metrics"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func NewRouter(
	handlers *Handlers,
	admin *AdminHandlers,
	jwtService *auth.JWTService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.Requests(m, logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.SessionHeader},
		ExposeHeaders: []string{middleware.SessionHeader},
	}))

	e.GET("/health", handlers.Health)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// Products
	e.GET("/products", handlers.GetProducts)
	e.GET("/products/:id", handlers.GetProduct)

	// Cart
	cart := e.Group("/cart", middleware.Session())
	cart.GET("", handlers.GetCart)
	cart.DELETE("", handlers.ClearCart)
	cart.POST("/items", handlers.AddToCart)
	cart.PUT("/items/:productId", handlers.UpdateCartItem)
	cart.DELETE("/items/:productId", handlers.RemoveFromCart)

	// Orders
	e.POST("/orders", handlers.PlaceOrder, middleware.Session())
	e.GET("/orders/:id", handlers.GetOrder)

	// Admin
	e.POST("/admin/login", admin.Login)
	adminGroup := e.Group("/admin", middleware.RequireAdmin(jwtService))
	adminGroup.GET("/orders", admin.ListOrders)
	adminGroup.GET("/dashboard", admin.Dashboard)
	adminGroup.POST("/orders/:id/advance", admin.AdvanceOrder)
	adminGroup.PUT("/orders/:id/status", admin.UpdateOrderStatus)
	adminGroup.POST("/orders/:id/cancel", admin.CancelOrder)

	return e
}
