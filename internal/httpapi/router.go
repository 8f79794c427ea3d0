// Package httpapi — тонкий HTTP-слой поверх сервисов: разбор запроса,
// вызов сервиса, JSON-ответ в едином конверте.
package httpapi

import (
	"github.com/gin-gonic/gin"
)

// Handlers — набор обработчиков, регистрируемых роутером.
type Handlers struct {
	Auth     *AuthHandler
	Products *ProductHandler
	POS      *POSHandler
	Verifier TokenVerifier
}

// NewRouter собирает gin-роутер со всеми маршрутами /api/v1.
func NewRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)

	protected := v1.Group("")
	protected.Use(AuthMiddleware(h.Verifier))

	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/refresh", h.Auth.Refresh)
	protected.POST("/auth/logout", h.Auth.Logout)

	protected.GET("/products", h.Products.List)
	protected.POST("/products", h.Products.Create)
	protected.GET("/products/:id", h.Products.Get)
	protected.PUT("/products/:id", h.Products.Update)

	protected.POST("/pos", h.POS.ProcessSale)
	protected.GET("/sales", h.POS.ListSales)
	protected.GET("/sales/:id", h.POS.GetSale)

	return router
}
