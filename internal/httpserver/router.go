package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greencart/backend/internal/actor"
	"github.com/greencart/backend/internal/middleware"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	ProductHandler *ProductHTTP
	SearchHandler  *SearchHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := &middleware.Auth{JWTSecret: d.JWTSecret}

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/refresh", d.AuthHandler.Refresh)
	v1.POST("/logout", d.AuthHandler.Logout)

	profile := v1.Group("/profile", authMW.RequireAuth)
	profile.GET("", d.AuthHandler.Profile)
	profile.PATCH("", d.AuthHandler.UpdateProfile)
	profile.POST("/change-password", d.AuthHandler.ChangePassword)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.GET("/:id", d.ProductHandler.Get)

	manage := v1.Group("/products", authMW.RequireAuth,
		authMW.RequireKind(actor.KindProducer, actor.KindStaff))
	manage.POST("", d.ProductHandler.Create)
	manage.PATCH("/:id", d.ProductHandler.Patch)
	manage.DELETE("/:id", d.ProductHandler.Delete)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	cart := v1.Group("/cart", authMW.RequireAuth, authMW.RequireKind(actor.KindConsumer))
	cart.GET("", d.CartHandler.GetCart)
	cart.GET("/summary", d.CartHandler.Summary)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.Clear)

	orders := v1.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.OrderHandler.Create)
	orders.GET("", d.OrderHandler.MyOrders)
	orders.GET("/producer", d.OrderHandler.ProducerOrders)
	orders.GET("/statistics", d.OrderHandler.Statistics)
	orders.GET("/:id", d.OrderHandler.Detail)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel)
	orders.POST("/:id/status", d.OrderHandler.UpdateStatus)
}
