package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greencart/backend/internal/logging"
	"github.com/greencart/backend/internal/middleware"
	"github.com/greencart/backend/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, lines, err := h.Svc.GetOrCreateCart(ctx, act.UserID)
	if err != nil {
		l.Error("get_cart_error", "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": cart, "items": lines})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	item, err := h.Svc.AddProduct(ctx, act.UserID, req.ProductID, req.Quantity)
	if err != nil {
		l.Warn("add_item_error", "error", err)
		return writeError(c, err)
	}

	l.Info("item added to cart", "product_id", req.ProductID)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	item, err := h.Svc.UpdateItemQuantity(ctx, act.UserID, uint(itemID), req.Quantity)
	if err != nil {
		l.Warn("update_item_error", "error", err)
		return writeError(c, err)
	}
	if item == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "item removed from cart"})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := h.Svc.RemoveItem(ctx, act.UserID, uint(itemID)); err != nil {
		l.Warn("remove_item_error", "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "item removed from cart"})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := h.Svc.Clear(ctx, act.UserID); err != nil {
		l.Error("clear_cart_error", "error", err)
		return writeError(c, err)
	}
	l.Info("cart cleared")
	return c.JSON(http.StatusOK, echo.Map{"message": "cart cleared"})
}

func (h *CartHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.summary")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	summary, err := h.Svc.Summary(ctx, act.UserID)
	if err != nil {
		l.Error("cart_summary_error", "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
