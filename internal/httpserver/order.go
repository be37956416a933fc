package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greencart/backend/internal/logging"
	"github.com/greencart/backend/internal/middleware"
	"github.com/greencart/backend/internal/service"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		ShippingAddress string `json:"shipping_address"`
		PaymentMethod   string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	order, err := h.Svc.CreateFromCart(ctx, act, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		l.Warn("create_order_error", "error", err)
		return writeError(c, err)
	}

	l.Info("order created", "order_number", order.OrderNumber)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "order created successfully",
		"order":   order,
	})
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	order, err := h.Svc.Cancel(ctx, act, uint(orderID))
	if err != nil {
		l.Warn("cancel_order_error", "order_id", orderID, "error", err)
		return writeError(c, err)
	}

	l.Info("order cancelled", "order_number", order.OrderNumber)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "order cancelled successfully",
		"order":   order,
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	order, err := h.Svc.UpdateStatus(ctx, act, uint(orderID), req.Status)
	if err != nil {
		l.Warn("update_status_error", "order_id", orderID, "error", err)
		return writeError(c, err)
	}

	l.Info("order status updated", "order_number", order.OrderNumber, "status", order.Status)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "order status updated successfully",
		"order":   order,
	})
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Svc.MyOrders(ctx, act)
	if err != nil {
		l.Error("my_orders_error", "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) ProducerOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.producer_orders")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Svc.ProducerOrders(ctx, act, c.QueryParam("status"))
	if err != nil {
		l.Warn("producer_orders_error", "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Detail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.detail")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	order, err := h.Svc.Detail(ctx, act, uint(orderID))
	if err != nil {
		l.Warn("order_detail_error", "order_id", orderID, "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Statistics(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.statistics")

	act, ok := middleware.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	stats, err := h.Svc.Statistics(ctx, act)
	if err != nil {
		l.Error("order_statistics_error", "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
