package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/repo"
	"github.com/greencart/backend/internal/service"
	"github.com/greencart/backend/internal/tokens"
)

var testJWTSecret = []byte("test-secret")

type testServer struct {
	echo *echo.Echo
	repo *repo.GormRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ProducerProfile{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.RefreshToken{},
	))

	r := &repo.GormRepo{DB: db}
	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Repo:          r,
			JWTSecret:     testJWTSecret,
			RefreshSecret: []byte("test-refresh-secret"),
		}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:   &OrderHTTP{Svc: &service.OrderService{Repo: r}},
		ProductHandler: &ProductHTTP{Svc: &service.ProductService{Repo: r}},
		JWTSecret:      testJWTSecret,
	})
	return &testServer{echo: e, repo: r}
}

func (s *testServer) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func consumerToken(t *testing.T, userID uint) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(fmt.Sprint(userID), models.RoleConsumer, 0,
		testJWTSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return tok
}

func producerToken(t *testing.T, userID, producerID uint) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(fmt.Sprint(userID), models.RoleProducer, producerID,
		testJWTSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return tok
}

func seedProduct(t *testing.T, r *repo.GormRepo, producerID uint, price int64, stock uint) *models.Product {
	t.Helper()
	p := &models.Product{
		ProducerID:        producerID,
		Name:              "tomatoes",
		Price:             price,
		QuantityAvailable: stock,
		IsActive:          true,
	}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCartRoutes_AuthGates(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodGet, "/api/v1/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/v1/cart", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Producers have no cart.
	rec = s.request(t, http.MethodGet, "/api/v1/cart", producerToken(t, 2, 7), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCartRoutes_AddAndSummary(t *testing.T) {
	s := newTestServer(t)
	p := seedProduct(t, s.repo, 7, 1000, 10)
	token := consumerToken(t, 1)

	rec := s.request(t, http.MethodPost, "/api/v1/cart/items", token,
		fmt.Sprintf(`{"product_id": %d, "quantity": 2}`, p.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request(t, http.MethodGet, "/api/v1/cart/summary", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2000), body["total_amount"])
	assert.Equal(t, false, body["is_empty"])
}

func TestCartRoutes_InsufficientStockConflict(t *testing.T) {
	s := newTestServer(t)
	p := seedProduct(t, s.repo, 7, 1000, 3)

	rec := s.request(t, http.MethodPost, "/api/v1/cart/items", consumerToken(t, 1),
		fmt.Sprintf(`{"product_id": %d, "quantity": 5}`, p.ID))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderRoutes_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	p := seedProduct(t, s.repo, 7, 1000, 10)
	consumer := consumerToken(t, 1)
	producer := producerToken(t, 2, 7)

	rec := s.request(t, http.MethodPost, "/api/v1/cart/items", consumer,
		fmt.Sprintf(`{"product_id": %d, "quantity": 2}`, p.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/v1/orders", consumer,
		`{"shipping_address": "12 Main St", "payment_method": "card"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	order, ok := created["order"].(map[string]any)
	require.True(t, ok)
	orderID := uint(order["id"].(float64))
	assert.Equal(t, models.OrderStatusPending, order["status"])
	assert.Equal(t, float64(2000), order["total_amount"])

	// Empty cart now rejects a second checkout.
	rec = s.request(t, http.MethodPost, "/api/v1/orders", consumer, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Consumer may not advance the status.
	rec = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID),
		consumer, `{"status": "CONFIRMED"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID),
		producer, `{"status": "CONFIRMED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Skipping a state maps to conflict.
	rec = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID),
		producer, `{"status": "DELIVERED"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/cancel", orderID),
		consumer, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var refreshed models.Product
	require.NoError(t, s.repo.DB.First(&refreshed, p.ID).Error)
	assert.Equal(t, uint(10), refreshed.QuantityAvailable)
}

func TestOrderRoutes_UninvolvedProducerForbidden(t *testing.T) {
	s := newTestServer(t)
	p := seedProduct(t, s.repo, 7, 1000, 10)
	consumer := consumerToken(t, 1)

	rec := s.request(t, http.MethodPost, "/api/v1/cart/items", consumer,
		fmt.Sprintf(`{"product_id": %d, "quantity": 1}`, p.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.request(t, http.MethodPost, "/api/v1/orders", consumer, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := uint(decodeBody(t, rec)["order"].(map[string]any)["id"].(float64))

	rec = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/status", orderID),
		producerToken(t, 3, 99), `{"status": "CONFIRMED"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID),
		producerToken(t, 3, 99), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderRoutes_Statistics(t *testing.T) {
	s := newTestServer(t)
	p := seedProduct(t, s.repo, 7, 1000, 10)
	consumer := consumerToken(t, 1)

	rec := s.request(t, http.MethodPost, "/api/v1/cart/items", consumer,
		fmt.Sprintf(`{"product_id": %d, "quantity": 2}`, p.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.request(t, http.MethodPost, "/api/v1/orders", consumer, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/v1/orders/statistics", consumer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_orders"])
	assert.Equal(t, float64(1), body["pending_orders"])
	assert.Contains(t, body, "total_spent")
	assert.NotContains(t, body, "total_revenue")

	rec = s.request(t, http.MethodGet, "/api/v1/orders/statistics", producerToken(t, 2, 7), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total_orders"])
	assert.Contains(t, body, "total_revenue")
	assert.NotContains(t, body, "total_spent")
}

func TestAuthRoutes_RegisterLoginRefresh(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodPost, "/api/v1/register", "",
		`{"email": "jo@example.com", "username": "jo", "password": "secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request(t, http.MethodPost, "/api/v1/register", "",
		`{"email": "jo@example.com", "username": "jo2", "password": "secret"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/v1/login", "",
		`{"email": "jo@example.com", "password": "secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	rec = s.request(t, http.MethodGet, "/api/v1/profile", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jo@example.com", decodeBody(t, rec)["email"])

	rec = s.request(t, http.MethodPost, "/api/v1/refresh", "",
		fmt.Sprintf(`{"refresh_token": %q}`, refresh))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["access_token"])

	// Rotated: the old refresh token is spent.
	rec = s.request(t, http.MethodPost, "/api/v1/refresh", "",
		fmt.Sprintf(`{"refresh_token": %q}`, refresh))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/v1/login", "",
		`{"email": "jo@example.com", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductRoutes_ManagementGates(t *testing.T) {
	s := newTestServer(t)

	body := `{"name": "tomatoes", "price": 1000, "quantity_available": 5}`

	rec := s.request(t, http.MethodPost, "/api/v1/products", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/v1/products", consumerToken(t, 1), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/v1/products", producerToken(t, 2, 7), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request(t, http.MethodGet, "/api/v1/products", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
