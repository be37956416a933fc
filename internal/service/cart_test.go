package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/repo"
)

func TestCartService_GetOrCreateCart_Idempotent(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	cart1, lines, err := svc.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, lines)

	cart2, _, err := svc.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cart1.ID, cart2.ID)

	var count int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCartService_AddProduct_NewLine(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, 1, "tomatoes", 1000, 10)

	item, err := svc.AddProduct(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), item.Quantity)

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, uint(2), summary.ItemsCount)
	assert.Equal(t, int64(2000), summary.TotalAmount)
	assert.False(t, summary.IsEmpty)
	assert.False(t, summary.HasUnavailableItems)
}

func TestCartService_AddProduct_MergesQuantities(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, 1, "tomatoes", 500, 10)

	_, err := svc.AddProduct(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	item, err := svc.AddProduct(ctx, 1, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, uint(7), item.Quantity)

	var count int64
	require.NoError(t, r.DB.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCartService_AddProduct_InsufficientStockLeavesCartUnchanged(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, 1, "tomatoes", 500, 5)

	_, err := svc.AddProduct(ctx, 1, p.ID, 3)
	require.NoError(t, err)

	_, err = svc.AddProduct(ctx, 1, p.ID, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	item, err := r.CartItemByProduct(ctx, mustCartID(t, r, 1), p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(3), item.Quantity)
}

func TestCartService_AddProduct_Validation(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	tests := []struct {
		name      string
		productID uint
		quantity  uint
		wantErr   error
	}{
		{name: "zero quantity", productID: 1, quantity: 0, wantErr: ErrValidation},
		{name: "missing product", productID: 999, quantity: 1, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddProduct(ctx, 1, tt.productID, tt.quantity)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCartService_AddProduct_InactiveProduct(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, 1, "tomatoes", 500, 5)
	require.NoError(t, r.DB.Model(p).Update("is_active", false).Error)

	_, err := svc.AddProduct(ctx, 1, p.ID, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_UpdateItemQuantity(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, 1, "tomatoes", 500, 10)
	added, err := svc.AddProduct(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	// Overwrites, not increments.
	item, err := svc.UpdateItemQuantity(ctx, 1, added.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), item.Quantity)

	// Over stock is rejected.
	_, err = svc.UpdateItemQuantity(ctx, 1, added.ID, 11)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Zero deletes the line.
	item, err = svc.UpdateItemQuantity(ctx, 1, added.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.True(t, summary.IsEmpty)
}

func TestCartService_Clear_KeepsCartRow(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, 1, "tomatoes", 500, 10)
	_, err := svc.AddProduct(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, 1))

	var items int64
	require.NoError(t, r.DB.Model(&models.CartItem{}).Count(&items).Error)
	assert.Equal(t, int64(0), items)

	var carts int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

func TestCartService_Summary_FlagsUnavailableItems(t *testing.T) {
	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, 1, "tomatoes", 500, 10)
	_, err := svc.AddProduct(ctx, 1, p.ID, 4)
	require.NoError(t, err)

	// Stock dropped below the requested quantity after the line was added.
	require.NoError(t, r.DB.Model(p).Update("quantity_available", 2).Error)

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.True(t, summary.HasUnavailableItems)
}

func mustCartID(t *testing.T, r *repo.GormRepo, consumerID uint) uint {
	t.Helper()
	cart, err := r.GetOrCreateCart(context.Background(), consumerID)
	require.NoError(t, err)
	return cart.ID
}
