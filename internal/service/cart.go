package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

// CartLine is a cart item joined with its product's current price and
// availability. Unit prices are never frozen in the cart.
type CartLine struct {
	Item      models.CartItem `json:"item"`
	Name      string          `json:"name"`
	UnitPrice int64           `json:"unit_price"`
	LineTotal int64           `json:"line_total"`
	Available bool            `json:"available"`
}

type CartSummary struct {
	TotalItems          int   `json:"total_items"`
	ItemsCount          uint  `json:"items_count"`
	TotalAmount         int64 `json:"total_amount"`
	IsEmpty             bool  `json:"is_empty"`
	HasUnavailableItems bool  `json:"has_unavailable_items"`
}

func (s *CartService) GetOrCreateCart(ctx context.Context, consumerID uint) (*models.Cart, []CartLine, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, consumerID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.lines(ctx, cart.ID)
	if err != nil {
		return nil, nil, err
	}
	return cart, lines, nil
}

// AddProduct merges into an existing line or creates a new one. The combined
// quantity is validated against current stock; a rejection leaves the cart
// untouched.
func (s *CartService) AddProduct(ctx context.Context, consumerID, productID, quantity uint) (*models.CartItem, error) {
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	product, err := s.Repo.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product %d is not active", ErrNotFound, productID)
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, consumerID)
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.CartItemByProduct(ctx, cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	requested := quantity
	if item != nil {
		requested += item.Quantity
	}
	if requested > product.QuantityAvailable {
		return nil, fmt.Errorf("%w: only %d of %q available", ErrInsufficientStock, product.QuantityAvailable, product.Name)
	}

	if item != nil {
		item.Quantity = requested
		if err := s.Repo.SaveCartItem(ctx, item); err != nil {
			return nil, err
		}
		return item, nil
	}

	item = &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
	if err := s.Repo.CreateCartItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity overwrites the line quantity; zero or below deletes the
// line. The returned item is nil when the line was removed.
func (s *CartService) UpdateItemQuantity(ctx context.Context, consumerID, itemID uint, quantity int) (*models.CartItem, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, consumerID)
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.CartItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
		}
		return nil, err
	}

	if quantity <= 0 {
		if err := s.Repo.DeleteCartItem(ctx, item); err != nil {
			return nil, err
		}
		return nil, nil
	}

	product, err := s.Repo.ProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if uint(quantity) > product.QuantityAvailable {
		return nil, fmt.Errorf("%w: only %d of %q available", ErrInsufficientStock, product.QuantityAvailable, product.Name)
	}

	item.Quantity = uint(quantity)
	if err := s.Repo.SaveCartItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, consumerID, itemID uint) error {
	cart, err := s.Repo.GetOrCreateCart(ctx, consumerID)
	if err != nil {
		return err
	}
	item, err := s.Repo.CartItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
		}
		return err
	}
	return s.Repo.DeleteCartItem(ctx, item)
}

func (s *CartService) Clear(ctx context.Context, consumerID uint) error {
	cart, err := s.Repo.GetOrCreateCart(ctx, consumerID)
	if err != nil {
		return err
	}
	return s.Repo.ClearCart(ctx, cart.ID)
}

// Summary recomputes totals against the catalog's current prices and flags
// lines that became unavailable since they were added.
func (s *CartService) Summary(ctx context.Context, consumerID uint) (*CartSummary, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{TotalItems: len(lines), IsEmpty: len(lines) == 0}
	for _, line := range lines {
		summary.ItemsCount += line.Item.Quantity
		summary.TotalAmount += line.LineTotal
		if !line.Available {
			summary.HasUnavailableItems = true
		}
	}
	return summary, nil
}

func (s *CartService) lines(ctx context.Context, cartID uint) ([]CartLine, error) {
	items, err := s.Repo.CartItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []CartLine{}, nil
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		line := CartLine{Item: it}
		if p, ok := products[it.ProductID]; ok {
			line.Name = p.Name
			line.UnitPrice = p.Price
			line.LineTotal = int64(it.Quantity) * p.Price
			line.Available = p.IsActive && p.QuantityAvailable >= it.Quantity
		}
		lines = append(lines, line)
	}
	return lines, nil
}
