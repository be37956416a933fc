package models

import (
	"time"
)

// Roles carried on User.Role.
const (
	RoleConsumer = "consumer"
	RoleProducer = "producer"
	RoleStaff    = "staff"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	Username     string    `gorm:"not null"                 json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null"                 json:"role"`
	IsActive     bool      `gorm:"default:true"             json:"is_active"`
	IsVerified   bool      `gorm:"default:false"            json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProducerProfile exists for every user with the producer role. Its ID is
// the producer reference frozen onto OrderItem rows.
type ProducerProfile struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null"     json:"user_id"`
	FarmName  string    `json:"farm_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is catalog state. Price is in minor currency units.
type Product struct {
	ID                uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProducerID        uint   `gorm:"index;not null"           json:"producer_id"`
	Name              string `gorm:"not null"                 json:"name"`
	Description       string `json:"description"`
	Price             int64  `gorm:"not null"                 json:"price"`
	QuantityAvailable uint   `gorm:"not null;default:0"       json:"quantity_available"`
	IsActive          bool   `gorm:"default:true"             json:"is_active"`
}

// Cart is lazily created, one per consumer. The row survives clearing.
type Cart struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ConsumerID uint       `gorm:"uniqueIndex;not null"     json:"consumer_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Items      []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"              json:"id"`
	CartID    uint `gorm:"uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	ProductID uint `gorm:"uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Quantity  uint `gorm:"not null;check:quantity>0"             json:"quantity"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Order statuses.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Order is an immutable snapshot of a cart at checkout. TotalAmount is
// computed once at creation and never recomputed.
type Order struct {
	ID              uint                 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string               `gorm:"uniqueIndex;not null"     json:"order_number"`
	ConsumerID      uint                 `gorm:"index;not null"           json:"consumer_id"`
	OrderDate       time.Time            `gorm:"not null"                 json:"order_date"`
	Status          string               `gorm:"not null"                 json:"status"`
	TotalAmount     int64                `gorm:"not null"                 json:"total_amount"`
	ShippingAddress string               `json:"shipping_address"`
	PaymentMethod   string               `json:"payment_method"`
	Items           []OrderItem          `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	StatusHistory   []OrderStatusHistory `gorm:"constraint:OnDelete:CASCADE" json:"status_history,omitempty"`
}

// OrderItem copies product, producer, quantity and unit price so historical
// orders are unaffected by later catalog changes.
type OrderItem struct {
	ID         uint  `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID    uint  `gorm:"index;not null"            json:"order_id"`
	ProductID  uint  `gorm:"not null"                  json:"product_id"`
	ProducerID uint  `gorm:"index;not null"            json:"producer_id"`
	Quantity   uint  `gorm:"not null;check:quantity>0" json:"quantity"`
	UnitPrice  int64 `gorm:"not null"                  json:"unit_price"`
	TotalPrice int64 `gorm:"not null"                  json:"total_price"`
}

// OrderStatusHistory is append-only; one row per transition.
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint      `gorm:"index;not null"           json:"order_id"`
	Status    string    `gorm:"not null"                 json:"status"`
	ActorID   uint      `gorm:"not null"                 json:"actor_id"`
	ActorRole string    `gorm:"not null"                 json:"actor_role"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}
