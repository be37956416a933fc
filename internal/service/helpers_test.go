package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
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

	return &repo.GormRepo{DB: db}
}

func createProduct(t *testing.T, r *repo.GormRepo, producerID uint, name string, price int64, stock uint) *models.Product {
	t.Helper()

	p := &models.Product{
		ProducerID:        producerID,
		Name:              name,
		Price:             price,
		QuantityAvailable: stock,
		IsActive:          true,
	}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}
