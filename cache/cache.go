package cache

import (
	"context"
	"errors"
	"fmt"

	"Pedalize/models"
)

// 商品目錄快取，目錄寫入時整體失效
type ProductCache interface {
	GetProducts(ctx context.Context, key string) ([]models.Product, error)
	SetProducts(ctx context.Context, key string, products []models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "product:"

func AllProductsKey() string {
	return keyPrefix + "all"
}

func PageKey(page int) string {
	return fmt.Sprintf("%spage:%d", keyPrefix, page)
}

// 商品ID另開命名空間，避免與all、page:N撞名
func productKey(id string) string {
	return keyPrefix + "id:" + id
}
