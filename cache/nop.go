package cache

import (
	"context"

	"Pedalize/models"
)

// 未啟用Redis時使用，永遠回傳ErrCacheMiss
type NopCache struct{}

func NewNopCache() NopCache {
	return NopCache{}
}

func (NopCache) GetProducts(context.Context, string) ([]models.Product, error) {
	return nil, ErrCacheMiss
}

func (NopCache) SetProducts(context.Context, string, []models.Product) error {
	return nil
}

func (NopCache) GetProduct(context.Context, string) (*models.Product, error) {
	return nil, ErrCacheMiss
}

func (NopCache) SetProduct(context.Context, *models.Product) error {
	return nil
}

func (NopCache) Invalidate(context.Context) error {
	return nil
}
