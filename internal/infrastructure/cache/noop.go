package cache

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

// NoopStockCache se usa cuando no hay Redis configurado: nunca acierta.
type NoopStockCache struct{}

func (NoopStockCache) GetStockOnHand(context.Context, string) ([]repository.StockOnHandResult, bool, error) {
	return nil, false, nil
}

func (NoopStockCache) Generation(context.Context, string) (int64, error) { return 0, nil }

func (NoopStockCache) SetStockOnHand(context.Context, string, int64, []repository.StockOnHandResult) error {
	return nil
}

func (NoopStockCache) Invalidate(context.Context, ...string) error { return nil }
