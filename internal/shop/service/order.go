package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
)

// OrderDateLayout renders an order's creation date.
const OrderDateLayout = "2006-01-02"

type OrderService struct {
	Store        store.Store
	StoreTimeout time.Duration
}

// ListOrders returns the user's orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	orders, err := s.Store.Orders().ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, classify("list orders", err)
	}
	return orders, nil
}
