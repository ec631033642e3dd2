package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.svc.Store

	catalog := NewCatalogService(st, 0)
	cat, err := catalog.CreateCategory(ctx, CategoryInput{Name: "Bakery", Image: "https://img/b.png"})
	require.NoError(t, err)
	bread, err := catalog.CreateProduct(ctx, ProductInput{
		Name: "Bread", Price: 3, Image: "https://img/b.png", CategoryID: cat.ID, Stock: 4,
	})
	require.NoError(t, err)

	ann := seedUser(t, f, "ann@x.com", domain.RoleUser)

	older := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	for _, at := range []time.Time{older, newer} {
		orderID := idx.NewAt(at).String()
		require.NoError(t, st.Orders().CreateOrder(ctx, domain.Order{
			ID: orderID, UserID: ann.UserID, Status: domain.OrderPending, Total: 6,
			DeliveryAddress: "1 Street", PaymentMethod: "card", CreatedAt: at,
			Items: []domain.OrderItem{{
				ID: idx.New().String(), OrderID: orderID, ProductID: bread.ID, Quantity: 2, Price: 3,
			}},
		}))
	}

	svc := &OrderService{Store: st}
	orders, err := svc.ListOrders(ctx, ann.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "2024-03-03", orders[0].CreatedAt.Format(OrderDateLayout))
	assert.Equal(t, "2024-03-01", orders[1].CreatedAt.Format(OrderDateLayout))
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Bread", orders[0].Items[0].ProductName)

	none, err := svc.ListOrders(ctx, idx.New().String())
	require.NoError(t, err)
	assert.Empty(t, none)
}
