package sqlrepo

import (
	"context"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
)

type ordersRepo struct {
	db DBTX
	d  Dialect
}

func (r *ordersRepo) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(`
		SELECT id, user_id, status, total, delivery_address, payment_method, created_at
		FROM orders WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`), userID)
	if err != nil {
		return nil, r.d.mapErr(err)
	}

	orders := []domain.Order{}
	index := map[string]int{}
	for rows.Next() {
		var (
			o      domain.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.Total, &o.DeliveryAddress, &o.PaymentMethod, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		o.Status = domain.OrderStatus(status)
		o.CreatedAt = o.CreatedAt.UTC()
		o.Items = []domain.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.db.QueryContext(ctx, r.d.Rebind(`
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.user_id = ?
		ORDER BY oi.id ASC`), userID)
	if err != nil {
		return nil, r.d.mapErr(err)
	}
	defer items.Close()

	for items.Next() {
		var it domain.OrderItem
		if err := items.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return orders, items.Err()
}

func (r *ordersRepo) CreateOrder(ctx context.Context, o domain.Order) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO orders (id, user_id, status, total, delivery_address, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		o.ID, o.UserID, string(o.Status), o.Total, o.DeliveryAddress, o.PaymentMethod, o.CreatedAt.UTC(),
	)
	if err != nil {
		return r.d.mapErr(err)
	}

	for _, it := range o.Items {
		_, err := r.db.ExecContext(ctx, r.d.Rebind(`
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES (?, ?, ?, ?, ?)`),
			it.ID, o.ID, it.ProductID, it.Quantity, it.Price,
		)
		if err != nil {
			return r.d.mapErr(err)
		}
	}
	return nil
}
