package sqlrepo

import (
	"context"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
)

type cartsRepo struct {
	db DBTX
	d  Dialect
}

func (r *cartsRepo) getCart(ctx context.Context, userID string) (domain.Cart, error) {
	var c domain.Cart
	err := r.db.QueryRowContext(ctx,
		r.d.Rebind(`SELECT id, user_id, created_at FROM carts WHERE user_id = ?`), userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		return domain.Cart{}, r.d.mapErr(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.Items = []domain.CartItem{}
	return c, nil
}

func (r *cartsRepo) GetCartByUser(ctx context.Context, userID string) (domain.Cart, error) {
	c, err := r.getCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(`
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, `+productColumns+`
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.id ASC`), c.ID)
	if err != nil {
		return domain.Cart{}, r.d.mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item domain.CartItem
			s    productScanner
		)
		targets := append([]any{&item.ID, &item.CartID, &item.ProductID, &item.Quantity}, s.targets(false)...)
		if err := rows.Scan(targets...); err != nil {
			return domain.Cart{}, err
		}
		p := s.product(false)
		item.Product = &p
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

func (r *cartsRepo) EnsureCart(ctx context.Context, c domain.Cart) (domain.Cart, error) {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO carts (id, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`),
		c.ID, c.UserID, c.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.Cart{}, r.d.mapErr(err)
	}
	return r.getCart(ctx, c.UserID)
}

func (r *cartsRepo) AddCartItem(ctx context.Context, item domain.CartItem) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO cart_items (id, cart_id, product_id, quantity) VALUES (?, ?, ?, ?)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + excluded.quantity`),
		item.ID, item.CartID, item.ProductID, item.Quantity,
	)
	return r.d.mapErr(err)
}

func (r *cartsRepo) GetCartItemOwner(ctx context.Context, itemID string) (domain.CartItemOwner, error) {
	var o domain.CartItemOwner
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`
		SELECT ci.id, c.user_id
		FROM cart_items ci JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = ?`), itemID,
	).Scan(&o.ItemID, &o.UserID)
	return o, r.d.mapErr(err)
}

func (r *cartsRepo) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`UPDATE cart_items SET quantity = ? WHERE id = ?`), quantity, itemID)
	return r.d.mapErr(mustAffect(res, err))
}

func (r *cartsRepo) DeleteCartItem(ctx context.Context, itemID string) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM cart_items WHERE id = ?`), itemID)
	return r.d.mapErr(mustAffect(res, err))
}
