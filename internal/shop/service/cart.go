package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

// CartService manages per-user carts. Callers may only touch their own
// cart; viewing another user's cart needs CapabilityViewAnyCart.
type CartService struct {
	Store        store.Store
	StoreTimeout time.Duration
}

func (s *CartService) GetCart(ctx context.Context, caller domain.Identity, userID string) (domain.Cart, error) {
	if caller.UserID != userID && !caller.Can(domain.CapabilityViewAnyCart) {
		return domain.Cart{}, ErrForbidden
	}

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	cart, err := s.Store.Carts().GetCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Cart{}, ErrCartNotFound
		}
		return domain.Cart{}, classify("get cart", err)
	}
	return cart, nil
}

// AddItem adds quantity of a product to the caller's cart, creating the
// cart on first use. Adding a product already in the cart sums quantities.
func (s *CartService) AddItem(ctx context.Context, caller domain.Identity, productID string, quantity int) error {
	if quantity < 1 {
		return ErrValidation
	}

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Products().GetProduct(ctx, productID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		cart, err := tx.Carts().EnsureCart(ctx, domain.Cart{
			ID:        idx.New().String(),
			UserID:    caller.UserID,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		return tx.Carts().AddCartItem(ctx, domain.CartItem{
			ID:        idx.New().String(),
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		})
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return err
		}
		return classify("add cart item", err)
	}

	slogx.FromContext(ctx).Debug("cart item added", "product_id", productID, "quantity", quantity)
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, caller domain.Identity, itemID string, quantity int) error {
	if quantity < 1 {
		return ErrValidation
	}

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	if err := s.authorizeItem(ctx, caller, itemID); err != nil {
		return err
	}
	if err := s.Store.Carts().UpdateCartItemQuantity(ctx, itemID, quantity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCartItemNotFound
		}
		return classify("update cart item", err)
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, caller domain.Identity, itemID string) error {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	if err := s.authorizeItem(ctx, caller, itemID); err != nil {
		return err
	}
	if err := s.Store.Carts().DeleteCartItem(ctx, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCartItemNotFound
		}
		return classify("delete cart item", err)
	}
	return nil
}

// authorizeItem checks that itemID sits in the caller's own cart. Items in
// other carts look missing so their ids cannot be guessed.
func (s *CartService) authorizeItem(ctx context.Context, caller domain.Identity, itemID string) error {
	owner, err := s.Store.Carts().GetCartItemOwner(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCartItemNotFound
		}
		return classify("lookup cart item", err)
	}
	if owner.UserID != caller.UserID {
		return ErrCartItemNotFound
	}
	return nil
}
