package http

import (
	"net/http"

	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

type CartHandler struct {
	CartService *service.CartService
}

// HandleGetCart godoc
//
//	@Summary		Get a user's cart
//	@Description	Callers may read their own cart; admins may read any cart.
//	@Tags			Cart
//	@Security		CookieAuth
//	@Produce		json
//	@Param			userId	path		string	true	"User ID"
//	@Success		200		{object}	shopsdk.Cart
//	@Failure		401		{object}	shopsdk.APIError
//	@Failure		403		{object}	shopsdk.APIError
//	@Failure		404		{object}	shopsdk.APIError
//	@Router			/api/cart/{userId} [get]
func (h *CartHandler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", errCartNotFound)
	if !ok {
		return
	}
	cart, err := h.CartService.GetCart(r.Context(), identity(r), userID)
	if err != nil {
		writeServiceError(w, r, "get_cart", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCart(cart))
}

// HandleAddItem godoc
//
//	@Summary	Add a product to the caller's cart
//	@Tags		Cart
//	@Security	CookieAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		shopsdk.AddCartItemRequest	true	"productId, quantity"
//	@Success	200		{object}	shopsdk.MessageResponse
//	@Failure	400		{object}	shopsdk.APIError
//	@Failure	401		{object}	shopsdk.APIError
//	@Failure	403		{object}	shopsdk.APIError	"userId is not the caller"
//	@Failure	404		{object}	shopsdk.APIError	"product not found"
//	@Router		/api/cart/add [post]
func (h *CartHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.AddCartItemRequest
	if !decode(w, r, &req) {
		return
	}

	caller := identity(r)
	if req.UserID != "" && req.UserID != caller.UserID {
		shopsdk.ErrForbidden.WriteError(w)
		return
	}

	if err := h.CartService.AddItem(r.Context(), caller, req.ProductID, req.Quantity); err != nil {
		writeServiceError(w, r, "add_cart_item", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "Item added to cart"})
}

// HandleUpdateItem godoc
//
//	@Summary	Change a cart item's quantity
//	@Tags		Cart
//	@Security	CookieAuth
//	@Accept		json
//	@Produce	json
//	@Param		itemId	path		string							true	"Cart item ID"
//	@Param		body	body		shopsdk.UpdateCartItemRequest	true	"quantity"
//	@Success	200		{object}	shopsdk.MessageResponse
//	@Failure	400		{object}	shopsdk.APIError
//	@Failure	401		{object}	shopsdk.APIError
//	@Failure	404		{object}	shopsdk.APIError
//	@Router		/api/cart/{itemId} [patch]
func (h *CartHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemId", errCartItemNotFound)
	if !ok {
		return
	}
	var req shopsdk.UpdateCartItemRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.CartService.UpdateQuantity(r.Context(), identity(r), itemID, req.Quantity); err != nil {
		writeServiceError(w, r, "update_cart_item", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "Quantity updated"})
}

// HandleRemoveItem godoc
//
//	@Summary	Remove a cart item
//	@Tags		Cart
//	@Security	CookieAuth
//	@Produce	json
//	@Param		itemId	path		string	true	"Cart item ID"
//	@Success	200		{object}	shopsdk.MessageResponse
//	@Failure	401		{object}	shopsdk.APIError
//	@Failure	404		{object}	shopsdk.APIError
//	@Router		/api/cart/{itemId} [delete]
func (h *CartHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemId", errCartItemNotFound)
	if !ok {
		return
	}
	if err := h.CartService.RemoveItem(r.Context(), identity(r), itemID); err != nil {
		writeServiceError(w, r, "remove_cart_item", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "Item removed"})
}
