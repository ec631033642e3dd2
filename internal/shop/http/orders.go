package http

import (
	"net/http"

	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

type OrdersHandler struct {
	OrderService *service.OrderService
}

// ServeHTTP godoc
//
//	@Summary		List the caller's orders
//	@Description	Newest first. Dates are rendered as YYYY-MM-DD.
//	@Tags			Orders
//	@Security		CookieAuth
//	@Produce		json
//	@Success		200	{object}	shopsdk.OrdersResponse
//	@Failure		401	{object}	shopsdk.APIError
//	@Failure		500	{object}	shopsdk.APIError
//	@Router			/api/orders [get]
func (h *OrdersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), identity(r).UserID)
	if err != nil {
		writeServiceError(w, r, "list_orders", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.OrdersResponse{Orders: mapSlice(orders, toOrder)})
}
