package shopsdk

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.call(ctx, http.MethodGet, "/api/categories", nil, &out, http.StatusOK)
	return out, err
}

func (c *Client) GetCategory(ctx context.Context, id string) (*Category, error) {
	var out Category
	if err := c.call(ctx, http.MethodGet, "/api/categories/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	var out Category
	if err := c.call(ctx, http.MethodPost, "/api/categories", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.call(ctx, http.MethodGet, "/api/products", nil, &out, http.StatusOK)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.call(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProductDetails uses the detail route, which omits the category.
func (c *Client) GetProductDetails(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.call(ctx, http.MethodGet, "/api/productdetails/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	var out Product
	if err := c.call(ctx, http.MethodPost, "/api/products", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCart(ctx context.Context, userID string) (*Cart, error) {
	var out Cart
	if err := c.call(ctx, http.MethodGet, "/api/cart/"+url.PathEscape(userID), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, req AddCartItemRequest) (*MessageResponse, error) {
	return c.message(ctx, http.MethodPost, "/api/cart/add", req)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*MessageResponse, error) {
	return c.message(ctx, http.MethodPatch, "/api/cart/"+url.PathEscape(itemID), UpdateCartItemRequest{Quantity: quantity})
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID string) (*MessageResponse, error) {
	return c.message(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(itemID), nil)
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out OrdersResponse
	if err := c.call(ctx, http.MethodGet, "/api/orders", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
