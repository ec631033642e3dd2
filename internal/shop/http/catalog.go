package http

import (
	"net/http"

	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

type CatalogHandler struct {
	CatalogService *service.CatalogService
}

// HandleListCategories godoc
//
//	@Summary	List categories
//	@Tags		Catalog
//	@Produce	json
//	@Success	200	{array}		shopsdk.Category
//	@Failure	500	{object}	shopsdk.APIError
//	@Router		/api/categories [get]
func (h *CatalogHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.CatalogService.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, "list_categories", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mapSlice(cats, toCategory))
}

// HandleGetCategory godoc
//
//	@Summary	Get a category with its products
//	@Tags		Catalog
//	@Produce	json
//	@Param		id	path		string	true	"Category ID"
//	@Success	200	{object}	shopsdk.Category
//	@Failure	404	{object}	shopsdk.APIError
//	@Router		/api/categories/{id} [get]
func (h *CatalogHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", errCategoryNotFound)
	if !ok {
		return
	}
	cat, err := h.CatalogService.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get_category", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCategory(cat))
}

// HandleCreateCategory godoc
//
//	@Summary	Create a category
//	@Tags		Catalog
//	@Security	CookieAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		shopsdk.CreateCategoryRequest	true	"name, image"
//	@Success	201		{object}	shopsdk.Category
//	@Failure	400		{object}	shopsdk.APIError
//	@Failure	401		{object}	shopsdk.APIError
//	@Failure	403		{object}	shopsdk.APIError
//	@Router		/api/categories [post]
func (h *CatalogHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.CreateCategoryRequest
	if !decode(w, r, &req) {
		return
	}

	cat, err := h.CatalogService.CreateCategory(r.Context(), service.CategoryInput{
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		writeServiceError(w, r, "create_category", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toCategory(cat))
}

// HandleListProducts godoc
//
//	@Summary	List products with their categories
//	@Tags		Catalog
//	@Produce	json
//	@Success	200	{array}		shopsdk.Product
//	@Failure	500	{object}	shopsdk.APIError
//	@Router		/api/products [get]
func (h *CatalogHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.CatalogService.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, "list_products", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mapSlice(products, toProduct))
}

// HandleGetProduct godoc
//
//	@Summary	Get a product with its category
//	@Tags		Catalog
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	shopsdk.Product
//	@Failure	404	{object}	shopsdk.APIError
//	@Router		/api/products/{id} [get]
func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", errProductNotFound)
	if !ok {
		return
	}
	p, err := h.CatalogService.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get_product", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProduct(p))
}

// HandleGetProductDetails serves the bare product without its category.
//
//	@Summary	Get product details
//	@Tags		Catalog
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	shopsdk.Product
//	@Failure	404	{object}	shopsdk.APIError
//	@Router		/api/productdetails/{id} [get]
func (h *CatalogHandler) HandleGetProductDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", errProductNotFound)
	if !ok {
		return
	}
	p, err := h.CatalogService.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get_product_details", err)
		return
	}
	p.Category = nil
	httpx.WriteJSON(w, http.StatusOK, toProduct(p))
}

// HandleCreateProduct godoc
//
//	@Summary	Create a product
//	@Tags		Catalog
//	@Security	CookieAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		shopsdk.CreateProductRequest	true	"product"
//	@Success	201		{object}	shopsdk.Product
//	@Failure	400		{object}	shopsdk.APIError
//	@Failure	401		{object}	shopsdk.APIError
//	@Failure	403		{object}	shopsdk.APIError
//	@Failure	404		{object}	shopsdk.APIError	"category not found"
//	@Router		/api/products [post]
func (h *CatalogHandler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.CreateProductRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.CatalogService.CreateProduct(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
	})
	if err != nil {
		writeServiceError(w, r, "create_product", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toProduct(p))
}
