package http

import (
	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

func toUser(u domain.User) shopsdk.User {
	return shopsdk.User{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}

func toCategory(c domain.Category) shopsdk.Category {
	out := shopsdk.Category{
		ID:        c.ID,
		Name:      c.Name,
		Image:     c.Image,
		CreatedAt: c.CreatedAt,
	}
	if c.Products != nil {
		out.Products = make([]shopsdk.Product, 0, len(c.Products))
		for _, p := range c.Products {
			out.Products = append(out.Products, toProduct(p))
		}
	}
	return out
}

func toProduct(p domain.Product) shopsdk.Product {
	out := shopsdk.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
	if p.Category != nil {
		c := toCategory(*p.Category)
		out.Category = &c
	}
	return out
}

func toCart(c domain.Cart) shopsdk.Cart {
	out := shopsdk.Cart{
		ID:     c.ID,
		UserID: c.UserID,
		Items:  make([]shopsdk.CartItem, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		item := shopsdk.CartItem{
			ID:        it.ID,
			CartID:    it.CartID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
		if it.Product != nil {
			p := toProduct(*it.Product)
			item.Product = &p
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func toOrder(o domain.Order) shopsdk.Order {
	out := shopsdk.Order{
		ID:              o.ID,
		Status:          string(o.Status),
		Total:           o.Total,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
		Date:            o.CreatedAt.Format(service.OrderDateLayout),
		Items:           make([]shopsdk.OrderItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, shopsdk.OrderItem{
			ID:       it.ID,
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return out
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
