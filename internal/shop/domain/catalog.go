package domain

import "time"

type Category struct {
	ID        string
	Name      string
	Image     string
	CreatedAt time.Time

	// Products is only populated by single-category lookups.
	Products []Product
}

type Product struct {
	ID          string
	Name        string
	Description *string
	Price       float64
	Image       string
	CategoryID  string
	Stock       int
	CreatedAt   time.Time

	Category *Category
}
