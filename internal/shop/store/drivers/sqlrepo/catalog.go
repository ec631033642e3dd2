package sqlrepo

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
)

type categoriesRepo struct {
	db DBTX
	d  Dialect
}

func (r *categoriesRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, image, created_at FROM categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.d.mapErr(err)
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Image, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *categoriesRepo) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		r.d.Rebind(`SELECT id, name, image, created_at FROM categories WHERE id = ?`), id,
	).Scan(&c.ID, &c.Name, &c.Image, &c.CreatedAt)
	if err != nil {
		return domain.Category{}, r.d.mapErr(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func (r *categoriesRepo) CreateCategory(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		r.d.Rebind(`INSERT INTO categories (id, name, image, created_at) VALUES (?, ?, ?, ?)`),
		c.ID, c.Name, c.Image, c.CreatedAt.UTC(),
	)
	return r.d.mapErr(err)
}

type productsRepo struct {
	db DBTX
	d  Dialect
}

const productColumns = `p.id, p.name, p.description, p.price, p.image, p.category_id, p.stock, p.created_at`

// productScanner binds a product (and optionally its category) to scan targets.
type productScanner struct {
	p    domain.Product
	desc sql.NullString
	c    domain.Category
}

func (s *productScanner) targets(withCategory bool) []any {
	t := []any{&s.p.ID, &s.p.Name, &s.desc, &s.p.Price, &s.p.Image, &s.p.CategoryID, &s.p.Stock, &s.p.CreatedAt}
	if withCategory {
		t = append(t, &s.c.ID, &s.c.Name, &s.c.Image, &s.c.CreatedAt)
	}
	return t
}

func (s *productScanner) product(withCategory bool) domain.Product {
	p := s.p
	p.Description = stringPtr(s.desc)
	p.CreatedAt = p.CreatedAt.UTC()
	if withCategory {
		c := s.c
		c.CreatedAt = c.CreatedAt.UTC()
		p.Category = &c
	}
	return p
}

func (r *productsRepo) list(ctx context.Context, withCategory bool, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, r.d.mapErr(err)
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		var s productScanner
		if err := rows.Scan(s.targets(withCategory)...); err != nil {
			return nil, err
		}
		out = append(out, s.product(withCategory))
	}
	return out, rows.Err()
}

func (r *productsRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, true, `
		SELECT `+productColumns+`, c.id, c.name, c.image, c.created_at
		FROM products p JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at ASC, p.id ASC`)
}

func (r *productsRepo) ListProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return r.list(ctx, false, `
		SELECT `+productColumns+`
		FROM products p WHERE p.category_id = ?
		ORDER BY p.created_at ASC, p.id ASC`, categoryID)
}

func (r *productsRepo) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var s productScanner
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`
		SELECT `+productColumns+`, c.id, c.name, c.image, c.created_at
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`), id,
	).Scan(s.targets(true)...)
	if err != nil {
		return domain.Product{}, r.d.mapErr(err)
	}
	return s.product(true), nil
}

func (r *productsRepo) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO products (id, name, description, price, image, category_id, stock, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, nullString(p.Description), p.Price, p.Image, p.CategoryID, p.Stock, p.CreatedAt.UTC(),
	)
	return r.d.mapErr(err)
}
