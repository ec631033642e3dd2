package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Repositories hang off it so a Tx can hand out the same
// repositories bound to the transaction.
type Store interface {
	Users() Users
	VerificationCodes() VerificationCodes
	Categories() Categories
	Products() Products
	Carts() Carts
	Orders() Orders

	ApplyMigrations() error

	// WithTx runs fn in a read/write transaction. fn returning an error rolls
	// back, nil commits.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store. Nested WithTx calls on a Tx reuse it.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches the email exactly as stored.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u. A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the bcrypt hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error

	// UpdateProfileImageURL sets the profile image reference.
	UpdateProfileImageURL(ctx context.Context, userID, url string, at time.Time) error
}

type VerificationCodes interface {
	// UpsertVerificationCode creates or replaces the code for v.Email in one
	// statement and clears any earlier verification mark.
	UpsertVerificationCode(ctx context.Context, v domain.VerificationCode) error

	GetVerificationCodeByEmail(ctx context.Context, email string) (domain.VerificationCode, error)

	// MarkVerificationCodeVerified stamps verified_at on the row whose
	// fingerprint still matches, so a concurrently replaced code is untouched.
	MarkVerificationCodeVerified(ctx context.Context, email, fingerprint string, at time.Time) error

	// DeleteVerificationCodesByEmail removes every code for email. Missing
	// rows are not an error.
	DeleteVerificationCodesByEmail(ctx context.Context, email string) error

	// DeleteExpiredVerificationCodes purges rows that expired before cutoff
	// and returns how many were removed.
	DeleteExpiredVerificationCodes(ctx context.Context, cutoff time.Time) (int64, error)
}

type Categories interface {
	// ListCategories returns categories ordered by name ascending.
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) error
}

type Products interface {
	// ListProducts returns every product with its category attached.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// ListProductsByCategory returns a category's products without the category.
	ListProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) error
}

type Carts interface {
	// GetCartByUser returns the user's cart with items and their products.
	GetCartByUser(ctx context.Context, userID string) (domain.Cart, error)

	// EnsureCart returns the user's cart, creating an empty one when absent.
	EnsureCart(ctx context.Context, c domain.Cart) (domain.Cart, error)

	// AddCartItem inserts the item or adds its quantity to the existing row
	// for the same (cart, product) pair in one statement.
	AddCartItem(ctx context.Context, item domain.CartItem) error

	// GetCartItemOwner resolves which user's cart holds itemID.
	GetCartItemOwner(ctx context.Context, itemID string) (domain.CartItemOwner, error)

	UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteCartItem(ctx context.Context, itemID string) error
}

type Orders interface {
	// ListOrdersByUser returns the user's orders newest first, items
	// included with their product names.
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// CreateOrder inserts o and its items.
	CreateOrder(ctx context.Context, o domain.Order) error
}
