package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/internal/shop/store/drivers/sqlite"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mkUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := domain.User{
		ID: idx.New().String(), Name: "Test", Email: email, PasswordHash: "$2a$10$x",
		Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func mkProduct(t *testing.T, s store.Store, name string, price float64) domain.Product {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	cat := domain.Category{ID: idx.New().String(), Name: "cat-" + name, Image: "https://img/c.png", CreatedAt: now}
	require.NoError(t, s.Categories().CreateCategory(ctx, cat))

	p := domain.Product{
		ID: idx.New().String(), Name: name, Price: price, Image: "https://img/p.png",
		CategoryID: cat.ID, Stock: 5, CreatedAt: now,
	}
	require.NoError(t, s.Products().CreateProduct(ctx, p))
	return p
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := mkUser(t, s, "ann@x.com")

	t.Run("lookup by email is exact", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, "ann@x.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, domain.RoleUser, got.Role)
		require.Nil(t, got.ProfileImageURL)

		_, err = s.Users().GetUserByEmail(ctx, "ANN@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := u
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("update password and image", func(t *testing.T) {
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$2a$10$new", time.Now()))
		require.NoError(t, s.Users().UpdateProfileImageURL(ctx, u.ID, "https://cdn/u.png", time.Now()))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "$2a$10$new", got.PasswordHash)
		require.NotNil(t, got.ProfileImageURL)
		require.Equal(t, "https://cdn/u.png", *got.ProfileImageURL)

		require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, "ghost", "h", time.Now()), store.ErrNotFound)
	})
}

func TestVerificationCodes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	repo := s.VerificationCodes()
	now := time.Now().UTC()

	_, err := repo.GetVerificationCodeByEmail(ctx, "ann@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	first := domain.VerificationCode{Email: "ann@x.com", CodeFingerprint: "one", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now}
	require.NoError(t, repo.UpsertVerificationCode(ctx, first))
	require.NoError(t, repo.MarkVerificationCodeVerified(ctx, "ann@x.com", "one", now))

	got, err := repo.GetVerificationCodeByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	require.True(t, got.Verified())
	require.WithinDuration(t, first.ExpiresAt, got.ExpiresAt, time.Millisecond)

	// A replacement supersedes the code and clears the verification mark.
	second := first
	second.CodeFingerprint = "two"
	require.NoError(t, repo.UpsertVerificationCode(ctx, second))

	got, err = repo.GetVerificationCodeByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	require.Equal(t, "two", got.CodeFingerprint)
	require.False(t, got.Verified())

	// Marking with a stale fingerprint touches nothing.
	require.ErrorIs(t, repo.MarkVerificationCodeVerified(ctx, "ann@x.com", "one", now), store.ErrNotFound)

	require.NoError(t, repo.DeleteVerificationCodesByEmail(ctx, "ann@x.com"))
	require.NoError(t, repo.DeleteVerificationCodesByEmail(ctx, "ann@x.com"))
	_, err = repo.GetVerificationCodeByEmail(ctx, "ann@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerificationCodes_DeleteExpired(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	repo := s.VerificationCodes()
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertVerificationCode(ctx, domain.VerificationCode{
		Email: "old@x.com", CodeFingerprint: "a", ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.UpsertVerificationCode(ctx, domain.VerificationCode{
		Email: "new@x.com", CodeFingerprint: "b", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	n, err := repo.DeleteExpiredVerificationCodes(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = repo.GetVerificationCodeByEmail(ctx, "new@x.com")
	require.NoError(t, err)
}

func TestCatalog(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, name := range []string{"Vegetables", "Bakery", "Fruit"} {
		require.NoError(t, s.Categories().CreateCategory(ctx, domain.Category{
			ID: idx.New().String(), Name: name, Image: "https://img/" + name, CreatedAt: now,
		}))
	}

	cats, err := s.Categories().ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	require.Equal(t, []string{"Bakery", "Fruit", "Vegetables"}, []string{cats[0].Name, cats[1].Name, cats[2].Name})

	err = s.Categories().CreateCategory(ctx, domain.Category{ID: idx.New().String(), Name: "Fruit", Image: "x", CreatedAt: now})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	desc := "crunchy"
	p := domain.Product{
		ID: idx.New().String(), Name: "Apple", Description: &desc, Price: 1.25, Image: "https://img/a",
		CategoryID: cats[1].ID, Stock: 3, CreatedAt: now,
	}
	require.NoError(t, s.Products().CreateProduct(ctx, p))

	got, err := s.Products().GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "crunchy", *got.Description)
	require.InDelta(t, 1.25, got.Price, 1e-9)
	require.NotNil(t, got.Category)
	require.Equal(t, "Fruit", got.Category.Name)

	list, err := s.Products().ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Category)

	byCat, err := s.Products().ListProductsByCategory(ctx, cats[1].ID)
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	require.Nil(t, byCat[0].Category)

	_, err = s.Products().GetProduct(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	orphan := p
	orphan.ID = idx.New().String()
	orphan.CategoryID = "no-such-category"
	require.ErrorIs(t, s.Products().CreateProduct(ctx, orphan), store.ErrNotFound)
}

func TestCarts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := mkUser(t, s, "cart@x.com")
	apple := mkProduct(t, s, "Apple", 1.5)
	pear := mkProduct(t, s, "Pear", 2)

	_, err := s.Carts().GetCartByUser(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	cart, err := s.Carts().EnsureCart(ctx, domain.Cart{ID: idx.New().String(), UserID: u.ID, CreatedAt: time.Now()})
	require.NoError(t, err)
	same, err := s.Carts().EnsureCart(ctx, domain.Cart{ID: idx.New().String(), UserID: u.ID, CreatedAt: time.Now()})
	require.NoError(t, err)
	require.Equal(t, cart.ID, same.ID)

	add := func(p domain.Product, qty int) {
		require.NoError(t, s.Carts().AddCartItem(ctx, domain.CartItem{ID: idx.New().String(), CartID: cart.ID, ProductID: p.ID, Quantity: qty}))
	}
	add(apple, 2)
	add(apple, 3)
	add(pear, 1)

	got, err := s.Carts().GetCartByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	qty := map[string]int{}
	var appleItem string
	for _, it := range got.Items {
		qty[it.Product.Name] = it.Quantity
		if it.ProductID == apple.ID {
			appleItem = it.ID
		}
	}
	require.Equal(t, map[string]int{"Apple": 5, "Pear": 1}, qty)

	owner, err := s.Carts().GetCartItemOwner(ctx, appleItem)
	require.NoError(t, err)
	require.Equal(t, u.ID, owner.UserID)

	require.NoError(t, s.Carts().UpdateCartItemQuantity(ctx, appleItem, 9))
	require.NoError(t, s.Carts().DeleteCartItem(ctx, appleItem))
	require.ErrorIs(t, s.Carts().DeleteCartItem(ctx, appleItem), store.ErrNotFound)
	require.ErrorIs(t, s.Carts().UpdateCartItemQuantity(ctx, appleItem, 1), store.ErrNotFound)

	got, err = s.Carts().GetCartByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
}

func TestOrders(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := mkUser(t, s, "orders@x.com")
	other := mkUser(t, s, "other@x.com")
	apple := mkProduct(t, s, "Apple", 1.5)

	older := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)

	mkOrder := func(userID string, at time.Time, qty int) domain.Order {
		o := domain.Order{
			ID: idx.NewAt(at).String(), UserID: userID, Status: domain.OrderPending, Total: 1.5 * float64(qty),
			DeliveryAddress: "1 Main St", PaymentMethod: "card", CreatedAt: at,
			Items: []domain.OrderItem{{ID: idx.New().String(), ProductID: apple.ID, Quantity: qty, Price: 1.5}},
		}
		require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error { return tx.Orders().CreateOrder(ctx, o) }))
		return o
	}
	first := mkOrder(u.ID, older, 1)
	second := mkOrder(u.ID, newer, 2)
	mkOrder(other.ID, newer, 4)

	orders, err := s.Orders().ListOrdersByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, second.ID, orders[0].ID)
	require.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[0].Items, 1)
	require.Equal(t, "Apple", orders[0].Items[0].ProductName)
	require.Equal(t, 2, orders[0].Items[0].Quantity)

	none, err := s.Orders().ListOrdersByUser(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}
