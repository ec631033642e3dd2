package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres container. Skipped with -short or
// when no container runtime is available.
func startPostgres(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "greenbite",
				"POSTGRES_PASSWORD": "greenbite",
				"POSTGRES_DB":       "greenbite",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://greenbite:greenbite@%s:%s/greenbite?sslmode=disable", host, port.Port())
	s, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestIntegration_CredentialTables(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	u := domain.User{
		ID: idx.New().String(), Name: "Ann", Email: "ann@x.com", PasswordHash: "hash",
		Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	first := domain.VerificationCode{Email: u.Email, CodeFingerprint: "a", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now}
	require.NoError(t, s.VerificationCodes().UpsertVerificationCode(ctx, first))
	require.NoError(t, s.VerificationCodes().MarkVerificationCodeVerified(ctx, u.Email, "a", now))

	second := first
	second.CodeFingerprint = "b"
	require.NoError(t, s.VerificationCodes().UpsertVerificationCode(ctx, second))

	got, err := s.VerificationCodes().GetVerificationCodeByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, "b", got.CodeFingerprint)
	require.Nil(t, got.VerifiedAt)

	require.NoError(t, s.VerificationCodes().DeleteVerificationCodesByEmail(ctx, u.Email))
	_, err = s.VerificationCodes().GetVerificationCodeByEmail(ctx, u.Email)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestIntegration_CartMerge(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	userID := idx.New().String()
	require.NoError(t, s.Users().CreateUser(ctx, domain.User{
		ID: userID, Name: "Bo", Email: "bo@x.com", PasswordHash: "h", Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now,
	}))
	cat := domain.Category{ID: idx.New().String(), Name: "Fruit", Image: "https://img/fruit.png", CreatedAt: now}
	require.NoError(t, s.Categories().CreateCategory(ctx, cat))
	prod := domain.Product{ID: idx.New().String(), Name: "Apple", Price: 1.5, Image: "https://img/a.png", CategoryID: cat.ID, Stock: 10, CreatedAt: now}
	require.NoError(t, s.Products().CreateProduct(ctx, prod))

	cart, err := s.Carts().EnsureCart(ctx, domain.Cart{ID: idx.New().String(), UserID: userID, CreatedAt: now})
	require.NoError(t, err)
	again, err := s.Carts().EnsureCart(ctx, domain.Cart{ID: idx.New().String(), UserID: userID, CreatedAt: now})
	require.NoError(t, err)
	require.Equal(t, cart.ID, again.ID)

	require.NoError(t, s.Carts().AddCartItem(ctx, domain.CartItem{ID: idx.New().String(), CartID: cart.ID, ProductID: prod.ID, Quantity: 2}))
	require.NoError(t, s.Carts().AddCartItem(ctx, domain.CartItem{ID: idx.New().String(), CartID: cart.ID, ProductID: prod.ID, Quantity: 3}))

	got, err := s.Carts().GetCartByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, 5, got.Items[0].Quantity)
	require.Equal(t, "Apple", got.Items[0].Product.Name)
}
