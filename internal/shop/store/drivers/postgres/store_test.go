package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

var userCols = []string{"id", "name", "email", "password_hash", "role", "profile_image_url", "created_at", "updated_at"}

func TestUsers_GetUserByEmail(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "Ann", "ann@x.com", "$2a$10$hash", "USER", nil, now, now))

	u, err := s.Users().GetUserByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, domain.RoleUser, u.Role)
	require.Nil(t, u.ProfileImageURL)
	require.Equal(t, now, u.CreatedAt)
}

func TestUsers_GetUserByID_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Users().GetUserByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_CreateUser_DuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "Ann", "ann@x.com", "hash", "USER", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := s.Users().CreateUser(context.Background(), domain.User{
		ID: "u1", Name: "Ann", Email: "ann@x.com", PasswordHash: "hash", Role: domain.RoleUser,
		CreatedAt: now, UpdatedAt: now,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_UpdatePasswordHash_NoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE users SET password_hash = \$1, updated_at = \$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Users().UpdatePasswordHash(context.Background(), "ghost", "hash", time.Now())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerificationCodes_UpsertIsSingleStatement(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO verification_codes .* ON CONFLICT \(email\) DO UPDATE SET`).
		WithArgs("ann@x.com", "fp", now.Add(10*time.Minute), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.VerificationCodes().UpsertVerificationCode(context.Background(), domain.VerificationCode{
		Email: "ann@x.com", CodeFingerprint: "fp", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now,
	})
	require.NoError(t, err)
}

func TestVerificationCodes_DeleteExpired(t *testing.T) {
	s, mock := newMockStore(t)
	cutoff := time.Now().UTC()

	mock.ExpectExec(`DELETE FROM verification_codes WHERE expires_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.VerificationCodes().DeleteExpiredVerificationCodes(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestCarts_AddCartItemMergesQuantity(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO cart_items .* ON CONFLICT \(cart_id, product_id\) DO UPDATE SET\s+quantity = cart_items.quantity \+ excluded.quantity`).
		WithArgs("i1", "c1", "p1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Carts().AddCartItem(context.Background(), domain.CartItem{ID: "i1", CartID: "c1", ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
}

func TestCarts_AddCartItem_UnknownProduct(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO cart_items`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := s.Carts().AddCartItem(context.Background(), domain.CartItem{ID: "i1", CartID: "c1", ProductID: "nope", Quantity: 1})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM verification_codes WHERE email = \$1`).
			WithArgs("ann@x.com").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := s.WithTx(context.Background(), func(tx store.Tx) error {
			return tx.VerificationCodes().DeleteVerificationCodesByEmail(context.Background(), "ann@x.com")
		})
		require.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := s.WithTx(context.Background(), func(store.Tx) error { return boom })
		require.ErrorIs(t, err, boom)
	})
}

func TestApplyMigrations(t *testing.T) {
	s, _ := newMockStore(t)

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, s.ApplyMigrations())
	require.Equal(t, ".", gotDir)

	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("migration failed")
	}
	require.Error(t, s.ApplyMigrations())
}
