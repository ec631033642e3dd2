package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation           = errors.New("validation_error")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNoToken              = errors.New("no session token")
	ErrInvalidToken         = errors.New("invalid session token")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrCodeNotVerified      = errors.New("reset code not verified")
	ErrMailDispatch         = errors.New("mail dispatch failed")

	// ErrTransient marks storage or mail work that ran out of time or was
	// cancelled. Callers may retry.
	ErrTransient = errors.New("transient failure")
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrProductNotFound  = errors.New("product not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUploadsDisabled  = errors.New("profile image uploads are not configured")
)

// classify tags deadline and cancellation errors as ErrTransient and wraps
// everything else with op for the logs.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// bounded derives a context limited to d. A zero d leaves ctx unbounded.
func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
