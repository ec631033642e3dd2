package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

var (
	errCategoryExists   = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.CodeConflict, "Category already exists")
	errCategoryNotFound = shopsdk.NotFound("Category")
	errProductNotFound  = shopsdk.NotFound("Product")
	errCartNotFound     = shopsdk.NotFound("Cart")
	errCartItemNotFound = shopsdk.NotFound("Cart item")
	errUploadsDisabled  = shopsdk.NotFound("Profile image upload")
)

// apiError maps a service error to its response. Order matters: any mail
// failure, timeouts included, is the generic 500, and only then do other
// transient errors answer 503.
func apiError(err error) *shopsdk.APIError {
	switch {
	case errors.Is(err, service.ErrMailDispatch):
		return shopsdk.ErrServer
	case errors.Is(err, service.ErrTransient):
		return shopsdk.ErrUnavailable
	case errors.Is(err, service.ErrValidation):
		return shopsdk.ErrValidation
	case errors.Is(err, service.ErrEmailTaken):
		return shopsdk.ErrEmailTaken
	case errors.Is(err, service.ErrInvalidCredentials):
		return shopsdk.ErrInvalidCreds
	case errors.Is(err, service.ErrNoToken):
		return shopsdk.ErrNoToken
	case errors.Is(err, service.ErrInvalidToken):
		return shopsdk.ErrInvalidToken
	case errors.Is(err, service.ErrUserNotFound):
		return shopsdk.ErrUserNotFound
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		return shopsdk.ErrInvalidCode
	case errors.Is(err, service.ErrCodeNotVerified):
		return shopsdk.ErrCodeNotVerified
	case errors.Is(err, service.ErrForbidden):
		return shopsdk.ErrForbidden
	case errors.Is(err, service.ErrCategoryExists):
		return errCategoryExists
	case errors.Is(err, service.ErrCategoryNotFound):
		return errCategoryNotFound
	case errors.Is(err, service.ErrProductNotFound):
		return errProductNotFound
	case errors.Is(err, service.ErrCartNotFound):
		return errCartNotFound
	case errors.Is(err, service.ErrCartItemNotFound):
		return errCartItemNotFound
	case errors.Is(err, service.ErrUploadsDisabled):
		return errUploadsDisabled
	default:
		return shopsdk.ErrServer
	}
}

// writeServiceError writes the response for err. Anything that maps to a
// 5xx is logged with op; the client only ever sees the generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	apiErr := apiError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", "op", op, "err", err)
	}
	apiErr.WriteError(w)
}

type validatable interface {
	Validate() error
}

// decode reads the JSON body into v and runs its contract. It writes the
// error response itself and reports whether the handler should continue.
func decode[T validatable](w http.ResponseWriter, r *http.Request, v *T) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		shopsdk.ErrInvalidJSON.WriteError(w)
		return false
	}
	if err := (*v).Validate(); err != nil {
		shopsdk.ErrValidation.WithDetails(shopsdk.FieldErrors(err)).WriteError(w)
		return false
	}
	return true
}

// pathID reads an ID path parameter. A malformed one answers notFound
// without reaching the store.
func pathID(w http.ResponseWriter, r *http.Request, name string, notFound *shopsdk.APIError) (string, bool) {
	id, err := idx.Parse(r.PathValue(name))
	if err != nil {
		notFound.WriteError(w)
		return "", false
	}
	return id.String(), true
}
