package http

import (
	"net/http"

	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

type ProfileImageHandler struct {
	ProfileImageService *service.ProfileImageService
}

// ServeHTTP godoc
//
//	@Summary		Profile image upload URL
//	@Description	Returns a presigned S3 PUT URL valid for 15 minutes and records the resulting image URL on the account.
//	@Tags			Auth
//	@Security		CookieAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		shopsdk.ProfileImageUploadRequest	true	"contentType"
//	@Success		201		{object}	shopsdk.ProfileImageUploadResponse
//	@Failure		400		{object}	shopsdk.APIError
//	@Failure		401		{object}	shopsdk.APIError
//	@Failure		404		{object}	shopsdk.APIError	"uploads not configured"
//	@Router			/api/auth/me/profile-image [post]
func (h *ProfileImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.ProfileImageUploadRequest
	if !decode(w, r, &req) {
		return
	}

	ticket, err := h.ProfileImageService.CreateUploadURL(r.Context(), identity(r).UserID, req.ContentType)
	if err != nil {
		writeServiceError(w, r, "profile_image_upload", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, shopsdk.ProfileImageUploadResponse{
		UploadURL: ticket.UploadURL,
		ObjectKey: ticket.ObjectKey,
		ImageURL:  ticket.ImageURL,
		ExpiresAt: ticket.ExpiresAt,
	})
}
