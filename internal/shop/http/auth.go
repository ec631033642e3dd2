package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

type AuthHandler struct {
	CredentialService *service.CredentialService
	SecureCookies     bool
}

func (h *AuthHandler) setSession(w http.ResponseWriter, sess service.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleSignup godoc
//
//	@Summary		Sign up
//	@Description	Creates a USER account and sets the session cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		shopsdk.SignupRequest	true	"name, email, password"
//	@Success		201		{object}	shopsdk.UserResponse
//	@Failure		400		{object}	shopsdk.APIError	"validation_error, email_taken"
//	@Failure		500		{object}	shopsdk.APIError
//	@Router			/api/auth/signup [post]
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	user, sess, err := h.CredentialService.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, "signup", err)
		return
	}

	h.setSession(w, sess)
	httpx.WriteJSON(w, http.StatusCreated, shopsdk.UserResponse{User: toUser(user)})
}

// HandleSignin godoc
//
//	@Summary		Sign in
//	@Description	Checks the password and sets the session cookie. Unknown emails and wrong passwords answer identically.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		shopsdk.SigninRequest	true	"email, password"
//	@Success		200		{object}	shopsdk.UserResponse
//	@Failure		400		{object}	shopsdk.APIError	"validation_error, invalid_credentials"
//	@Failure		429		{object}	shopsdk.APIError
//	@Router			/api/auth/signin [post]
func (h *AuthHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.SigninRequest
	if !decode(w, r, &req) {
		return
	}

	user, sess, err := h.CredentialService.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, "signin", err)
		return
	}

	h.setSession(w, sess)
	httpx.WriteJSON(w, http.StatusOK, shopsdk.UserResponse{User: toUser(user)})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Resolves the session token to the account's public profile.
//	@Tags			Auth
//	@Security		CookieAuth
//	@Produce		json
//	@Success		200	{object}	shopsdk.User
//	@Failure		401	{object}	shopsdk.APIError	"no_token, invalid_token"
//	@Failure		404	{object}	shopsdk.APIError	"user_not_found"
//	@Router			/api/auth/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.CredentialService.WhoAmI(r.Context(), httpx.TokenFromRequest(r))
	if err != nil {
		writeServiceError(w, r, "whoami", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUser(user))
}

// HandleSignout clears the session cookie. Tokens are stateless, so a copy
// of the token held elsewhere stays valid until it expires.
//
//	@Summary	Sign out
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	shopsdk.MessageResponse
//	@Router		/api/auth/signout [post]
func (h *AuthHandler) HandleSignout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w)
	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "Signed out"})
}

// HandleForgotPassword godoc
//
//	@Summary		Request a reset code
//	@Description	Mails a six digit code valid for ten minutes, replacing any earlier code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		shopsdk.ForgotPasswordRequest	true	"email"
//	@Success		200		{object}	shopsdk.MessageResponse
//	@Failure		400		{object}	shopsdk.APIError
//	@Failure		404		{object}	shopsdk.APIError	"user_not_found"
//	@Failure		500		{object}	shopsdk.APIError
//	@Failure		503		{object}	shopsdk.APIError
//	@Router			/api/auth/forgot-password [post]
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.CredentialService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, "forgot_password", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "Reset code sent to email"})
}

// HandleVerifyCode godoc
//
//	@Summary	Verify a reset code
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		shopsdk.VerifyCodeRequest	true	"email, code"
//	@Success	200		{object}	shopsdk.MessageResponse
//	@Failure	400		{object}	shopsdk.APIError	"validation_error, invalid_or_expired_code"
//	@Failure	429		{object}	shopsdk.APIError
//	@Router		/api/auth/verify-code [post]
func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.VerifyCodeRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.CredentialService.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, r, "verify_code", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "Code verified"})
}

// HandleResetPassword godoc
//
//	@Summary		Reset password
//	@Description	Replaces the password and removes every reset code for the email.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		shopsdk.ResetPasswordRequest	true	"email, password"
//	@Success		200		{object}	shopsdk.MessageResponse
//	@Failure		400		{object}	shopsdk.APIError
//	@Failure		403		{object}	shopsdk.APIError	"code_not_verified"
//	@Failure		404		{object}	shopsdk.APIError	"user_not_found"
//	@Failure		500		{object}	shopsdk.APIError
//	@Router			/api/auth/reset-password [post]
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.CredentialService.ResetPassword(r.Context(), req.Email, req.Password); err != nil {
		writeServiceError(w, r, "reset_password", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "Password reset successfully"})
}
