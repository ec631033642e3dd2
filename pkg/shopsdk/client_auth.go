package shopsdk

import (
	"context"
	"net/http"
)

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	var out UserResponse
	if err := c.call(ctx, http.MethodPost, "/api/auth/signup", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Signin(ctx context.Context, req SigninRequest) (*User, error) {
	var out UserResponse
	if err := c.call(ctx, http.MethodPost, "/api/auth/signin", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Me resolves the current session to its account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Signout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/auth/signout", nil, nil, http.StatusOK)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	return c.message(ctx, http.MethodPost, "/api/auth/forgot-password", ForgotPasswordRequest{Email: email})
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) (*MessageResponse, error) {
	return c.message(ctx, http.MethodPost, "/api/auth/verify-code", VerifyCodeRequest{Email: email, Code: code})
}

func (c *Client) ResetPassword(ctx context.Context, email, password string) (*MessageResponse, error) {
	return c.message(ctx, http.MethodPost, "/api/auth/reset-password", ResetPasswordRequest{Email: email, Password: password})
}

func (c *Client) RequestProfileImageUpload(ctx context.Context, contentType string) (*ProfileImageUploadResponse, error) {
	var out ProfileImageUploadResponse
	err := c.call(ctx, http.MethodPost, "/api/auth/me/profile-image",
		ProfileImageUploadRequest{ContentType: contentType}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) message(ctx context.Context, method, path string, in any) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.call(ctx, method, path, in, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
