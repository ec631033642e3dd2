package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/mail"
	"github.com/aussiebroadwan/greenbite/internal/shop/metrics"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/pkg/cryptox"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/aussiebroadwan/greenbite/pkg/jwtx"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

const DefaultCodeTTL = 10 * time.Minute

// Session is an issued session token and when it stops being accepted.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// CredentialService runs the account lifecycle: signup, signin, session
// resolution and the forgot/verify/reset password flow. It keeps no state
// between calls.
type CredentialService struct {
	Store   store.Store
	Tokens  jwtx.IssueVerifier
	Mailer  mail.Dispatcher
	Metrics metrics.Recorder

	// CodeKey keys reset-code fingerprints. Required.
	CodeKey []byte

	CodeTTL      time.Duration
	MailTimeout  time.Duration
	StoreTimeout time.Duration

	// RequireVerifiedCode makes ResetPassword demand a code that went
	// through VerifyCode and has not expired.
	RequireVerifiedCode bool

	Now func() time.Time
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CredentialService) codeTTL() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultCodeTTL
}

func (s *CredentialService) record(event, outcome string) {
	if s.Metrics != nil {
		s.Metrics.AuthEvent(event, outcome)
	}
}

// outcome names the metric outcome for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrMailDispatch):
		return "mail_failed"
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNoToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrInvalidOrExpiredCode),
		errors.Is(err, ErrCodeNotVerified),
		errors.Is(err, ErrValidation):
		return "rejected"
	default:
		return "error"
	}
}

var errNoCodeKey = errors.New("credential service: no code key configured")

func (s *CredentialService) fingerprint(code string) (string, error) {
	if len(s.CodeKey) == 0 {
		return "", errNoCodeKey
	}
	return cryptox.FingerprintCode(s.CodeKey, code), nil
}

func (s *CredentialService) issue(userID string) (Session, error) {
	token, exp, err := s.Tokens.Issue(userID, s.now())
	if err != nil {
		return Session{}, fmt.Errorf("issue session token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}

// Signup registers a new USER account and opens a session for it.
func (s *CredentialService) Signup(ctx context.Context, in SignupInput) (user domain.User, sess Session, err error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "signup"), slog.String("email", in.Email))
	defer func() { s.record("signup", outcome(err)) }()

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return domain.User{}, Session{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		l.Error("password hashing failed", "error", err)
		return domain.User{}, Session{}, err
	}

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	users := s.Store.Users()
	if _, err := users.GetUserByEmail(ctx, in.Email); err == nil {
		l.Info("signup rejected, email taken")
		return domain.User{}, Session{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		err = classify("lookup user", err)
		l.Error("signup lookup failed", "error", err)
		return domain.User{}, Session{}, err
	}

	now := s.now()
	user = domain.User{
		ID:           idx.NewAt(now).String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent signup for the same email.
			return domain.User{}, Session{}, ErrEmailTaken
		}
		err = classify("create user", err)
		l.Error("signup insert failed", "error", err)
		return domain.User{}, Session{}, err
	}

	sess, err = s.issue(user.ID)
	if err != nil {
		l.Error("signup token issue failed", "user_id", user.ID, "error", err)
		return domain.User{}, Session{}, err
	}

	l.Info("user signed up", "user_id", user.ID)
	return user, sess, nil
}

// Signin checks the password and opens a session. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials after one bcrypt comparison.
func (s *CredentialService) Signin(ctx context.Context, email, password string) (user domain.User, sess Session, err error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "signin"), slog.String("email", email))
	defer func() { s.record("signin", outcome(err)) }()

	sctx, cancel := bounded(ctx, s.StoreTimeout)
	user, err = s.Store.Users().GetUserByEmail(sctx, email)
	cancel()

	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
		l.Info("signin rejected")
		return domain.User{}, Session{}, ErrInvalidCredentials
	case err != nil:
		err = classify("lookup user", err)
		l.Error("signin lookup failed", "error", err)
		return domain.User{}, Session{}, err
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		l.Info("signin rejected")
		return domain.User{}, Session{}, ErrInvalidCredentials
	}

	sess, err = s.issue(user.ID)
	if err != nil {
		l.Error("signin token issue failed", "user_id", user.ID, "error", err)
		return domain.User{}, Session{}, err
	}
	return user, sess, nil
}

// WhoAmI resolves a session token to its account. A token for a user that
// no longer exists yields ErrUserNotFound.
func (s *CredentialService) WhoAmI(ctx context.Context, token string) (user domain.User, err error) {
	defer func() { s.record("whoami", outcome(err)) }()
	return s.resolve(ctx, token)
}

// Authenticate resolves a session token to the caller's identity for
// authorisation checks.
func (s *CredentialService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	user, err := s.resolve(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: user.ID, Role: user.Role}, nil
}

func (s *CredentialService) resolve(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrNoToken
	}

	claims, err := s.Tokens.Verify(token)
	if err != nil {
		slogx.FromContext(ctx).Debug("session token rejected", "error", err)
		return domain.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	user, err := s.Store.Users().GetUserByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, ErrUserNotFound
	case err != nil:
		err = classify("lookup user", err)
		slogx.FromContext(ctx).Error("session user lookup failed", "user_id", claims.UserID, "error", err)
		return domain.User{}, err
	}
	return user, nil
}

// ForgotPassword issues a fresh six digit code for a registered email,
// replacing any earlier one, and mails it. The code stays valid until
// expiry even if the mail fails.
func (s *CredentialService) ForgotPassword(ctx context.Context, email string) (err error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "forgot_password"), slog.String("email", email))
	defer func() { s.record("forgot_password", outcome(err)) }()

	code, err := cryptox.GenerateNumericCode()
	if err != nil {
		l.Error("code generation failed", "error", err)
		return err
	}

	sctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	if _, err := s.Store.Users().GetUserByEmail(sctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("reset requested for unknown email")
			return ErrUserNotFound
		}
		err = classify("lookup user", err)
		l.Error("reset lookup failed", "error", err)
		return err
	}

	fp, err := s.fingerprint(code)
	if err != nil {
		l.Error("code fingerprint failed", "error", err)
		return err
	}

	now := s.now()
	vc := domain.VerificationCode{
		Email:           email,
		CodeFingerprint: fp,
		ExpiresAt:       now.Add(s.codeTTL()),
		CreatedAt:       now,
	}
	if err := s.Store.VerificationCodes().UpsertVerificationCode(sctx, vc); err != nil {
		err = classify("store code", err)
		l.Error("storing reset code failed", "error", err)
		return err
	}

	if err := s.sendCode(ctx, email, code); err != nil {
		l.Error("sending reset code failed", "error", err)
		return err
	}

	l.Info("reset code issued", "expires_at", vc.ExpiresAt)
	return nil
}

func (s *CredentialService) sendCode(ctx context.Context, email, code string) error {
	ctx, cancel := bounded(ctx, s.MailTimeout)
	defer cancel()

	err := s.Mailer.Send(ctx, mail.ResetCodeMessage(email, code))
	if s.Metrics != nil {
		if err != nil {
			s.Metrics.MailDispatch("failure")
		} else {
			s.Metrics.MailDispatch("success")
		}
	}
	if err != nil {
		return classify("send mail", fmt.Errorf("%w: %w", ErrMailDispatch, err))
	}
	return nil
}

// VerifyCode accepts code when it matches the active code for email and has
// not expired. An accepted code is marked verified.
func (s *CredentialService) VerifyCode(ctx context.Context, email, code string) (err error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "verify_code"), slog.String("email", email))
	defer func() { s.record("verify_code", outcome(err)) }()

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	codes := s.Store.VerificationCodes()
	vc, err := codes.GetVerificationCodeByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		l.Info("no active code")
		return ErrInvalidOrExpiredCode
	case err != nil:
		err = classify("lookup code", err)
		l.Error("code lookup failed", "error", err)
		return err
	}

	fp, err := s.fingerprint(code)
	if err != nil {
		l.Error("code fingerprint failed", "error", err)
		return err
	}

	now := s.now()
	if !cryptox.EqualFingerprints(fp, vc.CodeFingerprint) || vc.Expired(now) {
		l.Info("code rejected", "expired", vc.Expired(now))
		return ErrInvalidOrExpiredCode
	}

	if err := codes.MarkVerificationCodeVerified(ctx, email, fp, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Replaced by a newer forgot-password call in the meantime.
			return ErrInvalidOrExpiredCode
		}
		err = classify("mark code", err)
		l.Error("marking code verified failed", "error", err)
		return err
	}
	return nil
}

// ResetPassword sets a new password and deletes every code for email in
// one transaction.
func (s *CredentialService) ResetPassword(ctx context.Context, email, password string) (err error) {
	l := slogx.FromContext(ctx).With(slog.String("op", "reset_password"), slog.String("email", email))
	defer func() { s.record("reset_password", outcome(err)) }()

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		l.Error("password hashing failed", "error", err)
		return err
	}

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	now := s.now()
	var userID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return classify("lookup user", err)
		}
		userID = user.ID

		if s.RequireVerifiedCode {
			vc, err := tx.VerificationCodes().GetVerificationCodeByEmail(ctx, email)
			if errors.Is(err, store.ErrNotFound) {
				return ErrCodeNotVerified
			}
			if err != nil {
				return classify("lookup code", err)
			}
			if !vc.Verified() || vc.Expired(now) {
				return ErrCodeNotVerified
			}
		}

		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash, now); err != nil {
			return classify("update password", err)
		}
		if err := tx.VerificationCodes().DeleteVerificationCodesByEmail(ctx, email); err != nil {
			return classify("delete codes", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrCodeNotVerified) {
			l.Info("password reset rejected", "reason", err)
			return err
		}
		err = classify("reset password", err)
		l.Error("password reset failed", "error", err)
		return err
	}

	l.Info("password reset", "user_id", userID)
	return nil
}
