package sqlrepo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
)

type codesRepo struct {
	db DBTX
	d  Dialect
}

func (r *codesRepo) UpsertVerificationCode(ctx context.Context, v domain.VerificationCode) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO verification_codes (email, code_fingerprint, expires_at, verified_at, created_at)
		VALUES (?, ?, ?, NULL, ?)
		ON CONFLICT (email) DO UPDATE SET
			code_fingerprint = excluded.code_fingerprint,
			expires_at       = excluded.expires_at,
			verified_at      = NULL,
			created_at       = excluded.created_at`),
		v.Email, v.CodeFingerprint, v.ExpiresAt.UTC(), v.CreatedAt.UTC(),
	)
	return r.d.mapErr(err)
}

func (r *codesRepo) GetVerificationCodeByEmail(ctx context.Context, email string) (domain.VerificationCode, error) {
	var (
		v        domain.VerificationCode
		verified = nullTime(nil)
	)
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`
		SELECT email, code_fingerprint, expires_at, verified_at, created_at
		FROM verification_codes WHERE email = ?`), email,
	).Scan(&v.Email, &v.CodeFingerprint, &v.ExpiresAt, &verified, &v.CreatedAt)
	if err != nil {
		return domain.VerificationCode{}, r.d.mapErr(err)
	}
	v.ExpiresAt = v.ExpiresAt.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	v.VerifiedAt = timePtr(verified)
	return v, nil
}

func (r *codesRepo) MarkVerificationCodeVerified(ctx context.Context, email, fingerprint string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`
		UPDATE verification_codes SET verified_at = ?
		WHERE email = ? AND code_fingerprint = ?`),
		at.UTC(), email, fingerprint,
	)
	return r.d.mapErr(mustAffect(res, err))
}

func (r *codesRepo) DeleteVerificationCodesByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM verification_codes WHERE email = ?`), email)
	return r.d.mapErr(err)
}

func (r *codesRepo) DeleteExpiredVerificationCodes(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM verification_codes WHERE expires_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, r.d.mapErr(err)
	}
	return res.RowsAffected()
}
