package sqlrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
)

type usersRepo struct {
	db DBTX
	d  Dialect
}

const userColumns = `id, name, email, password_hash, role, profile_image_url, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u    domain.User
		role string
		img  sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &img, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	u.ProfileImageURL = stringPtr(img)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	return u, r.d.mapErr(err)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	u, err := scanUser(row)
	return u, r.d.mapErr(err)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), nullString(u.ProfileImageURL),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return r.d.mapErr(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		r.d.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`),
		hash, at.UTC(), userID,
	)
	return r.d.mapErr(mustAffect(res, err))
}

func (r *usersRepo) UpdateProfileImageURL(ctx context.Context, userID, url string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		r.d.Rebind(`UPDATE users SET profile_image_url = ?, updated_at = ? WHERE id = ?`),
		url, at.UTC(), userID,
	)
	return r.d.mapErr(mustAffect(res, err))
}
