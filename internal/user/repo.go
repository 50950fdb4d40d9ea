package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

// ProfileUpdate carries the mutable profile fields. Nil pointer fields are
// stored as NULL (the original form replaces phone/address/avatar wholesale).
type ProfileUpdate struct {
	ID      int64
	Name    string
	Phone   *string
	Address *string
	Avatar  *string
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, up *ProfileUpdate) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	CountOrders(ctx context.Context, userID int64) (int, error)
	CountWishlist(ctx context.Context, userID int64) (int, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, role, phone, address, avatar,
		       password_hash, google_id, activated, created_at, updated_at
		FROM users WHERE id=$1
	`, id)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Phone, &u.Address, &u.Avatar,
		&u.PasswordHash, &u.GoogleID, &u.Activated, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepo) UpdateProfile(ctx context.Context, up *ProfileUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
		    phone = $3,
		    address = $4,
		    avatar = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, up.ID, up.Name, up.Phone, up.Address, up.Avatar)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) CountOrders(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM orders WHERE user_id=$1`, userID)
}

func (r *PGRepo) CountWishlist(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM wishlist WHERE user_id=$1`, userID)
}

func (r *PGRepo) count(ctx context.Context, sql string, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	if err := r.db.QueryRow(ctx, sql, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
