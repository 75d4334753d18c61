package repository

import (
	"context"
	"fmt"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
)

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var u model.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if err != nil {
		return model.User{}, translate(fmt.Sprintf("user %s", username), err)
	}
	return u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u model.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role) VALUES ($1, $2, $3, $4)
	`, u.ID, u.Username, u.PasswordHash, u.Role)
	return translate(fmt.Sprintf("create user %s", u.Username), err)
}
