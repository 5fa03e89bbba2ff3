package sqlstore

import (
	"context"

	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/google/uuid"
)

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now()

	query := s.rebind("INSERT INTO users (id, username, password, created_at) VALUES (?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.Password, user.CreatedAt)
	return dbError(err)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, password, created_at FROM users WHERE username = ?")

	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)
	if err != nil {
		return nil, dbError(err)
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, password, created_at FROM users WHERE id = ?")

	err := s.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)
	if err != nil {
		return nil, dbError(err)
	}
	return &user, nil
}

// ListUsersExcept returns every user but id, without password hashes.
func (s *SQLStore) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	query := s.rebind("SELECT id, username, created_at FROM users WHERE id <> ? ORDER BY username")
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
			return nil, dbError(err)
		}
		users = append(users, user)
	}
	return users, dbError(rows.Err())
}
