package db

import (
	"context"
	"fmt"

	"otabridge/entities"
)

func (s *Store) UserByID(ctx context.Context, id string) (entities.User, error) {
	q := `SELECT id, myallocator_id, password FROM users WHERE id = $1;`

	var user entities.User
	err := s.db.QueryRow(ctx, q, id).Scan(&user.ID, &user.MyallocatorID, &user.PasswordHash)
	if err != nil {
		return entities.User{}, fmt.Errorf("error fetching user %q: %w", id, err)
	}

	return user, nil
}

func (s *Store) SetPartnerID(ctx context.Context, userID, partnerID string) error {
	q := `UPDATE users SET myallocator_id = $2 WHERE id = $1;`

	if _, err := s.db.Exec(ctx, q, userID, partnerID); err != nil {
		return fmt.Errorf("error linking user %q: %w", userID, err)
	}

	return nil
}

// CreateUser stores a property with an already-hashed credential. Used by
// provisioning and the test suite; the request pipeline never creates users.
func (s *Store) CreateUser(ctx context.Context, user entities.User) error {
	q := `INSERT INTO users (id, myallocator_id, password) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING;`

	if _, err := s.db.Exec(ctx, q, user.ID, user.MyallocatorID, user.PasswordHash); err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}
