package db

import (
	"context"
	"fmt"

	"otabridge/entities"
)

func (s *Store) RoomTypesByUser(ctx context.Context, userID string) ([]entities.RoomType, error) {
	q := `
	SELECT id, user_id, title, detail, occupancy, dorm
	FROM room_types
	WHERE user_id = $1;`

	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching room types: %w", err)
	}
	defer rows.Close()

	var roomTypes []entities.RoomType
	for rows.Next() {
		var rt entities.RoomType
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.Title, &rt.Detail, &rt.Occupancy, &rt.Dorm); err != nil {
			return nil, fmt.Errorf("error scanning room type: %w", err)
		}
		roomTypes = append(roomTypes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading room types: %w", err)
	}

	return roomTypes, nil
}
