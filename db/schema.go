package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateDatabaseSchema(db *pgxpool.Pool) error {
	_, err := db.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(255) PRIMARY KEY,
			myallocator_id VARCHAR(255),
			password VARCHAR(255) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS room_types (
			id VARCHAR(255) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL REFERENCES users (id),
			title VARCHAR(255),
			detail VARCHAR(255),
			occupancy INT NOT NULL,
			dorm BOOLEAN NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bookings (
			id VARCHAR(255) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL REFERENCES users (id),
			dttm TIMESTAMP NOT NULL,
			currency CHAR(3) NOT NULL DEFAULT 'USD',
			cancellation BOOLEAN NOT NULL DEFAULT FALSE,
			myallocator_guid VARCHAR(255)
		);

		CREATE TABLE IF NOT EXISTS customers (
			email VARCHAR(255) PRIMARY KEY,
			country VARCHAR(2) NOT NULL DEFAULT 'US',
			first_name VARCHAR(255),
			last_name VARCHAR(255)
		);

		CREATE TABLE IF NOT EXISTS booking_customers (
			booking_id VARCHAR(255) NOT NULL REFERENCES bookings (id),
			email VARCHAR(255) NOT NULL REFERENCES customers (email)
		);

		CREATE TABLE IF NOT EXISTS booking_rooms (
			booking_id VARCHAR(255) NOT NULL REFERENCES bookings (id),
			room_type_id VARCHAR(255) NOT NULL REFERENCES room_types (id),
			dt DATE NOT NULL,
			description VARCHAR(255),
			rate NUMERIC(10, 2) NOT NULL,
			rate_id VARCHAR(255),
			PRIMARY KEY (booking_id, room_type_id, dt)
		);
	`)
	if err != nil {
		return fmt.Errorf("pgxpool error: error executing create table query: %w", err)
	}

	return nil
}
