package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables the repositories expect. Every statement is
// idempotent so it can run on each start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(120) NOT NULL,
		email         VARCHAR(190) NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		role          ENUM('USER','ADMIN') NOT NULL DEFAULT 'USER',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title           VARCHAR(200) NOT NULL,
		description     VARCHAR(1000) NOT NULL DEFAULT '',
		category        VARCHAR(60) NOT NULL DEFAULT 'General',
		location        VARCHAR(200) NOT NULL DEFAULT '',
		image_url       VARCHAR(500) NOT NULL DEFAULT '',
		start_date      DATETIME NOT NULL,
		end_date        DATETIME NULL,
		price           DECIMAL(10,2) NOT NULL DEFAULT 0,
		total_seats     INT NOT NULL,
		available_seats INT NOT NULL,
		CHECK (price >= 0),
		CHECK (available_seats >= 0 AND available_seats <= total_seats),
		INDEX idx_events_start (start_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id      BIGINT UNSIGNED NOT NULL,
		event_id     BIGINT UNSIGNED NOT NULL,
		ticket_code  VARCHAR(32) NOT NULL UNIQUE,
		status       ENUM('CONFIRMED','CHECKED_IN') NOT NULL DEFAULT 'CONFIRMED',
		booking_date DATETIME NOT NULL,
		amount_paid  DECIMAL(10,2) NOT NULL DEFAULT 0,
		INDEX idx_bookings_user (user_id, booking_date),
		INDEX idx_bookings_event (event_id),
		CONSTRAINT fk_bookings_user  FOREIGN KEY (user_id)  REFERENCES users(id),
		CONSTRAINT fk_bookings_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// InitSchema applies the table definitions in order.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
