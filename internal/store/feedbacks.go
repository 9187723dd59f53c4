package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostgresFeedbackStore struct {
	db *sql.DB
}

func (s *PostgresFeedbackStore) Create(ctx context.Context, f *Feedback) error {
	f.ID = uuid.NewString()

	query := `
		INSERT INTO feedbacks (id, name, message)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if err := s.db.QueryRowContext(ctx, query, f.ID, f.Name, f.Message).Scan(&f.CreatedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *PostgresFeedbackStore) List(ctx context.Context, limit int) ([]Feedback, error) {
	query := `
		SELECT id, name, message, created_at
		FROM feedbacks
		ORDER BY created_at DESC
		LIMIT $1
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feedbacks := []Feedback{}
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.Name, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, f)
	}
	return feedbacks, rows.Err()
}
