package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewVote records one user's helpful/not-helpful vote on a review.
// The unique constraint is what makes the toggle logic safe under
// concurrent clicks; the review's helpful_votes column is always
// recomputed from this table.
type ReviewVote struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ReviewID  uuid.UUID `json:"review_id" db:"review_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IsHelpful bool      `json:"is_helpful" db:"is_helpful"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (ReviewVote) TableName() string {
	return "review_votes"
}

func (ReviewVote) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS review_votes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		review_id UUID NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		is_helpful BOOLEAN NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		UNIQUE (review_id, user_id)
	);`
}
