package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	BusinessID   uuid.UUID  `json:"business_id" db:"business_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Rating       int        `json:"rating" db:"rating"`
	Title        *string    `json:"title" db:"title"`
	Comment      *string    `json:"comment" db:"comment"`
	VisitDate    *time.Time `json:"visit_date" db:"visit_date"`
	HelpfulVotes int        `json:"helpful_votes" db:"helpful_votes"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

func (Review) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		business_id UUID NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		rating SMALLINT NOT NULL CHECK (rating >= 1 AND rating <= 5),
		title TEXT,
		comment TEXT,
		visit_date TIMESTAMP WITH TIME ZONE,
		helpful_votes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		UNIQUE (business_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_business_id ON reviews(business_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_user_id ON reviews(user_id);`
}
