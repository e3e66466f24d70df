package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Approval workflow states for a business listing.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Business struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	OwnerEmail  string    `json:"owner_email" db:"owner_email"`
	OwnerName   *string   `json:"owner_name" db:"owner_name"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Address     string    `json:"address" db:"address"`
	Phone       string    `json:"phone" db:"phone"`
	Hours       string    `json:"hours" db:"hours"`
	Email       *string   `json:"email" db:"email"`
	Website     *string   `json:"website" db:"website"`
	PriceRange  *string   `json:"price_range" db:"price_range"`
	Lat         *float64  `json:"lat" db:"lat"`
	Lng         *float64  `json:"lng" db:"lng"`
	// Ordered image URLs, first entry is the primary image.
	Images pq.StringArray `json:"images" db:"images"`

	// Aggregates derived from the reviews table, never written directly.
	Rating      float64 `json:"rating" db:"rating"`
	ReviewCount int     `json:"review_count" db:"review_count"`

	ApprovalStatus string     `json:"approval_status" db:"approval_status"`
	AdminNotes     *string    `json:"admin_notes,omitempty" db:"admin_notes"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy     *uuid.UUID `json:"approved_by,omitempty" db:"approved_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (Business) TableName() string {
	return "businesses"
}

func (Business) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS businesses (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		owner_id UUID NOT NULL REFERENCES users(id),
		owner_email TEXT NOT NULL,
		owner_name TEXT,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		address TEXT NOT NULL,
		phone TEXT NOT NULL,
		hours TEXT NOT NULL,
		email TEXT,
		website TEXT,
		price_range TEXT,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		images TEXT[] DEFAULT '{}',
		rating NUMERIC(2,1) DEFAULT 0,
		review_count INTEGER DEFAULT 0,
		approval_status TEXT NOT NULL DEFAULT 'pending',
		admin_notes TEXT,
		approved_at TIMESTAMP WITH TIME ZONE,
		approved_by UUID REFERENCES users(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_businesses_owner_id ON businesses(owner_id);
	CREATE INDEX IF NOT EXISTS idx_businesses_status ON businesses(approval_status);
	CREATE INDEX IF NOT EXISTS idx_businesses_status_created ON businesses(approval_status, created_at DESC, id DESC);`
}
