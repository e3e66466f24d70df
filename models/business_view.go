package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessView is a single detail-page view or contact event.
// Append-only; rows are never updated.
type BusinessView struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	BusinessID uuid.UUID     `json:"business_id" db:"business_id"`
	UserID     uuid.NullUUID `json:"user_id" db:"user_id"` // null for anonymous visitors
	SessionID  string        `json:"session_id" db:"session_id"`
	Source     string        `json:"source" db:"source"` // page tag or contact channel
	UserAgent  string        `json:"user_agent" db:"user_agent"`
	IPAddress  string        `json:"ip_address" db:"ip_address"`
	ViewedAt   time.Time     `json:"viewed_at" db:"viewed_at"`
}

// OwnerView is a view row joined back to the owning business,
// as returned by the owner dashboard.
type OwnerView struct {
	BusinessView
	BusinessName string `json:"business_name" db:"business_name"`
}

func (BusinessView) TableName() string {
	return "business_views"
}

func (BusinessView) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS business_views (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		business_id UUID NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		session_id VARCHAR(255),
		source TEXT,
		user_agent TEXT,
		ip_address INET,
		viewed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_business_views_business_id ON business_views(business_id);
	CREATE INDEX IF NOT EXISTS idx_business_views_viewed_at ON business_views(viewed_at);
	CREATE INDEX IF NOT EXISTS idx_business_views_composite ON business_views(business_id, viewed_at);`
}
