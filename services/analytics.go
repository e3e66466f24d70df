package services

import (
	"database/sql"
	"log"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/models"

	"github.com/google/uuid"
)

// AnalyticsService records business-detail views and contact events.
// Recording is fire-and-forget: failures are logged and swallowed so a
// broken analytics write can never break or block page navigation.
// Rows are retained indefinitely; PruneViews exists for operators that
// want a retention window.
type AnalyticsService struct {
	db *sql.DB
}

func NewAnalyticsService(db *sql.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// ViewEvent is what the tracking endpoints capture about the visitor.
type ViewEvent struct {
	UserID    uuid.NullUUID
	SessionID string
	Source    string
	UserAgent string
	IPAddress string
}

// TrackView records a detail-page view. Never returns an error.
func (s *AnalyticsService) TrackView(businessID uuid.UUID, ev ViewEvent) {
	if ev.Source == "" {
		ev.Source = "detail"
	}
	if err := s.record(businessID, ev); err != nil {
		log.Printf("Failed to track view for business %s: %v", businessID, err)
	}
}

// TrackContact records a contact event (call, email, website click) with
// the channel as the source tag. Same contract as TrackView.
func (s *AnalyticsService) TrackContact(businessID uuid.UUID, channel string, ev ViewEvent) {
	if channel == "" {
		channel = "contact"
	}
	ev.Source = "contact:" + channel
	if err := s.record(businessID, ev); err != nil {
		log.Printf("Failed to track contact for business %s: %v", businessID, err)
	}
}

func (s *AnalyticsService) record(businessID uuid.UUID, ev ViewEvent) error {
	var businessExists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM businesses WHERE id = $1)`, businessID).Scan(&businessExists)
	if err != nil {
		return err
	}
	if !businessExists {
		return Errorf(KindNotFound, "business not found")
	}

	if ev.SessionID == "" && !ev.UserID.Valid {
		ev.SessionID = uuid.New().String()
	}

	// Suppress duplicate views from the same visitor within 5 minutes
	var duplicateExists bool
	if ev.UserID.Valid {
		err = s.db.QueryRow(`
			SELECT EXISTS(
				SELECT 1 FROM business_views
				WHERE business_id = $1 AND user_id = $2 AND source = $3
				AND viewed_at > NOW() - INTERVAL '5 minutes'
			)`, businessID, ev.UserID.UUID, ev.Source).Scan(&duplicateExists)
	} else {
		err = s.db.QueryRow(`
			SELECT EXISTS(
				SELECT 1 FROM business_views
				WHERE business_id = $1 AND session_id = $2 AND source = $3
				AND viewed_at > NOW() - INTERVAL '5 minutes'
			)`, businessID, ev.SessionID, ev.Source).Scan(&duplicateExists)
	}
	if err != nil {
		return err
	}
	if duplicateExists {
		return nil
	}

	_, err = s.db.Exec(`
		INSERT INTO business_views (business_id, user_id, session_id, source, user_agent, ip_address, viewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		businessID, ev.UserID, ev.SessionID, ev.Source, ev.UserAgent, ev.IPAddress)
	return err
}

// GetViewsForOwner joins view rows to the businesses the caller owns,
// newest first, for the owner dashboard.
func (s *AnalyticsService) GetViewsForOwner(ownerID uuid.UUID, limit int) ([]models.OwnerView, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT bv.id, bv.business_id, bv.user_id, bv.session_id, bv.source, bv.user_agent, bv.ip_address, bv.viewed_at,
			b.name AS business_name
		FROM business_views bv
		JOIN businesses b ON bv.business_id = b.id
		WHERE b.owner_id = $1
		ORDER BY bv.viewed_at DESC
		LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, WrapStore("failed to list views", err)
	}
	defer rows.Close()

	views := []models.OwnerView{}
	for rows.Next() {
		var v models.OwnerView
		var sessionID, source, userAgent, ipAddress sql.NullString
		err := rows.Scan(&v.ID, &v.BusinessID, &v.UserID, &sessionID, &source, &userAgent, &ipAddress,
			&v.ViewedAt, &v.BusinessName)
		if err != nil {
			return nil, WrapStore("failed to scan view", err)
		}
		v.SessionID = sessionID.String
		v.Source = source.String
		v.UserAgent = userAgent.String
		v.IPAddress = ipAddress.String
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapStore("failed to list views", err)
	}
	return views, nil
}

// MostViewed returns approved businesses ranked by 30-day view count.
func (s *AnalyticsService) MostViewed(limit int) ([]models.Business, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT `+businessColumns+`
		FROM businesses
		LEFT JOIN (
			SELECT business_id, COUNT(*) AS view_count
			FROM business_views
			WHERE viewed_at > NOW() - INTERVAL '30 days'
			GROUP BY business_id
		) vc ON businesses.id = vc.business_id
		WHERE approval_status = $1
		ORDER BY vc.view_count DESC NULLS LAST, created_at DESC
		LIMIT $2`, models.StatusApproved, limit)
	if err != nil {
		return nil, WrapStore("failed to list most viewed businesses", err)
	}
	return collectBusinesses(rows)
}

// PruneViews deletes view rows older than the given number of days.
// Admin-only; returns the number of rows removed.
func (s *AnalyticsService) PruneViews(actor Identity, days int) (int64, error) {
	if !actor.IsAdmin() {
		return 0, Errorf(KindForbidden, "admin access required")
	}
	if days < 1 {
		return 0, Errorf(KindValidation, "days must be a positive integer")
	}

	result, err := s.db.Exec(`DELETE FROM business_views WHERE viewed_at < NOW() - $1::int * INTERVAL '1 day'`, days)
	if err != nil {
		return 0, WrapStore("failed to prune views", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// ViewTotals backs the admin stats endpoint.
func (s *AnalyticsService) ViewTotals() (views int, reviews int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM business_views`).Scan(&views); err != nil {
		return 0, 0, WrapStore("failed to count views", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM reviews`).Scan(&reviews); err != nil {
		return 0, 0, WrapStore("failed to count reviews", err)
	}
	return views, reviews, nil
}
