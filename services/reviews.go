package services

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/models"

	"github.com/google/uuid"
)

type ReviewService struct {
	db *sql.DB
}

func NewReviewService(db *sql.DB) *ReviewService {
	return &ReviewService{db: db}
}

type ReviewInput struct {
	Rating    int        `json:"rating"`
	Title     *string    `json:"title"`
	Comment   *string    `json:"comment"`
	VisitDate *time.Time `json:"visit_date"`
}

type ReviewUpdate struct {
	Rating    *int       `json:"rating"`
	Title     *string    `json:"title"`
	Comment   *string    `json:"comment"`
	VisitDate *time.Time `json:"visit_date"`
}

const reviewColumns = `id, business_id, user_id, rating, title, comment, visit_date, helpful_votes, created_at, updated_at`

func scanReview(row rowScanner) (*models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.BusinessID, &r.UserID, &r.Rating, &r.Title, &r.Comment,
		&r.VisitDate, &r.HelpfulVotes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AddReview creates or replaces the caller's review of a business. The
// unique constraint on (business_id, user_id) plus ON CONFLICT makes a
// second submission update the existing row instead of duplicating it,
// whatever the caller does. Owners may not review their own business.
func (s *ReviewService) AddReview(businessID uuid.UUID, actor Identity, in ReviewInput) (*models.Review, error) {
	if actor.ID == uuid.Nil {
		return nil, Errorf(KindAuth, "authentication required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, Errorf(KindValidation, "rating must be an integer between 1 and 5")
	}

	var ownerID uuid.UUID
	err := s.db.QueryRow(`SELECT owner_id FROM businesses WHERE id = $1`, businessID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil, Errorf(KindNotFound, "business not found")
	}
	if err != nil {
		return nil, WrapStore("failed to fetch business", err)
	}
	if ownerID == actor.ID {
		return nil, Errorf(KindForbidden, "owners cannot review their own business")
	}

	row := s.db.QueryRow(`
		INSERT INTO reviews (business_id, user_id, rating, title, comment, visit_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (business_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, title = EXCLUDED.title,
			comment = EXCLUDED.comment, visit_date = EXCLUDED.visit_date, updated_at = now()
		RETURNING `+reviewColumns,
		businessID, actor.ID, in.Rating, in.Title, in.Comment, in.VisitDate)
	review, err := scanReview(row)
	if err != nil {
		return nil, WrapStore("failed to save review", err)
	}

	if err := s.RecomputeAggregate(businessID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) GetByID(id uuid.UUID) (*models.Review, error) {
	row := s.db.QueryRow(`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	review, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, Errorf(KindNotFound, "review not found")
	}
	if err != nil {
		return nil, WrapStore("failed to fetch review", err)
	}
	return review, nil
}

// UpdateReview applies a partial edit by the review's author.
func (s *ReviewService) UpdateReview(id uuid.UUID, actor Identity, in ReviewUpdate) (*models.Review, error) {
	current, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current.UserID != actor.ID {
		return nil, Errorf(KindForbidden, "only the author may edit a review")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, Errorf(KindValidation, "rating must be an integer between 1 and 5")
	}

	set := []string{}
	args := []interface{}{}
	add := func(col string, val interface{}) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Rating != nil {
		add("rating", *in.Rating)
	}
	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.Comment != nil {
		add("comment", *in.Comment)
	}
	if in.VisitDate != nil {
		add("visit_date", *in.VisitDate)
	}
	if len(set) == 0 {
		return current, nil
	}
	set = append(set, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE reviews SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), reviewColumns)
	review, err := scanReview(s.db.QueryRow(query, args...))
	if err != nil {
		return nil, WrapStore("failed to update review", err)
	}

	if err := s.RecomputeAggregate(review.BusinessID); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review; author or admin only.
func (s *ReviewService) DeleteReview(id uuid.UUID, actor Identity) error {
	current, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if current.UserID != actor.ID && !actor.IsAdmin() {
		return Errorf(KindForbidden, "only the author or an admin may delete a review")
	}

	if _, err := s.db.Exec(`DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return WrapStore("failed to delete review", err)
	}
	return s.RecomputeAggregate(current.BusinessID)
}

func (s *ReviewService) ListByBusiness(businessID uuid.UUID) ([]models.Review, error) {
	rows, err := s.db.Query(`
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE business_id = $1
		ORDER BY created_at DESC, id DESC`, businessID)
	if err != nil {
		return nil, WrapStore("failed to list reviews", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, WrapStore("failed to scan review", err)
		}
		reviews = append(reviews, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapStore("failed to list reviews", err)
	}
	return reviews, nil
}

// Vote toggles the caller's helpful vote on a review. Same value twice
// retracts the vote; the opposite value flips it. helpful_votes is always
// recomputed from the vote table inside the same transaction, so repeated
// clicks can never drift the counter.
func (s *ReviewService) Vote(reviewID uuid.UUID, actor Identity, isHelpful bool) (int, error) {
	if actor.ID == uuid.Nil {
		return 0, Errorf(KindAuth, "authentication required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, WrapStore("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`, reviewID).Scan(&exists); err != nil {
		return 0, WrapStore("failed to fetch review", err)
	}
	if !exists {
		return 0, Errorf(KindNotFound, "review not found")
	}

	var previous bool
	err = tx.QueryRow(`
		SELECT is_helpful FROM review_votes
		WHERE review_id = $1 AND user_id = $2
		FOR UPDATE`, reviewID, actor.ID).Scan(&previous)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO review_votes (review_id, user_id, is_helpful)
			VALUES ($1, $2, $3)
			ON CONFLICT (review_id, user_id) DO UPDATE SET is_helpful = EXCLUDED.is_helpful`,
			reviewID, actor.ID, isHelpful)
		if err != nil {
			return 0, WrapStore("failed to record vote", err)
		}
	case err != nil:
		return 0, WrapStore("failed to fetch vote", err)
	case previous == isHelpful:
		// Same value again: retract
		if _, err := tx.Exec(`DELETE FROM review_votes WHERE review_id = $1 AND user_id = $2`,
			reviewID, actor.ID); err != nil {
			return 0, WrapStore("failed to retract vote", err)
		}
	default:
		// Opposite value: flip
		if _, err := tx.Exec(`UPDATE review_votes SET is_helpful = $3 WHERE review_id = $1 AND user_id = $2`,
			reviewID, actor.ID, isHelpful); err != nil {
			return 0, WrapStore("failed to flip vote", err)
		}
	}

	var helpfulVotes int
	err = tx.QueryRow(`
		UPDATE reviews
		SET helpful_votes = (SELECT COUNT(*) FROM review_votes WHERE review_id = $1 AND is_helpful = TRUE)
		WHERE id = $1
		RETURNING helpful_votes`, reviewID).Scan(&helpfulVotes)
	if err != nil {
		return 0, WrapStore("failed to update vote count", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, WrapStore("failed to commit vote", err)
	}
	return helpfulVotes, nil
}

// RecomputeAggregate rewrites the business's rating and review_count from
// the current review set in a single UPDATE. Deriving from the table
// rather than incrementing means concurrent writers converge on the right
// numbers regardless of interleaving. The write is retried once; a
// business must never be left disagreeing with its review rows for longer
// than a transient window.
func (s *ReviewService) RecomputeAggregate(businessID uuid.UUID) error {
	query := `
		UPDATE businesses
		SET review_count = (SELECT COUNT(*) FROM reviews WHERE business_id = $1),
			rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 1) FROM reviews WHERE business_id = $1), 0),
			updated_at = now()
		WHERE id = $1`

	_, err := s.db.Exec(query, businessID)
	if err != nil {
		log.Printf("Aggregate write failed for business %s, retrying: %v", businessID, err)
		if _, err = s.db.Exec(query, businessID); err != nil {
			return WrapStore("failed to update rating aggregate", err)
		}
	}
	return nil
}
