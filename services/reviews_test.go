package services

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*ReviewService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewReviewService(db), mock, func() { db.Close() }
}

func reviewRow(id, businessID, userID uuid.UUID, rating int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "business_id", "user_id", "rating", "title", "comment",
		"visit_date", "helpful_votes", "created_at", "updated_at",
	}).AddRow(id.String(), businessID.String(), userID.String(), rating, nil, nil, nil, 0, now, now)
}

func expectAggregateRecompute(mock sqlmock.Sqlmock, businessID uuid.UUID) {
	mock.ExpectExec(`UPDATE businesses\s+SET review_count = \(SELECT COUNT\(\*\) FROM reviews`).
		WithArgs(businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestAddReviewValidatesRating(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.AddReview(uuid.New(), Identity{ID: uuid.New()}, ReviewInput{Rating: rating})
		assert.True(t, IsKind(err, KindValidation), "rating %d should be rejected", rating)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReviewRequiresAuth(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	_, err := svc.AddReview(uuid.New(), Identity{}, ReviewInput{Rating: 4})
	assert.True(t, IsKind(err, KindAuth))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReviewBusinessNotFound(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	businessID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM businesses WHERE id = $1`)).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	_, err := svc.AddReview(businessID, Identity{ID: uuid.New()}, ReviewInput{Rating: 4})
	assert.True(t, IsKind(err, KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReviewForbidsOwner(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	businessID := uuid.New()
	owner := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM businesses WHERE id = $1`)).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(owner.String()))

	_, err := svc.AddReview(businessID, Identity{ID: owner}, ReviewInput{Rating: 5})
	assert.True(t, IsKind(err, KindForbidden))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A second submission for the same (business, user) pair must update the
// existing row, never create a duplicate. The upsert keyed on the unique
// constraint guarantees that whatever the caller does.
func TestAddReviewUpsertsAndRecomputes(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	businessID := uuid.New()
	userID := uuid.New()
	reviewID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM businesses WHERE id = $1`)).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO reviews .*ON CONFLICT \(business_id, user_id\)`).
		WithArgs(businessID, userID, 5, nil, nil, nil).
		WillReturnRows(reviewRow(reviewID, businessID, userID, 5))
	expectAggregateRecompute(mock, businessID)

	review, err := svc.AddReview(businessID, Identity{ID: userID}, ReviewInput{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, businessID, review.BusinessID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReviewAuthorOnly(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	reviewID := uuid.New()
	author := uuid.New()
	stranger := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM reviews WHERE id = \$1`).
		WithArgs(reviewID).
		WillReturnRows(reviewRow(reviewID, uuid.New(), author, 4))

	rating := 2
	_, err := svc.UpdateReview(reviewID, Identity{ID: stranger}, ReviewUpdate{Rating: &rating})
	assert.True(t, IsKind(err, KindForbidden))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Admins may delete any review; the aggregate is rewritten from the
// remaining rows so a business with no reviews left returns to 0/0.
func TestDeleteReviewRecomputes(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	reviewID := uuid.New()
	businessID := uuid.New()
	author := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM reviews WHERE id = \$1`).
		WithArgs(reviewID).
		WillReturnRows(reviewRow(reviewID, businessID, author, 5))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reviews WHERE id = $1`)).
		WithArgs(reviewID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAggregateRecompute(mock, businessID)

	err := svc.DeleteReview(reviewID, Identity{ID: uuid.New(), Role: "admin"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReviewForbidsStrangers(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	reviewID := uuid.New()
	mock.ExpectQuery(`SELECT .* FROM reviews WHERE id = \$1`).
		WithArgs(reviewID).
		WillReturnRows(reviewRow(reviewID, uuid.New(), uuid.New(), 3))

	err := svc.DeleteReview(reviewID, Identity{ID: uuid.New(), Role: "user"})
	assert.True(t, IsKind(err, KindForbidden))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The aggregate write is retried once before the failure is surfaced.
func TestRecomputeAggregateRetries(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	businessID := uuid.New()
	mock.ExpectExec(`UPDATE businesses\s+SET review_count`).
		WithArgs(businessID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(`UPDATE businesses\s+SET review_count`).
		WithArgs(businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.RecomputeAggregate(businessID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeAggregateSurfacesStoreError(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	businessID := uuid.New()
	mock.ExpectExec(`UPDATE businesses\s+SET review_count`).
		WithArgs(businessID).
		WillReturnError(errors.New("down"))
	mock.ExpectExec(`UPDATE businesses\s+SET review_count`).
		WithArgs(businessID).
		WillReturnError(errors.New("still down"))

	err := svc.RecomputeAggregate(businessID)
	assert.True(t, IsKind(err, KindStore))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectVoteRecount(mock sqlmock.Sqlmock, reviewID uuid.UUID, result int) {
	mock.ExpectQuery(`UPDATE reviews\s+SET helpful_votes = \(SELECT COUNT\(\*\) FROM review_votes`).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"helpful_votes"}).AddRow(result))
}

func expectVoteLookup(mock sqlmock.Sqlmock, reviewID, userID uuid.UUID, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews WHERE id = \$1\)`).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT is_helpful FROM review_votes`).
		WithArgs(reviewID, userID).
		WillReturnRows(rows)
}

// First vote records, second identical vote retracts: helpful_votes ends
// where it started, no matter how often the pair is repeated.
func TestVoteToggleIsIdempotent(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	reviewID := uuid.New()
	userID := uuid.New()

	// vote(true): no prior row, insert, count becomes 1
	mock.ExpectBegin()
	expectVoteLookup(mock, reviewID, userID, sqlmock.NewRows([]string{"is_helpful"}))
	mock.ExpectExec(`INSERT INTO review_votes`).
		WithArgs(reviewID, userID, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectVoteRecount(mock, reviewID, 1)
	mock.ExpectCommit()

	votes, err := svc.Vote(reviewID, Identity{ID: userID}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)

	// vote(true) again: same value retracts, count back to 0
	mock.ExpectBegin()
	expectVoteLookup(mock, reviewID, userID, sqlmock.NewRows([]string{"is_helpful"}).AddRow(true))
	mock.ExpectExec(`DELETE FROM review_votes`).
		WithArgs(reviewID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectVoteRecount(mock, reviewID, 0)
	mock.ExpectCommit()

	votes, err = svc.Vote(reviewID, Identity{ID: userID}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, votes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Flipping a helpful vote to not-helpful is a single unit change driven by
// the recount, never a blind double decrement.
func TestVoteFlipNeverDoubleCounts(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	reviewID := uuid.New()
	userID := uuid.New()

	mock.ExpectBegin()
	expectVoteLookup(mock, reviewID, userID, sqlmock.NewRows([]string{"is_helpful"}).AddRow(true))
	mock.ExpectExec(`UPDATE review_votes SET is_helpful`).
		WithArgs(reviewID, userID, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectVoteRecount(mock, reviewID, 0)
	mock.ExpectCommit()

	votes, err := svc.Vote(reviewID, Identity{ID: userID}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, votes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteUnknownReview(t *testing.T) {
	svc, mock, done := newMock(t)
	defer done()

	reviewID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews WHERE id = \$1\)`).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := svc.Vote(reviewID, Identity{ID: uuid.New()}, true)
	assert.True(t, IsKind(err, KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
