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

func newAnalyticsMock(t *testing.T) (*AnalyticsService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewAnalyticsService(db), mock, func() { db.Close() }
}

func TestTrackViewInsertsRow(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	businessID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM businesses WHERE id = $1)`)).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM business_views`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO business_views`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc.TrackView(businessID, ViewEvent{
		UserID:    uuid.NullUUID{UUID: userID, Valid: true},
		UserAgent: "test-agent",
		IPAddress: "10.0.0.1",
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A repeat view from the same visitor inside the suppression window is
// dropped without an insert.
func TestTrackViewSuppressesDuplicates(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	businessID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM businesses WHERE id = $1)`)).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM business_views`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	svc.TrackView(businessID, ViewEvent{SessionID: "session-1"})
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Tracking is fire-and-forget: a dead store must not surface to the caller.
func TestTrackViewSwallowsStoreFailures(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	businessID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM businesses WHERE id = $1)`)).
		WithArgs(businessID).
		WillReturnError(errors.New("store is down"))

	// Must not panic and has no error to return
	svc.TrackView(businessID, ViewEvent{SessionID: "session-1"})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackContactTagsChannel(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	businessID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM businesses WHERE id = $1)`)).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM business_views`).
		WithArgs(businessID, "session-1", "contact:phone").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO business_views`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc.TrackContact(businessID, "phone", ViewEvent{SessionID: "session-1"})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetViewsForOwnerJoinsBusinessName(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	ownerID := uuid.New()
	businessID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "business_id", "user_id", "session_id", "source", "user_agent", "ip_address", "viewed_at", "business_name",
	}).AddRow(uuid.New().String(), businessID.String(), nil, "session-1", "detail", "agent", "10.0.0.1", time.Now(), "Blue Door Cafe")

	mock.ExpectQuery(`FROM business_views bv\s+JOIN businesses b ON bv.business_id = b.id\s+WHERE b.owner_id = \$1`).
		WithArgs(ownerID, 100).
		WillReturnRows(rows)

	views, err := svc.GetViewsForOwner(ownerID, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Blue Door Cafe", views[0].BusinessName)
	assert.Equal(t, businessID, views[0].BusinessID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneViewsAdminOnly(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	_, err := svc.PruneViews(Identity{ID: uuid.New(), Role: "user"}, 30)
	assert.True(t, IsKind(err, KindForbidden))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneViewsValidatesDays(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	_, err := svc.PruneViews(Identity{ID: uuid.New(), Role: "admin"}, 0)
	assert.True(t, IsKind(err, KindValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneViewsDeletesOldRows(t *testing.T) {
	svc, mock, done := newAnalyticsMock(t)
	defer done()

	mock.ExpectExec(`DELETE FROM business_views WHERE viewed_at <`).
		WithArgs(90).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := svc.PruneViews(Identity{ID: uuid.New(), Role: "admin"}, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
