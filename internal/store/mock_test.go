package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cleared-dev/tally/internal/query"
)

// newMockStore returns a Store talking postgres SQL to a sqlmock connection.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestSumByCurrency_DatastoreError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset by peer")

	mock.ExpectQuery(`SELECT currency, COALESCE\(SUM\(host_fee_in_txn_currency\), 0\) AS amount FROM "transactions" WHERE group_id IN .* GROUP BY "currency"`).
		WillReturnError(boom)

	_, err := s.SumByCurrency(context.Background(), query.AttrHostFee, query.Filter{query.In(query.FieldGroupID, []uint{1, 2})})
	require.Error(t, err)

	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "sum by currency", qerr.Op)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctUserIDs_DatastoreError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("relation does not exist")

	mock.ExpectQuery(`SELECT DISTINCT "user_id" FROM "transactions"`).WillReturnError(boom)

	_, err := s.DistinctUserIDs(context.Background(), query.Filter{query.Eq(query.FieldType, "DONATION")})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHostedGroups_NamedParameters(t *testing.T) {
	s, mock := newMockStore(t)
	end := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "name", "slug", "currency", "created_at", "deleted_at"}).
		AddRow(3, "Open Source Collective", "osc", "USD", time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	mock.ExpectQuery(`SELECT g\.\* FROM "groups" g LEFT JOIN "user_groups" ug .* ug\.user_id = \$1 .* ug\.created_at < \$2 AND g\.created_at < \$3`).
		WithArgs(7, end, end).
		WillReturnRows(rows)

	groups, err := s.HostedGroups(context.Background(), 7, end)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, uint(3), groups[0].ID)
	assert.Equal(t, "osc", groups[0].Slug)
	assert.Nil(t, groups[0].DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHostedGroups_BindsUTC(t *testing.T) {
	s, mock := newMockStore(t)
	end := time.Date(2017, 1, 10, 5, 0, 0, 0, time.FixedZone("MST", -7*60*60))
	utc := time.Date(2017, 1, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT g\.\* FROM "groups" g`).
		WithArgs(7, utc, utc).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.HostedGroups(context.Background(), 7, end)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTiers_EventFilter(t *testing.T) {
	s, mock := newMockStore(t)
	event := uint(3)

	mock.ExpectQuery(`SELECT \* FROM "tiers" WHERE deleted_at IS NULL AND event_id = \$1 ORDER BY id`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "event_id"}).AddRow(1, "Early Bird", 3))

	tiers, err := s.ListTiers(context.Background(), &event)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, "Early Bird", tiers[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
