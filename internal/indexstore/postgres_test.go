package indexstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnabmitra/topcap-index/internal/database"
	"github.com/arnabmitra/topcap-index/internal/index"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresSaveDayCommitsOneTransaction(t *testing.T) {
	mock := newMock(t)
	d := date("2024-01-02")
	pgDate := pgtype.Date{Time: d, Valid: true}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO index_performance").
		WithArgs(pgDate, pgtype.Float8{Float64: 10, Valid: true}, pgtype.Float8{}, pgtype.Float8{Float64: 1, Valid: true}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO index_composition").
		WithArgs(pgDate, []string{"AAA", "BBB"}, []float64{0.5, 0.5}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec("DELETE FROM index_composition").
		WithArgs(pgDate, []string{"AAA", "BBB"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	s := NewPostgres(mock)
	perf := index.Performance{Date: d, IndexValue: f(10), CumulativeReturn: f(1)}
	require.NoError(t, s.SaveDay(context.Background(), perf, constituents(d, "AAA", "BBB")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveDayRollsBackOnFailure(t *testing.T) {
	mock := newMock(t)
	d := date("2024-01-02")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO index_performance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO index_composition").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	s := NewPostgres(mock)
	err := s.SaveDay(context.Background(), index.Performance{Date: d, IndexValue: f(1), CumulativeReturn: f(1)}, constituents(d, "ZZZ"))
	assert.ErrorContains(t, err, "upsert composition")
	assert.ErrorContains(t, err, "foreign key violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTopByMarketCap(t *testing.T) {
	mock := newMock(t)
	d := date("2024-01-02")

	rows := pgxmock.NewRows([]string{"symbol", "name", "price", "market_cap"}).
		AddRow("AAA", "AAA Corp", pgtype.Float8{Float64: 10, Valid: true}, pgtype.Float8{Float64: 400, Valid: true}).
		AddRow("BBB", "BBB Corp", pgtype.Float8{}, pgtype.Float8{})
	mock.ExpectQuery("FROM daily_data").
		WithArgs(pgtype.Date{Time: d, Valid: true}, int32(100)).
		WillReturnRows(rows)

	got, err := NewPostgres(mock).TopByMarketCap(context.Background(), d, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10.0, *got[0].Price)
	assert.Equal(t, "BBB Corp", got[1].Name)
	assert.Nil(t, got[1].Price)
	assert.Nil(t, got[1].MarketCap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryErrorPropagates(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM index_performance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err := NewPostgres(mock).PerformanceRange(context.Background(), date("2024-01-01"), date("2024-01-31"))
	assert.ErrorContains(t, err, "connection refused")
}

// TestPostgresStore runs against a real database when TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, database.Migrate(url))

	pool, err := database.Connect(ctx, url, discardLogger())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE index_performance, index_composition, daily_data, stock_metadata`)
	require.NoError(t, err)

	exerciseStore(t, NewPostgres(pool))
}
