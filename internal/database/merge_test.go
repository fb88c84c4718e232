package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuananh131001/ai-job-search/internal/models"
	"github.com/tuananh131001/ai-job-search/internal/scraper"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func noRows(dest ...any) error { return pgx.ErrNoRows }

// fakeTx scripts QueryRow responses in call order and records every
// statement it sees.
type fakeTx struct {
	rows     []fakeRow
	queries  []string
	qargs    [][]any
	execSQL  []string
	execArgs [][]any
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	f.qargs = append(f.qargs, args)
	return f.rows[len(f.queries)-1]
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.CommandTag{}, nil
}

func TestFindJobLookupSkipsURLArmWhenEmpty(t *testing.T) {
	q := &fakeTx{rows: []fakeRow{{scan: noRows}}}

	j, err := findJobByExternalIDOrURL(context.Background(), q, "indeed_1", "")

	require.NoError(t, err)
	assert.Nil(t, j)
	require.Len(t, q.qargs, 1)
	// only the external id is matched: an empty URL must not alias other
	// url-less rows
	assert.Equal(t, []any{"indeed_1"}, q.qargs[0])
	assert.NotContains(t, q.queries[0], "url =")
}

func TestFindJobLookupUsesBothKeys(t *testing.T) {
	q := &fakeTx{rows: []fakeRow{{scan: noRows}}}

	_, err := findJobByExternalIDOrURL(context.Background(), q, "indeed_1", "https://vn.indeed.com/viewjob?jk=1")

	require.NoError(t, err)
	require.Len(t, q.qargs, 1)
	assert.Equal(t, []any{"indeed_1", "https://vn.indeed.com/viewjob?jk=1"}, q.qargs[0])
	assert.Contains(t, q.queries[0], "url = $2")
}

func TestMergeJobInsertsNullForEmptyURL(t *testing.T) {
	q := &fakeTx{rows: []fakeRow{
		{scan: noRows}, // no company with that name
		{scan: func(dest ...any) error { // create company
			*(dest[0].(*int64)) = 7
			return nil
		}},
		{scan: noRows}, // no existing job
	}}

	inserted, err := mergeJob(context.Background(), q, scraper.JobData{
		ExternalID:  "linkedin_5005",
		Title:       "Marketing Intern",
		CompanyName: "Hanoi Digital Agency",
		Source:      models.SourceLinkedIn,
	})

	require.NoError(t, err)
	assert.True(t, inserted)
	require.Len(t, q.execArgs, 1)
	// insert order: external_id, title, company_id, description, location, url
	args := q.execArgs[0]
	assert.Equal(t, "linkedin_5005", args[0])
	assert.Equal(t, int64(7), args[2])
	assert.Nil(t, args[5])
}

func TestMergeJobUpdatesExistingRow(t *testing.T) {
	q := &fakeTx{rows: []fakeRow{
		{scan: func(dest ...any) error { // company found
			*(dest[0].(*int64)) = 7
			return nil
		}},
		{scan: func(dest ...any) error { // existing job found
			*(dest[0].(*int64)) = 42
			return nil
		}},
	}}

	inserted, err := mergeJob(context.Background(), q, scraper.JobData{
		ExternalID:  "indeed_abc123",
		Title:       "Junior Marketing Executive",
		CompanyName: "Saigon Media Group",
		URL:         "https://vn.indeed.com/viewjob?jk=abc123",
		Source:      models.SourceIndeed,
	})

	require.NoError(t, err)
	assert.False(t, inserted)
	require.Len(t, q.execSQL, 1)
	assert.Contains(t, q.execSQL[0], "UPDATE jobs")
	// the row is updated in place by its id
	args := q.execArgs[0]
	assert.Equal(t, int64(42), args[len(args)-1])
}
