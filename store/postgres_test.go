package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/models"
)

// newMockPostgres creates a Postgres store backed by pgxmock.
func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgres_Read_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT raw_data FROM scraped_data WHERE unique_name = \$1`).
		WithArgs("example_com_2025").
		WillReturnError(pgx.ErrNoRows)

	content, err := s.Read(context.Background(), "example_com_2025")
	require.NoError(t, err)
	assert.Equal(t, "", content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Read_DecodesJSONString(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT raw_data FROM scraped_data`).
		WithArgs("k1").
		WillReturnRows(pgxmock.NewRows([]string{"raw_data"}).AddRow([]byte(`"# Title\nItem A $10"`)))

	content, err := s.Read(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "# Title\nItem A $10", content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Read_NullIsEmpty(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT raw_data FROM scraped_data`).
		WithArgs("k1").
		WillReturnRows(pgxmock.NewRows([]string{"raw_data"}).AddRow([]byte(nil)))

	content, err := s.Read(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestPostgres_Read_ErrorIsStoreUnavailable(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT raw_data FROM scraped_data`).
		WithArgs("k1").
		WillReturnError(errors.New("connection refused"))

	_, err := s.Read(context.Background(), "k1")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeStoreUnavailable, models.CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgres_Write_Upsert(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO scraped_data .* ON CONFLICT \(unique_name\) DO UPDATE`).
		WithArgs("k1", "https://example.com", json.RawMessage(`"hello"`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Write(context.Background(), "k1", "https://example.com", "hello")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Write_KeepsStoredContent(t *testing.T) {
	s, mock := newMockPostgres(t)

	// the conflict update only fires when the stored raw_data is missing or empty
	mock.ExpectExec(regexp.QuoteMeta(`DO UPDATE SET url = EXCLUDED.url, raw_data = EXCLUDED.raw_data WHERE scraped_data.raw_data IS NULL OR scraped_data.raw_data = '""'::jsonb`)).
		WithArgs("k1", "https://example.com", json.RawMessage(`"second"`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := s.Write(context.Background(), "k1", "https://example.com", "second")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateFields(t *testing.T) {
	fields := json.RawMessage(`{"listings":[{"title":"Item A","price":"$10"}]}`)
	pages := json.RawMessage(`{"page_urls":["https://example.com/page/2"]}`)

	tests := []struct {
		name  string
		patch Patch
		sql   string
		args  []any
	}{
		{
			name:  "structured fields only",
			patch: Patch{StructuredFields: fields},
			sql:   `UPDATE scraped_data SET formatted_data = \$2 WHERE unique_name = \$1`,
			args:  []any{"k1", fields},
		},
		{
			name:  "pagination only",
			patch: Patch{PaginationResult: pages},
			sql:   `UPDATE scraped_data SET pagination_data = \$2 WHERE unique_name = \$1`,
			args:  []any{"k1", pages},
		},
		{
			name:  "both",
			patch: Patch{StructuredFields: fields, PaginationResult: pages},
			sql:   `UPDATE scraped_data SET formatted_data = \$2, pagination_data = \$3 WHERE unique_name = \$1`,
			args:  []any{"k1", fields, pages},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockPostgres(t)
			mock.ExpectExec(tt.sql).
				WithArgs(tt.args...).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))

			require.NoError(t, s.UpdateFields(context.Background(), "k1", tt.patch))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_UpdateFields_MissingKeyIsNoOp(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE scraped_data SET formatted_data`).
		WithArgs("missing", json.RawMessage(`{}`)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateFields(context.Background(), "missing", Patch{StructuredFields: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateFields_EmptyPatchSkipsQuery(t *testing.T) {
	s, mock := newMockPostgres(t)

	require.NoError(t, s.UpdateFields(context.Background(), "k1", Patch{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get(t *testing.T) {
	s, mock := newMockPostgres(t)
	url := "https://example.com/page/1"
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT unique_name, url, raw_data, formatted_data, pagination_data, created_at`).
		WithArgs("k1").
		WillReturnRows(pgxmock.NewRows([]string{"unique_name", "url", "raw_data", "formatted_data", "pagination_data", "created_at"}).
			AddRow("k1", &url, []byte(`"content"`), []byte(`{"listings":[]}`), []byte(nil), created))

	rec, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", rec.Key)
	assert.Equal(t, url, rec.SourceURL)
	assert.Equal(t, "content", rec.RawContent)
	assert.JSONEq(t, `{"listings":[]}`, string(rec.StructuredFields))
	assert.Nil(t, rec.PaginationResult)
	assert.Equal(t, created, rec.CreatedAt)
}

func TestPostgres_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT unique_name, url`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeRecordNotFound, models.CodeOf(err))
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scraped_data`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecodeContent(t *testing.T) {
	assert.Equal(t, "", decodeContent(nil))
	assert.Equal(t, "", decodeContent([]byte("null")))
	assert.Equal(t, "text", decodeContent([]byte(`"text"`)))
	assert.Equal(t, `{"a":1}`, decodeContent([]byte(`{"a":1}`)))
}
