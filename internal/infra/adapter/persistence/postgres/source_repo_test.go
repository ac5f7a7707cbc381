package postgres_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/adapter/persistence/postgres"
)

/* ──────────────────────────────── ヘルパ ──────────────────────────────── */

var sourceColumns = []string{
	"id", "name", "url", "feed_url", "category_id", "active",
	"fetch_interval_minutes", "last_fetched_at", "created_at",
}

func sourceRow(rows *sqlmock.Rows, s *entity.Source) *sqlmock.Rows {
	return rows.AddRow(
		s.ID, s.Name, s.URL, s.FeedURL, s.CategoryID, s.Active,
		s.FetchIntervalMinutes, s.LastFetchedAt, s.CreatedAt,
	)
}

/* ──────────────────────────────── 1. ListActive ──────────────────────────────── */

func TestSourceRepo_ListActive(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fetched := created.Add(time.Hour)
	cat := int64(4)
	want := []*entity.Source{
		{ID: 1, Name: "Go Blog", URL: "https://go.dev/blog", FeedURL: "https://go.dev/blog/feed.atom",
			CategoryID: &cat, Active: true, FetchIntervalMinutes: 60, LastFetchedAt: &fetched, CreatedAt: created},
		{ID: 2, Name: "Qiita", FeedURL: "https://qiita.com/popular-items/feed",
			Active: true, FetchIntervalMinutes: 30, CreatedAt: created},
	}

	rows := sqlmock.NewRows(sourceColumns)
	for _, s := range want {
		sourceRow(rows, s)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE active = TRUE`)).WillReturnRows(rows)

	got, err := postgres.NewSourceRepo(db).ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_ListActive_Unavailable(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM sources`).WillReturnError(driver.ErrBadConn)

	_, err := postgres.NewSourceRepo(db).ListActive(context.Background())
	if !errors.Is(err, entity.ErrStoreUnavailable) {
		t.Fatalf("err=%v, want ErrStoreUnavailable", err)
	}
}

/* ──────────────────────────────── 2. MarkFetched ──────────────────────────────── */

func TestSourceRepo_MarkFetched(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sources SET last_fetched_at = $1 WHERE id = $2`)).
		WithArgs(now, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := postgres.NewSourceRepo(db).MarkFetched(context.Background(), 3, now); err != nil {
		t.Fatalf("MarkFetched err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_MarkFetched_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`UPDATE sources`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := postgres.NewSourceRepo(db).MarkFetched(context.Background(), 99, time.Now())
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

/* ──────────────────────────────── 3. Register ──────────────────────────────── */

func TestSourceRepo_Register(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	src := &entity.Source{Name: "Go Blog", FeedURL: "https://go.dev/blog/feed.atom", Active: true, FetchIntervalMinutes: 60}
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (feed_url) DO NOTHING`)).
		WithArgs("Go Blog", "", "https://go.dev/blog/feed.atom", nil, true, 60, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	created, err := postgres.NewSourceRepo(db).Register(context.Background(), src)
	if err != nil || !created {
		t.Fatalf("Register created=%v err=%v", created, err)
	}
	if src.ID != 11 {
		t.Errorf("ID=%d, want 11", src.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_Register_Existing(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`INSERT INTO sources`).
		WillReturnRows(sqlmock.NewRows([]string{"id"})) // 競合時は RETURNING が空

	created, err := postgres.NewSourceRepo(db).Register(context.Background(),
		&entity.Source{Name: "dup", FeedURL: "https://example.com/feed"})
	if err != nil || created {
		t.Fatalf("Register created=%v err=%v, want false,nil", created, err)
	}
}
