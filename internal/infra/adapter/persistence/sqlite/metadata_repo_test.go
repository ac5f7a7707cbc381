package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/adapter/persistence/sqlite"
)

func TestMetadataRepo_SetOverwrites(t *testing.T) {
	repo := sqlite.NewMetadataRepo(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Get(ctx, "last_refresh_at"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	for _, v := range []string{"2026-01-01T00:00:00Z", "2026-01-02T00:00:00Z"} {
		if err := repo.Set(ctx, "last_refresh_at", v); err != nil {
			t.Fatalf("Set err=%v", err)
		}
	}
	got, err := repo.Get(ctx, "last_refresh_at")
	if err != nil || got != "2026-01-02T00:00:00Z" {
		t.Fatalf("Get=%q err=%v", got, err)
	}
}
